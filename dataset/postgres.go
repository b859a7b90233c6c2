package dataset

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed sql/schema.sql
var Schema string

// Connect opens a small pool and verifies the server is reachable.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// PGSource reads the three source tables from PostgreSQL.
type PGSource struct {
	Pool *pgxpool.Pool
}

// ReadTable selects one source table in its original row order. NULLs read
// as empty cells.
func (s PGSource) ReadTable(ctx context.Context, kind Kind) (*Table, error) {
	cols := kind.sqlColumns()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY ord",
		strings.Join(cols, ", "), kind.sqlTable())

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind.sqlTable(), err)
	}
	data, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		vals := make([]pgtype.Text, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		cells := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				cells[i] = v.String
			}
		}
		return cells, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind.sqlTable(), err)
	}
	return NewTable(kind.sqlTable(), kind.Columns(), data), nil
}

// ImportTables creates the schema and replaces the contents of every source
// table present in tables, in one transaction.
func ImportTables(ctx context.Context, pool *pgxpool.Pool, tables map[Kind]*Table, log zerolog.Logger) error {
	start := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	var total int64
	for _, kind := range Kinds {
		t, ok := tables[kind]
		if !ok {
			continue
		}
		if err := t.Require(ColCustomerID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "TRUNCATE "+kind.sqlTable()); err != nil {
			return fmt.Errorf("truncate %s: %w", kind.sqlTable(), err)
		}

		srcCols := kind.Columns()
		copyCols := append([]string{"ord"}, kind.sqlColumns()...)
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{kind.sqlTable()}, copyCols,
			pgx.CopyFromSlice(len(t.Rows), func(i int) ([]any, error) {
				vals := make([]any, 0, len(copyCols))
				vals = append(vals, int64(i))
				for _, c := range srcCols {
					vals = append(vals, optText(t.Value(t.Rows[i], c)))
				}
				return vals, nil
			}))
		if err != nil {
			return fmt.Errorf("copy %s: %w", kind.sqlTable(), err)
		}
		total += copied
		log.Info().Str("table", kind.sqlTable()).Int64("rows", copied).Msg("imported")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Info().Int64("rows", total).Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("import done")
	return nil
}

// optText maps an empty cell to NULL.
func optText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
