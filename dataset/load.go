package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TableSource yields one raw source table per kind.
type TableSource interface {
	ReadTable(ctx context.Context, kind Kind) (*Table, error)
}

// FileSource reads the sources from files. The format of each file is
// chosen by its extension: .csv, .xlsx or .parquet.
type FileSource struct {
	Names   string
	Details string
	Medical string
}

// Path returns the file configured for kind.
func (s FileSource) Path(kind Kind) string {
	switch kind {
	case Names:
		return s.Names
	case Details:
		return s.Details
	case Medical:
		return s.Medical
	}
	return ""
}

func (s FileSource) ReadTable(ctx context.Context, kind Kind) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(kind)
	if path == "" {
		return nil, fmt.Errorf("no file configured for %v", kind)
	}
	return ReadTable(path, kind)
}

// ReadTable reads a single source file, dispatching on its extension.
func ReadTable(path string, kind Kind) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	case ".parquet":
		return ReadParquet(path, kind)
	default:
		return nil, fmt.Errorf("%s: unsupported file type %q", path, ext)
	}
}

// ReadAll reads every source table.
func ReadAll(ctx context.Context, src TableSource) (map[Kind]*Table, error) {
	tables := make(map[Kind]*Table, len(Kinds))
	for _, kind := range Kinds {
		t, err := src.ReadTable(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("read %v: %w", kind, err)
		}
		if err := t.Require(ColCustomerID); err != nil {
			return nil, err
		}
		tables[kind] = t
	}
	return tables, nil
}

// Load reads the three sources and returns (names ⋈ details) ⋈ medical on
// Customer ID.
func Load(ctx context.Context, src TableSource, log zerolog.Logger) (*Table, error) {
	start := time.Now()

	tables, err := ReadAll(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, kind := range Kinds {
		t := tables[kind]
		log.Debug().Str("source", kind.String()).Str("table", t.Name).Int("rows", t.Len()).Msg("source read")

		dups, err := t.DuplicateKeys(ColCustomerID)
		if err != nil {
			return nil, err
		}
		if len(dups) > 0 {
			log.Warn().Str("source", kind.String()).Strs("ids", dups).Msg("duplicate customer ids")
		}
	}

	joined, err := InnerJoin(tables[Names], tables[Details], ColCustomerID)
	if err != nil {
		return nil, fmt.Errorf("join names and details: %w", err)
	}
	joined, err = InnerJoin(joined, tables[Medical], ColCustomerID)
	if err != nil {
		return nil, fmt.Errorf("join medical: %w", err)
	}
	joined.Name = "joined"

	for _, mc := range joined.MissingCounts() {
		if mc.Count > 0 {
			log.Warn().Str("column", mc.Column).Int("empty", mc.Count).Msg("missing values")
		}
	}
	log.Info().Int("rows", joined.Len()).Int("columns", len(joined.Header)).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("sources joined")
	return joined, nil
}
