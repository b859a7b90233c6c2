package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Every parquet field is a string: the raw tables still carry sentinels and
// unparsed tier labels, and typing happens in the cleaning stage.

// NameRow is one row of the names source.
type NameRow struct {
	CustomerID string `parquet:"customer_id"`
	Name       string `parquet:"name"`
}

func (r NameRow) cells() []string { return []string{r.CustomerID, r.Name} }

// AdmissionRow is one row of the hospitalisation details source.
type AdmissionRow struct {
	CustomerID   string `parquet:"customer_id"`
	Year         string `parquet:"year"`
	Month        string `parquet:"month"`
	Date         string `parquet:"date"`
	Children     string `parquet:"children"`
	Charges      string `parquet:"charges"`
	HospitalTier string `parquet:"hospital_tier"`
	CityTier     string `parquet:"city_tier"`
	StateID      string `parquet:"state_id"`
}

func (r AdmissionRow) cells() []string {
	return []string{r.CustomerID, r.Year, r.Month, r.Date, r.Children,
		r.Charges, r.HospitalTier, r.CityTier, r.StateID}
}

// ExamRow is one row of the medical examinations source.
type ExamRow struct {
	CustomerID             string `parquet:"customer_id"`
	BMI                    string `parquet:"bmi"`
	HbA1c                  string `parquet:"hba1c"`
	HeartIssues            string `parquet:"heart_issues"`
	AnyTransplants         string `parquet:"any_transplants"`
	CancerHistory          string `parquet:"cancer_history"`
	NumberOfMajorSurgeries string `parquet:"number_of_major_surgeries"`
	Smoker                 string `parquet:"smoker"`
}

func (r ExamRow) cells() []string {
	return []string{r.CustomerID, r.BMI, r.HbA1c, r.HeartIssues,
		r.AnyTransplants, r.CancerHistory, r.NumberOfMajorSurgeries, r.Smoker}
}

type sourceRow interface {
	NameRow | AdmissionRow | ExamRow
	cells() []string
}

// ReadParquet reads a parquet file written by WriteParquet for the given kind.
func ReadParquet(path string, kind Kind) (*Table, error) {
	switch kind {
	case Names:
		return readParquet[NameRow](path, kind)
	case Details:
		return readParquet[AdmissionRow](path, kind)
	case Medical:
		return readParquet[ExamRow](path, kind)
	}
	return nil, fmt.Errorf("read %s: unknown source %v", path, kind)
}

func readParquet[T sourceRow](path string, kind Kind) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	buf := make([]T, reader.NumRows())
	n, err := reader.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	rows := make([][]string, n)
	for i := range rows {
		rows[i] = buf[i].cells()
	}
	return NewTable(filepath.Base(path), kind.Columns(), rows), nil
}

// WriteParquet writes a source table as typed parquet rows. Columns absent
// from t are written empty.
func WriteParquet(path string, kind Kind, t *Table) error {
	switch kind {
	case Names:
		return writeParquet(path, t, func(c []string) NameRow {
			return NameRow{c[0], c[1]}
		})
	case Details:
		return writeParquet(path, t, func(c []string) AdmissionRow {
			return AdmissionRow{c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7], c[8]}
		})
	case Medical:
		return writeParquet(path, t, func(c []string) ExamRow {
			return ExamRow{c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7]}
		})
	}
	return fmt.Errorf("write %s: unknown source %v", path, kind)
}

func writeParquet[T sourceRow](path string, t *Table, build func([]string) T) error {
	var zero T
	cols := kindOf(zero).Columns()

	rows := make([]T, len(t.Rows))
	cells := make([]string, len(cols))
	for i, row := range t.Rows {
		for j, c := range cols {
			cells[j] = t.Value(row, c)
		}
		rows[i] = build(cells)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.PageBufferSize(8*1024),
		parquet.DataPageStatistics(true),
		parquet.CreatedBy("hospcost", "1.0", ""),
	)
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return file.Close()
}

func kindOf(row any) Kind {
	switch row.(type) {
	case AdmissionRow:
		return Details
	case ExamRow:
		return Medical
	}
	return Names
}
