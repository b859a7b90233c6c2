package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV reads a whole CSV file into a Table. The first row is the header.
// Empty rows are skipped and ragged rows are padded to the header width.
// Header names are trimmed; cells are not.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	t, err := readCSV(file, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func readCSV(r io.Reader, name string) (*Table, error) {
	bufReader := bufio.NewReaderSize(r, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = cleanHeader(h)
	}

	var rows [][]string
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}

		// Skip empty rows
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		for i, cell := range row {
			row[i] = validCell(cell)
		}
		rows = append(rows, row)
	}

	return NewTable(name, header, rows), nil
}

// WriteCSV writes a table with its header.
func WriteCSV(path string, t *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(t.Header); err != nil {
		file.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		file.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	return file.Close()
}

// cleanHeader trims a header name and replaces invalid UTF-8, since some
// exports use Windows-1252.
func cleanHeader(s string) string {
	return validCell(strings.TrimSpace(s))
}

// validCell replaces invalid UTF-8 and otherwise keeps the cell as written.
// Whitespace is significant: " ?" is not the sentinel.
func validCell(s string) string {
	return strings.ToValidUTF8(s, "�")
}
