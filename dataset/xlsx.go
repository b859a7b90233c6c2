package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of a workbook. The first row is the header.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", path, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty sheet %q", path, sheets[0])
	}

	header := rows[0]
	for i, h := range header {
		header[i] = cleanHeader(h)
	}
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// GetRows trims trailing empty cells; NewTable pads them back.
		if len(row) == 0 {
			continue
		}
		for i, cell := range row {
			row[i] = validCell(cell)
		}
		data = append(data, row)
	}
	return NewTable(filepath.Base(path), header, data), nil
}

// WriteXLSX writes a table into the first sheet of a new workbook.
func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	write := func(r int, cells []string) error {
		for c, v := range cells {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, ref, v); err != nil {
				return fmt.Errorf("set cell %s: %w", ref, err)
			}
		}
		return nil
	}

	if err := write(0, t.Header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := write(i+1, row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
