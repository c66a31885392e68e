package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"capstone/internal/domain"
)

const sheet = "Sheet1"

// WriteXLSX writes rs to the first sheet of a new workbook, header in row 1.
// Numbers stay numeric; everything else goes through FormatValue.
func WriteXLSX(w io.Writer, rs domain.ResultSet) error {
	f := excelize.NewFile()
	for c, name := range rs.Columns {
		if err := setCell(f, c+1, 1, name); err != nil {
			return err
		}
	}
	for i := range rs.Rows {
		for c, v := range rs.Values(i) {
			if err := setCell(f, c+1, i+2, cellValue(v)); err != nil {
				return err
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, axis, v); err != nil {
		return fmt.Errorf("set %s: %w", axis, err)
	}
	return nil
}

func cellValue(v any) any {
	switch x := v.(type) {
	case int64, int, float64:
		return x
	}
	return FormatValue(v)
}

// ReadXLSX returns the first sheet as rows of strings, header included.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f.GetRows(sheet)
}
