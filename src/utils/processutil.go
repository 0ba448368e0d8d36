package utils

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names absent from df, in the given order.
func MissingColumns(df dataframe.DataFrame, names ...string) []string {
	var missing []string
	for _, n := range names {
		if !HasColumn(df, n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// WriteFrame writes df to sheet starting at A1: a header row, then one row
// per record. Numeric columns stay numeric; missing cells are left blank.
func WriteFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
	}

	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < col.Len(); rowIdx++ {
			e := col.Elem(rowIdx)
			if e.IsNA() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			var val interface{}
			switch col.Type() {
			case series.Float:
				v := e.Float()
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				val = v
			case series.Int:
				v, err := e.Int()
				if err != nil {
					continue
				}
				val = v
			default:
				val = e.String()
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	return nil
}

// SaveToExcel writes df to a single-sheet workbook at filePath.
func SaveToExcel(df dataframe.DataFrame, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := WriteFrame(f, "Sheet1", df); err != nil {
		return err
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("save %s: %w", filePath, err)
	}
	return nil
}
