package ast

import "fmt"

// ExpandMaskRows expands the run-length mask grid of a mask_example_op
// argument into a dense rectangular matrix.
//
// The grid is a list of rows. A row starting with the marker "rep"
// followed by a count repeats the remainder of the row that many times.
// Each cell is either a number or a [count, value] run. The expanded
// rows must all have the same length.
func ExpandMaskRows(v Value) ([][]float64, error) {
	if v.Type != ValueTypeList || len(v.List) == 0 {
		return nil, fmt.Errorf("mask must be a non-empty list of rows")
	}

	rows := make([][]float64, 0, len(v.List))
	for ri, rowVal := range v.List {
		if rowVal.Type != ValueTypeList {
			return nil, fmt.Errorf("mask row %d must be a list", ri)
		}
		cells := rowVal.List

		repeats := 1
		if len(cells) > 0 && cells[0].Type == ValueTypeString {
			if cells[0].Str != "rep" {
				return nil, fmt.Errorf("mask row %d: unknown marker %q", ri, cells[0].Str)
			}
			if len(cells) < 2 || !cells[1].IsWholeNumber() {
				return nil, fmt.Errorf("mask row %d: 'rep' marker needs an integer count", ri)
			}
			repeats = cells[1].AsInt()
			if repeats < 1 {
				return nil, fmt.Errorf("mask row %d: 'rep' count must be positive, got %d", ri, repeats)
			}
			cells = cells[2:]
		}

		row := make([]float64, 0, len(cells))
		for ci, cell := range cells {
			switch {
			case cell.IsNumber():
				row = append(row, cell.AsFloat())
			case cell.Type == ValueTypeList:
				if len(cell.List) != 2 || !cell.List[0].IsWholeNumber() || !cell.List[1].IsNumber() {
					return nil, fmt.Errorf("mask row %d cell %d: run must be [count, value]", ri, ci)
				}
				count := cell.List[0].AsInt()
				if count < 1 {
					return nil, fmt.Errorf("mask row %d cell %d: run count must be positive, got %d", ri, ci, count)
				}
				val := cell.List[1].AsFloat()
				for k := 0; k < count; k++ {
					row = append(row, val)
				}
			default:
				return nil, fmt.Errorf("mask row %d cell %d: must be a number or [count, value]", ri, ci)
			}
		}
		if len(row) == 0 {
			return nil, fmt.Errorf("mask row %d is empty", ri)
		}
		for k := 0; k < repeats; k++ {
			rows = append(rows, row)
		}
	}

	width := len(rows[0])
	for ri, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("mask rows must have equal length: row %d has %d cells, want %d", ri, len(row), width)
		}
	}
	return rows, nil
}
