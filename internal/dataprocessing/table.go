package dataprocessing

// RawTable is the parsed-but-untyped form of the uploaded spreadsheet: a
// header row of column names plus string cell rows, exactly as the sheet
// reader produced them. The processor never mutates a RawTable.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column by exact name, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at the given column index of a row, tolerating
// short rows (trailing empty cells are not materialized by the reader).
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
