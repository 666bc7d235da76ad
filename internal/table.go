package internal

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableColumns derives the column set from the key set of the first row
// only, sorted for stable output. Heterogeneous row shapes are not
// supported: later rows missing a column render empty cells, extra keys in
// later rows are ignored.
func TableColumns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// CellString stringifies one cell. Missing or nil values render as the
// empty string, never an error.
func CellString(row Row, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// RenderTable renders rows as a text table. Empty input renders nothing at
// all: no columns, no frame.
func RenderTable(rows []Row) string {
	cols := TableColumns(rows)
	if len(cols) == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(cols))
	for _, col := range cols {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, 0, len(cols))
		for _, col := range cols {
			cells = append(cells, CellString(row, col))
		}
		t.AppendRow(cells)
	}

	return t.Render()
}
