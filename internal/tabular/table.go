// Package tabular holds the table data model shared by the sandbox,
// validation, integrity, and storage layers.
package tabular

// Record represents a single row as key-value pairs.
type Record = map[string]any

// Table is a named, ordered collection of records. Columns carries the
// authoritative column order; Rows are maps and do not preserve it.
type Table struct {
	Name    string
	Columns []string
	Rows    []Record
}

// New builds a table from records, deriving column order from the order
// fields first appear across the rows.
func New(name string, rows []Record) *Table {
	t := &Table{Name: name, Rows: rows}
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, col := range sortedKeys(row) {
			if !seen[col] {
				seen[col] = true
				t.Columns = append(t.Columns, col)
			}
		}
	}
	return t
}

// NewOrdered builds a table with an explicit column order. Rows may omit
// columns; missing values render as empty on serialization.
func NewOrdered(name string, columns []string, rows []Record) *Table {
	return &Table{Name: name, Columns: columns, Rows: rows}
}

// RowCount returns the number of records.
func (t *Table) RowCount() int { return len(t.Rows) }

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnValues returns the normalized string value of the column for every
// row, in row order.
func (t *Table) ColumnValues(column string) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, FormatValue(row[column]))
	}
	return values
}

// DistinctValues returns the distinct normalized values of the column.
func (t *Table) DistinctValues(column string) []string {
	seen := make(map[string]bool)
	var distinct []string
	for _, row := range t.Rows {
		v := FormatValue(row[column])
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}

// DropColumns returns a copy of the table without the given columns.
func (t *Table) DropColumns(columns []string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	kept := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	rows := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make(Record, len(kept))
		for _, c := range kept {
			if v, ok := row[c]; ok {
				out[c] = v
			}
		}
		rows = append(rows, out)
	}
	return &Table{Name: t.Name, Columns: kept, Rows: rows}
}

// IdentifierColumn resolves the table's primary identifier column: "id" when
// present, otherwise "<singular(name)>_id". Returns "" when neither exists.
func (t *Table) IdentifierColumn() string {
	if t.HasColumn("id") {
		return "id"
	}
	if c := Singularize(t.Name) + "_id"; t.HasColumn(c) {
		return c
	}
	return ""
}
