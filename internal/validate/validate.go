// Package validate checks tables for structural soundness and persists them.
package validate

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dataforge/synthcore/internal/tabular"
)

const (
	CodeSchema       = "E_SCHEMA"
	CodeDuplicateKey = "E_DUPLICATE_KEY"
	CodeEmptyResult  = "E_EMPTY_RESULT"
	CodeIO           = "E_IO"
)

// Result reports the validation outcome for a single table.
type Result struct {
	TableName string   `json:"table_name"`
	IsValid   bool     `json:"is_valid"`
	Errors    []string `json:"errors"`
}

// Report is the envelope for a validate-and-save call across a table set.
// Success reflects the persistence operation; per-table validity lives in
// Results and does not gate saving.
type Report struct {
	Success   bool               `json:"success"`
	Results   map[string]*Result `json:"validation_results"`
	Paths     map[string]string  `json:"csv_paths"`
	RowCounts map[string]int     `json:"row_counts"`
	Message   string             `json:"message,omitempty"`
}

// Table validates a single table's records: non-emptiness, uniform field
// sets, and identifier uniqueness. The empty check short-circuits; the
// remaining checks accumulate.
func Table(name string, rows []tabular.Record) *Result {
	res := &Result{TableName: name, Errors: []string{}}

	if len(rows) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("Table %s cannot be empty", name))
		return res
	}

	first := fieldSet(rows[0])
	for i, row := range rows[1:] {
		if fieldSet(row) != first {
			res.Errors = append(res.Errors,
				fmt.Sprintf("All records in table %s must have the same keys (record %d differs)", name, i+1))
			break
		}
	}

	if idCol := tabular.New(name, rows).IdentifierColumn(); idCol != "" {
		if dups := duplicateValues(rows, idCol); len(dups) > 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("Duplicate IDs found in table %s: %s", name, strings.Join(dups, ", ")))
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// AndSave validates every table and persists each structurally processable
// one as a CSV file under dir, regardless of validity. Row counts and file
// paths are reported per table.
func AndSave(tables map[string]*tabular.Table, dir string) *Report {
	report := &Report{
		Results:   make(map[string]*Result, len(tables)),
		Paths:     make(map[string]string, len(tables)),
		RowCounts: make(map[string]int, len(tables)),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		report.Message = fmt.Sprintf("%s: %v", CodeIO, err)
		return report
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		table := tables[name]
		report.Results[name] = Table(name, table.Rows)
		report.RowCounts[name] = table.RowCount()

		if table.RowCount() == 0 && len(table.Columns) == 0 {
			continue
		}
		path, err := table.WriteCSV(dir)
		if err != nil {
			report.Message = fmt.Sprintf("%s: %v", CodeIO, err)
			return report
		}
		report.Paths[name] = path
	}

	report.Success = true
	return report
}

func fieldSet(row tabular.Record) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x00")
}

func duplicateValues(rows []tabular.Record, column string) []string {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[tabular.FormatValue(row[column])]++
	}
	var dups []string
	for v, n := range counts {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}
