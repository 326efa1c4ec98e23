// Package integrity infers cross-table referential relationships and
// per-table functional dependencies from materialized tables and reports
// violations. It never errors on well-formed input; tables missing an
// expected identifier column simply skip the affected check.
package integrity

import (
	"sort"
	"strings"

	"github.com/dataforge/synthcore/internal/tabular"
)

// Issue kinds.
const (
	KindReferential          = "referential_integrity"
	KindFunctionalDependency = "functional_dependency"
)

// Issue is a single detected violation, tagged by Kind. Referential issues
// fill SourceTable/TargetTable/Column/Values/Count; functional-dependency
// issues fill Table/Determinant/Dependent/Counterexample.
type Issue struct {
	Kind string `json:"type"`

	SourceTable string   `json:"source_table,omitempty"`
	TargetTable string   `json:"target_table,omitempty"`
	Column      string   `json:"column,omitempty"`
	Values      []string `json:"invalid_values,omitempty"`
	Count       int      `json:"invalid_count,omitempty"`

	Table          string           `json:"table,omitempty"`
	Determinant    string           `json:"determinant,omitempty"`
	Dependent      string           `json:"dependent,omitempty"`
	Counterexample []tabular.Record `json:"counterexample,omitempty"`
}

// Options controls the two inference heuristics. Both conventions are
// configurable because neither has one canonical rule.
type Options struct {
	// ForeignKeySuffix marks candidate foreign-key columns (default "_id").
	ForeignKeySuffix string
	// MaxDeterminantDistinct caps the distinct-value count of candidate
	// determinant columns.
	MaxDeterminantDistinct int
	// MaxDeterminantRatio admits a determinant when its distinct count is at
	// most this fraction of the row count, even above the absolute cap.
	MaxDeterminantRatio float64
}

// DefaultOptions returns the conventional heuristics.
func DefaultOptions() Options {
	return Options{
		ForeignKeySuffix:       "_id",
		MaxDeterminantDistinct: 50,
		MaxDeterminantRatio:    0.5,
	}
}

// Analyze inspects the table set and returns every detected issue, ordered by
// table name then column name. Identical input always yields identical output.
func Analyze(tables map[string]*tabular.Table, opts Options) []Issue {
	if opts.ForeignKeySuffix == "" {
		opts.ForeignKeySuffix = "_id"
	}
	if opts.MaxDeterminantDistinct == 0 {
		opts.MaxDeterminantDistinct = 50
	}
	if opts.MaxDeterminantRatio == 0 {
		opts.MaxDeterminantRatio = 0.5
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []Issue
	for _, name := range names {
		issues = append(issues, referentialIssues(name, tables[name], tables, opts)...)
		issues = append(issues, dependencyIssues(name, tables[name], opts)...)
	}
	return issues
}

// referentialIssues treats every column named <base><suffix> as a reference
// to the identifier column of the table named plural(base) (or base itself)
// and reports child values absent from the parent's key set.
func referentialIssues(name string, table *tabular.Table, tables map[string]*tabular.Table, opts Options) []Issue {
	var issues []Issue
	columns := append([]string(nil), table.Columns...)
	sort.Strings(columns)

	for _, column := range columns {
		if !strings.HasSuffix(column, opts.ForeignKeySuffix) {
			continue
		}
		base := strings.TrimSuffix(column, opts.ForeignKeySuffix)
		parent, parentName := resolveParent(base, name, tables)
		if parent == nil {
			continue
		}
		idCol := parent.IdentifierColumn()
		if idCol == "" {
			continue
		}

		known := make(map[string]bool, parent.RowCount())
		for _, v := range parent.ColumnValues(idCol) {
			known[v] = true
		}

		var missing []string
		seen := make(map[string]bool)
		for _, v := range table.ColumnValues(column) {
			if v == "" || known[v] || seen[v] {
				continue
			}
			seen[v] = true
			missing = append(missing, v)
		}
		if len(missing) == 0 {
			continue
		}
		sort.Strings(missing)
		issues = append(issues, Issue{
			Kind:        KindReferential,
			SourceTable: name,
			TargetTable: parentName,
			Column:      column,
			Values:      missing,
			Count:       len(missing),
		})
	}
	return issues
}

// resolveParent maps a foreign-key base name to its parent table, skipping
// self references. A column like customer_id resolves to customers first,
// then to a table literally named customer.
func resolveParent(base, self string, tables map[string]*tabular.Table) (*tabular.Table, string) {
	for _, candidate := range []string{tabular.Pluralize(base), base} {
		if candidate == self {
			continue
		}
		if t, ok := tables[candidate]; ok {
			return t, candidate
		}
	}
	return nil, ""
}

// dependencyIssues reports every ordered column pair (determinant, dependent)
// where some determinant value maps to more than one dependent value.
// Determinant candidacy is bounded by cardinality to keep the pair scan cheap.
func dependencyIssues(name string, table *tabular.Table, opts Options) []Issue {
	if table.RowCount() < 2 {
		return nil
	}
	columns := append([]string(nil), table.Columns...)
	sort.Strings(columns)

	var issues []Issue
	for _, det := range columns {
		if !candidateDeterminant(table, det, opts) {
			continue
		}
		for _, dep := range columns {
			if dep == det {
				continue
			}
			if example := findViolation(table, det, dep); example != nil {
				issues = append(issues, Issue{
					Kind:           KindFunctionalDependency,
					Table:          name,
					Determinant:    det,
					Dependent:      dep,
					Counterexample: example,
				})
			}
		}
	}
	return issues
}

func candidateDeterminant(table *tabular.Table, column string, opts Options) bool {
	distinct := len(table.DistinctValues(column))
	if distinct <= opts.MaxDeterminantDistinct {
		return true
	}
	return float64(distinct) <= opts.MaxDeterminantRatio*float64(table.RowCount())
}

// findViolation returns two rows sharing a determinant value but differing in
// the dependent value, or nil when the dependency holds.
func findViolation(table *tabular.Table, det, dep string) []tabular.Record {
	firstRow := make(map[string]int)
	firstDep := make(map[string]string)
	for i, row := range table.Rows {
		dv := tabular.FormatValue(row[det])
		pv := tabular.FormatValue(row[dep])
		if prev, ok := firstDep[dv]; ok {
			if prev != pv {
				return []tabular.Record{table.Rows[firstRow[dv]], row}
			}
			continue
		}
		firstRow[dv] = i
		firstDep[dv] = pv
	}
	return nil
}
