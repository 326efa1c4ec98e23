package s3

import (
	"sort"
	"strings"

	"github.com/dataforge/synthcore/internal/tabular"
)

// partition is one upload unit: a (sub-)table plus the hive-style key
// segments encoding its partition values.
type partition struct {
	segments []string
	table    *tabular.Table
}

// partitionTable splits the table by the distinct value-combinations of the
// configured columns. Without partitioning (or without usable columns) the
// whole table is a single unit. Sub-tables come back sorted by segment path
// so uploads are deterministic.
func partitionTable(table *tabular.Table, cfg PartitioningConfig) []partition {
	columns := usableColumns(table, cfg.Columns)
	if !cfg.Enabled || len(columns) == 0 {
		return []partition{{table: table}}
	}

	groups := make(map[string][]tabular.Record)
	for _, row := range table.Rows {
		groups[partitionKey(row, columns)] = append(groups[partitionKey(row, columns)], row)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]partition, 0, len(keys))
	for _, key := range keys {
		sub := tabular.NewOrdered(table.Name, table.Columns, groups[key])
		if cfg.DropColumns {
			sub = sub.DropColumns(columns)
		}
		parts = append(parts, partition{
			segments: strings.Split(key, "/"),
			table:    sub,
		})
	}
	return parts
}

func usableColumns(table *tabular.Table, columns []string) []string {
	var usable []string
	for _, col := range columns {
		if table.HasColumn(col) {
			usable = append(usable, col)
		}
	}
	return usable
}

func partitionKey(row tabular.Record, columns []string) string {
	segments := make([]string, 0, len(columns))
	for _, col := range columns {
		segments = append(segments, col+"="+sanitizeSegment(tabular.FormatValue(row[col])))
	}
	return strings.Join(segments, "/")
}
