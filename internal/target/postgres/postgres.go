// Package postgres implements a database storage target: each table is
// created (if missing) and bulk-loaded into a Postgres schema via pgx.
package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dataforge/synthcore/internal/tabular"
	"github.com/dataforge/synthcore/internal/target"
)

// TargetType is the registry key for this backend.
const TargetType = "postgres"

const (
	CodeInvalidConfig = "E_INVALID_CONFIG"
	CodeWriteFailed   = "E_WRITE_FAILED"
)

// Config captures the postgres target configuration.
type Config struct {
	ConnectionString string
	Schema           string
	TablePrefix      string
}

// ParseConfig builds a Config from loose parameters.
func ParseConfig(params map[string]any) *Config {
	cfg := &Config{
		ConnectionString: firstString(params, "connection_string", "connectionString", "dsn"),
		Schema:           firstString(params, "schema"),
		TablePrefix:      firstString(params, "table_prefix", "tablePrefix"),
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return cfg
}

// Validate reports whether the configuration carries the required fields.
// It is pure: no connection is attempted here.
func (c *Config) Validate() bool {
	return c.ConnectionString != ""
}

// connectFunc is swapped in tests.
type connectFunc func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// Target implements target.Target against Postgres.
type Target struct {
	connect connectFunc
}

// New creates the target.
func New() *Target {
	return &Target{connect: pgxpool.New}
}

// Type returns the registry key.
func (t *Target) Type() string { return TargetType }

// Validate reports configuration usability without side effects.
func (t *Target) Validate(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) bool {
	return ParseConfig(config).Validate()
}

// Load creates each table if missing and bulk-inserts its rows with CopyFrom.
// Errors raise; the loader records them per target.
func (t *Target) Load(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) (*target.Result, error) {
	cfg := ParseConfig(config)
	if !cfg.Validate() {
		return nil, fmt.Errorf("%s: connection_string is required", CodeInvalidConfig)
	}

	pool, err := t.connect(ctx, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CodeWriteFailed, err)
	}
	defer pool.Close()

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	rowCounts := make(map[string]int64, len(tables))
	for _, name := range names {
		table := tables[name]
		relation := cfg.TablePrefix + name

		if err := createTable(ctx, pool, cfg.Schema, relation, table); err != nil {
			return nil, err
		}
		copied, err := copyRows(ctx, pool, cfg.Schema, relation, table)
		if err != nil {
			return nil, err
		}
		rowCounts[name] = copied
	}

	return &target.Result{Success: true, RowCounts: rowCounts}, nil
}

func createTable(ctx context.Context, pool *pgxpool.Pool, schema, relation string, table *tabular.Table) error {
	cols := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		cols = append(cols, fmt.Sprintf("%s %s",
			pgx.Identifier{col}.Sanitize(), columnType(table, col)))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{schema, relation}.Sanitize(), strings.Join(cols, ", "))
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("%s: create %s: %w", CodeWriteFailed, relation, err)
	}
	return nil
}

func copyRows(ctx context.Context, pool *pgxpool.Pool, schema, relation string, table *tabular.Table) (int64, error) {
	rows := make([][]any, 0, table.RowCount())
	for _, rec := range table.Rows {
		row := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			row[i] = rec[col]
		}
		rows = append(rows, row)
	}

	copied, err := pool.CopyFrom(ctx,
		pgx.Identifier{schema, relation}, table.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%s: copy into %s: %w", CodeWriteFailed, relation, err)
	}
	return copied, nil
}

// columnType infers a Postgres column type from the first non-nil value.
func columnType(table *tabular.Table, column string) string {
	for _, rec := range table.Rows {
		switch rec[column].(type) {
		case nil:
			continue
		case bool:
			return "BOOLEAN"
		case int, int32, int64:
			return "BIGINT"
		case float32, float64:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

func firstString(params map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := params[key].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
