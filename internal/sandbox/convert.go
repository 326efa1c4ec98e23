package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/dataforge/synthcore/internal/tabular"
)

// collector receives tables registered through the save_table builtin.
type collector struct {
	tables []*tabular.Table
}

func newCollector() *collector { return &collector{} }

// builtin returns the save_table(name, rows) primitive bound to this
// collector. rows must be a list of dicts with string keys.
func (c *collector) builtin() *starlark.Builtin {
	return starlark.NewBuiltin("save_table", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		var rows *starlark.List
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "rows", &rows); err != nil {
			return nil, err
		}
		table, ok, err := tableFromValue(name, rows)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("save_table: rows for %q must be a list of dicts", name)
		}
		c.tables = append(c.tables, table)
		return starlark.None, nil
	})
}

// tableFromValue converts a Starlark value into a table when it is
// structurally one: a list of dicts with string keys. Column order follows
// the key insertion order of the first row.
func tableFromValue(name string, v starlark.Value) (*tabular.Table, bool, error) {
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, false, nil
	}
	var columns []string
	seen := make(map[string]bool)
	rows := make([]tabular.Record, 0, list.Len())

	for i := 0; i < list.Len(); i++ {
		dict, ok := list.Index(i).(*starlark.Dict)
		if !ok {
			return nil, false, nil
		}
		rec := make(tabular.Record, dict.Len())
		for _, item := range dict.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, false, nil
			}
			val, err := scalarFromValue(item[1])
			if err != nil {
				return nil, false, fmt.Errorf("table %s row %d column %s: %w", name, i, key, err)
			}
			rec[key] = val
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		rows = append(rows, rec)
	}
	return tabular.NewOrdered(name, columns, rows), true, nil
}

func scalarFromValue(v starlark.Value) (any, error) {
	switch t := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(t), nil
	case starlark.Int:
		if i, ok := t.Int64(); ok {
			return i, nil
		}
		return t.String(), nil
	case starlark.Float:
		return float64(t), nil
	case starlark.String:
		return string(t), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", v.Type())
	}
}
