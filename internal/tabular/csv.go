package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EncodeCSV writes the table as delimited text with a header row.
func (t *Table) EncodeCSV(out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("encode table %s: %w", t.Name, err)
	}
	row := make([]string, len(t.Columns))
	for _, rec := range t.Rows {
		for i, col := range t.Columns {
			row[i] = FormatValue(rec[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode table %s: %w", t.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode table %s: %w", t.Name, err)
	}
	return nil
}

// WriteCSV persists the table as a delimited file with a header row and
// returns its path. The directory must already exist.
func (t *Table) WriteCSV(dir string) (string, error) {
	path := filepath.Join(dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write table %s: %w", t.Name, err)
	}
	defer f.Close()

	if err := t.EncodeCSV(f); err != nil {
		return "", err
	}
	return path, nil
}

// ReadCSV re-materializes a table from a delimited file written by WriteCSV.
// The table name is taken from the file's base name. All values come back as
// strings; callers compare via FormatValue-normalized forms.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(all) == 0 {
		return &Table{Name: name}, nil
	}
	columns := all[0]
	rows := make([]Record, 0, len(all)-1)
	for _, line := range all[1:] {
		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(line) {
				rec[col] = line[i]
			}
		}
		rows = append(rows, rec)
	}
	return &Table{Name: name, Columns: columns, Rows: rows}, nil
}

// ReadDir materializes every *.csv file in dir into a table map keyed by
// table name.
func ReadDir(dir string) (map[string]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	tables := make(map[string]*Table)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		t, err := ReadCSV(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		tables[t.Name] = t
	}
	return tables, nil
}
