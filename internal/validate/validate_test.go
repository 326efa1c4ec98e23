package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataforge/synthcore/internal/tabular"
)

func TestTable_Valid(t *testing.T) {
	rows := []tabular.Record{
		{"id": 1, "name": "John"},
		{"id": 2, "name": "Jane"},
	}
	res := Table("customers", rows)
	if !res.IsValid {
		t.Fatalf("expected valid, errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
}

func TestTable_Empty(t *testing.T) {
	res := Table("customers", nil)
	if res.IsValid {
		t.Fatal("empty table must be invalid")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "cannot be empty") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestTable_MixedKeys(t *testing.T) {
	rows := []tabular.Record{
		{"id": 1, "name": "John"},
		{"id": 2, "email": "jane@example.com"},
	}
	res := Table("customers", rows)
	if res.IsValid {
		t.Fatal("mixed-key table must be invalid")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "must have the same keys") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want same-keys error", res.Errors)
	}
}

func TestTable_DuplicateIDs(t *testing.T) {
	rows := []tabular.Record{
		{"id": 1, "name": "John"},
		{"id": 1, "name": "Jane"},
	}
	res := Table("customers", rows)
	if res.IsValid {
		t.Fatal("duplicate ids must be invalid")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "Duplicate IDs") {
		t.Errorf("errors = %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "1") {
		t.Errorf("error should name the offending value: %v", res.Errors[0])
	}
}

func TestTable_SingularIDColumn(t *testing.T) {
	rows := []tabular.Record{
		{"customer_id": 7, "name": "John"},
		{"customer_id": 7, "name": "Jane"},
	}
	res := Table("customers", rows)
	if res.IsValid {
		t.Fatal("duplicate customer_id must be invalid")
	}
}

func TestTable_AccumulatesErrors(t *testing.T) {
	rows := []tabular.Record{
		{"id": 1, "name": "John"},
		{"id": 1, "email": "jane@example.com"},
	}
	res := Table("customers", rows)
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want schema and duplicate-id errors", res.Errors)
	}
}

func TestAndSave(t *testing.T) {
	dir := t.TempDir()
	tables := map[string]*tabular.Table{
		"customers": tabular.NewOrdered("customers", []string{"id", "name"}, []tabular.Record{
			{"id": 1, "name": "John"},
			{"id": 2, "name": "Jane"},
		}),
		"orders": tabular.NewOrdered("orders", []string{"order_id", "customer_id"}, []tabular.Record{
			{"order_id": 1, "customer_id": 1},
			{"order_id": 2, "customer_id": 2},
			{"order_id": 3, "customer_id": 1},
		}),
	}

	report := AndSave(tables, dir)
	if !report.Success {
		t.Fatalf("save failed: %s", report.Message)
	}
	if !report.Results["customers"].IsValid || !report.Results["orders"].IsValid {
		t.Errorf("results = %+v", report.Results)
	}
	if report.RowCounts["customers"] != 2 || report.RowCounts["orders"] != 3 {
		t.Errorf("row counts = %v", report.RowCounts)
	}
	for _, name := range []string{"customers", "orders"} {
		if _, err := os.Stat(filepath.Join(dir, name+".csv")); err != nil {
			t.Errorf("missing %s.csv: %v", name, err)
		}
	}
}

func TestAndSave_InvalidTableStillPersisted(t *testing.T) {
	dir := t.TempDir()
	tables := map[string]*tabular.Table{
		"customers": tabular.New("customers", []tabular.Record{
			{"id": 1, "name": "John"},
			{"id": 1, "name": "Jane"},
		}),
	}

	report := AndSave(tables, dir)
	if !report.Success {
		t.Fatalf("save failed: %s", report.Message)
	}
	if report.Results["customers"].IsValid {
		t.Error("expected invalid validation result")
	}
	if report.Paths["customers"] == "" {
		t.Error("invalid table must still be persisted")
	}
}
