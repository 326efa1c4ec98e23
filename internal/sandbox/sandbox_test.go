package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataforge/synthcore/internal/tabular"
)

const sampleSource = `
customers_df = [
    {"customer_id": 1, "name": "Alice", "email": "alice@example.com", "city": "Seattle"},
    {"customer_id": 2, "name": "Bob", "email": "bob@example.com", "city": "Portland"},
    {"customer_id": 3, "name": "Cara", "email": "cara@example.com", "city": "Seattle"},
]

orders_df = [
    {"order_id": i + 1, "customer_id": c, "amount": (i + 1) * 100, "status": s}
    for i, (c, s) in enumerate([(1, "pending"), (1, "completed"), (2, "pending"), (3, "shipped")])
]
`

func TestRunner_Run_Success(t *testing.T) {
	dir := t.TempDir()
	res := NewRunner().Run(context.Background(), sampleSource, dir, "")

	if !res.Success {
		t.Fatalf("run failed: message=%q error=%q", res.Message, res.Error)
	}
	if len(res.SavedFiles) != 2 {
		t.Fatalf("saved %d tables, want 2", len(res.SavedFiles))
	}
	if res.WorkspaceDir != dir {
		t.Errorf("workspace = %q, want %q", res.WorkspaceDir, dir)
	}

	customers, err := tabular.ReadCSV(filepath.Join(dir, "customers_df.csv"))
	if err != nil {
		t.Fatalf("reading harvested table: %v", err)
	}
	wantCols := []string{"customer_id", "name", "email", "city"}
	for i, col := range wantCols {
		if customers.Columns[i] != col {
			t.Errorf("columns = %v, want %v", customers.Columns, wantCols)
			break
		}
	}
	if customers.RowCount() != 3 {
		t.Errorf("rows = %d, want 3", customers.RowCount())
	}

	orders, err := tabular.ReadCSV(filepath.Join(dir, "orders_df.csv"))
	if err != nil {
		t.Fatalf("reading harvested table: %v", err)
	}
	if orders.RowCount() != 4 {
		t.Errorf("orders rows = %d, want 4", orders.RowCount())
	}
}

func TestRunner_Run_ExplicitRegistration(t *testing.T) {
	dir := t.TempDir()
	source := `
save_table("customers", [
    {"id": 1, "name": "Alice"},
    {"id": 2, "name": "Bob"},
])
`
	res := NewRunner().Run(context.Background(), source, dir, "")
	if !res.Success {
		t.Fatalf("run failed: %q %q", res.Message, res.Error)
	}
	if len(res.SavedFiles) != 1 || res.SavedFiles[0].Table != "customers" {
		t.Fatalf("saved files = %+v", res.SavedFiles)
	}
	if _, err := os.Stat(filepath.Join(dir, "customers.csv")); err != nil {
		t.Errorf("expected customers.csv: %v", err)
	}
}

func TestRunner_Run_NoTables(t *testing.T) {
	dir := t.TempDir()
	res := NewRunner().Run(context.Background(), "x = 1\ny = x + 2\n", dir, "")

	if res.Success {
		t.Fatal("expected failure for source producing no tables")
	}
	if !strings.Contains(res.Message, "no tables found") {
		t.Errorf("message = %q", res.Message)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no files should be written, found %d", len(entries))
	}
}

func TestRunner_Run_SyntaxError(t *testing.T) {
	res := NewRunner().Run(context.Background(), "customers_df = [{\"id\": 1\n", t.TempDir(), "")
	if res.Success {
		t.Fatal("expected failure for broken source")
	}
	if !strings.Contains(res.Error, CodeParse) {
		t.Errorf("error = %q, want parse failure", res.Error)
	}
}

func TestRunner_Run_RestrictedEnvironment(t *testing.T) {
	// Capability names are simply absent; using one is a resolve error.
	cases := []string{
		`os.system("echo hack")`,
		`f = open("/etc/passwd")`,
		`load("@stdlib//os", "os")`,
	}
	for _, source := range cases {
		res := NewRunner().Run(context.Background(), source, t.TempDir(), "")
		if res.Success {
			t.Errorf("source %q should not execute", source)
		}
		if res.Error == "" {
			t.Errorf("source %q: expected error, got message %q", source, res.Message)
		}
	}
}

func TestRunner_Run_OutputSubdir(t *testing.T) {
	dir := t.TempDir()
	res := NewRunner().Run(context.Background(), sampleSource, dir, "batch-1")

	if !res.Success {
		t.Fatalf("run failed: %q %q", res.Message, res.Error)
	}
	if res.OutputSubdir != "batch-1" {
		t.Errorf("output subdir = %q", res.OutputSubdir)
	}
	if _, err := os.Stat(filepath.Join(dir, "batch-1", "customers_df.csv")); err != nil {
		t.Errorf("expected table under subdir: %v", err)
	}
}

func TestRunner_Run_InvalidOutputDir(t *testing.T) {
	res := NewRunner().Run(context.Background(), sampleSource, "/dev/null/nope", "")
	if res.Success {
		t.Fatal("expected failure for non-creatable output dir")
	}
	if !strings.Contains(res.Error, CodeIO) {
		t.Errorf("error = %q, want IO failure", res.Error)
	}
}

func TestRunner_Run_FreshContextPerRun(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner()

	res := r.Run(context.Background(), `leak_df = [{"id": 1}]`, dir, "a")
	if !res.Success {
		t.Fatalf("first run failed: %q %q", res.Message, res.Error)
	}

	// The binding from the first run must not be visible in the second.
	res = r.Run(context.Background(), `copied_df = leak_df`, dir, "b")
	if res.Success {
		t.Fatal("second run saw a binding from the first run")
	}
}
