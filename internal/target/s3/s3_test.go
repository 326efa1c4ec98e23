package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/dataforge/synthcore/internal/tabular"
)

func testStore(t *testing.T, bucket string) *LocalStore {
	t.Helper()
	store := NewLocalStore(t.TempDir())
	if err := store.EnsureBucket(context.Background(), bucket); err != nil {
		t.Fatalf("EnsureBucket failed: %v", err)
	}
	return store
}

func sampleTables() map[string]*tabular.Table {
	return map[string]*tabular.Table{
		"customers": tabular.NewOrdered("customers", []string{"id", "name"}, []tabular.Record{
			{"id": int64(1), "name": "Alice"},
			{"id": int64(2), "name": "Bob"},
		}),
		"orders": tabular.NewOrdered("orders", []string{"order_id", "customer_id", "amount"}, []tabular.Record{
			{"order_id": int64(1), "customer_id": int64(1), "amount": 100.0},
			{"order_id": int64(2), "customer_id": int64(2), "amount": 250.5},
		}),
	}
}

func baseConfig() map[string]any {
	return map[string]any{
		"bucket": "test-bucket",
		"prefix": "data/",
		"format": "csv",
		"storage": map[string]any{
			"class":      "STANDARD",
			"encryption": "AES256",
		},
	}
}

func TestTarget_Validate(t *testing.T) {
	tgt := New()
	ctx := context.Background()
	tables := sampleTables()

	cases := []struct {
		name   string
		config map[string]any
		want   bool
	}{
		{"complete", baseConfig(), true},
		{"missing format", map[string]any{"bucket": "b", "prefix": "p/"}, false},
		{"invalid format", map[string]any{"bucket": "b", "prefix": "p/", "format": "avro"}, false},
		{"missing bucket", map[string]any{"prefix": "p/", "format": "csv"}, false},
		{"missing prefix", map[string]any{"bucket": "b", "format": "csv"}, false},
	}
	for _, tc := range cases {
		if got := tgt.Validate(ctx, tables, tc.config); got != tc.want {
			t.Errorf("%s: Validate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTarget_ValidateRepeatable(t *testing.T) {
	tgt := New()
	ctx := context.Background()
	tables := sampleTables()
	config := baseConfig()

	first := tgt.Validate(ctx, tables, config)
	for i := 0; i < 5; i++ {
		if tgt.Validate(ctx, tables, config) != first {
			t.Fatal("Validate is not repeatable")
		}
	}
}

func TestTarget_Load_CSV(t *testing.T) {
	store := testStore(t, "test-bucket")
	tgt := NewWithStore(store)
	ctx := context.Background()

	result, err := tgt.Load(ctx, sampleTables(), baseConfig())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if len(result.UploadedFiles) != 2 {
		t.Fatalf("uploaded %d files, want 2", len(result.UploadedFiles))
	}

	keys := map[string]bool{}
	for _, f := range result.UploadedFiles {
		keys[f.Key] = true
		if f.Bucket != "test-bucket" {
			t.Errorf("bucket = %q", f.Bucket)
		}
		if f.StorageClass != "STANDARD" || f.Encryption != "AES256" {
			t.Errorf("storage settings lost: %+v", f)
		}
		if f.Size <= 0 {
			t.Errorf("size = %d", f.Size)
		}
	}
	if !keys["data/customers/customers.csv"] || !keys["data/orders/orders.csv"] {
		t.Errorf("keys = %v", keys)
	}

	content, err := store.GetObject(ctx, "test-bucket", "data/customers/customers.csv")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !strings.HasPrefix(string(content), "id,name\n") {
		t.Errorf("content = %q, want header row first", content)
	}
}

func TestTarget_Load_JSON(t *testing.T) {
	store := testStore(t, "test-bucket")
	tgt := NewWithStore(store)
	config := baseConfig()
	config["format"] = "json"

	result, err := tgt.Load(context.Background(), sampleTables(), config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, f := range result.UploadedFiles {
		if !strings.HasSuffix(f.Key, ".json") {
			t.Errorf("key = %q", f.Key)
		}
	}
	content, _ := store.GetObject(context.Background(), "test-bucket", "data/customers/customers.json")
	if !strings.HasPrefix(string(content), "[{") {
		t.Errorf("content = %q, want array of records", content)
	}
}

func TestTarget_Load_Parquet(t *testing.T) {
	store := testStore(t, "test-bucket")
	tgt := NewWithStore(store)
	config := baseConfig()
	config["format"] = "parquet"
	config["compression"] = "snappy"

	result, err := tgt.Load(context.Background(), sampleTables(), config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, f := range result.UploadedFiles {
		if !strings.HasSuffix(f.Key, ".parquet") {
			t.Errorf("key = %q", f.Key)
		}
		if f.Size == 0 {
			t.Errorf("empty parquet object: %+v", f)
		}
	}
}

func TestTarget_Load_Partitioned(t *testing.T) {
	store := testStore(t, "test-bucket")
	tgt := NewWithStore(store)
	ctx := context.Background()

	tables := map[string]*tabular.Table{
		"orders": tabular.NewOrdered("orders", []string{"order_id", "status", "amount"}, []tabular.Record{
			{"order_id": int64(1), "status": "pending", "amount": int64(100)},
			{"order_id": int64(2), "status": "completed", "amount": int64(200)},
			{"order_id": int64(3), "status": "pending", "amount": int64(300)},
			{"order_id": int64(4), "status": "shipped", "amount": int64(400)},
		}),
	}
	config := baseConfig()
	config["partitioning"] = map[string]any{
		"enabled":      true,
		"columns":      []any{"status"},
		"drop_columns": true,
	}

	result, err := tgt.Load(ctx, tables, config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.UploadedFiles) != 3 {
		t.Fatalf("uploaded %d files, want one per status value", len(result.UploadedFiles))
	}
	for _, f := range result.UploadedFiles {
		if !strings.Contains(f.Key, "status=") {
			t.Errorf("key %q missing partition segment", f.Key)
		}
		content, err := store.GetObject(ctx, "test-bucket", f.Key)
		if err != nil {
			t.Fatalf("GetObject %s: %v", f.Key, err)
		}
		if strings.Contains(strings.SplitN(string(content), "\n", 2)[0], "status") {
			t.Errorf("dropped column still present in %s: %q", f.Key, content)
		}
	}
	for _, status := range []string{"pending", "completed", "shipped"} {
		found := false
		for _, f := range result.UploadedFiles {
			if strings.Contains(f.Key, "status="+status) {
				found = true
			}
		}
		if !found {
			t.Errorf("no object for status=%s", status)
		}
	}
}

func TestTarget_Load_MissingBucket(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	tgt := NewWithStore(store)

	_, err := tgt.Load(context.Background(), sampleTables(), baseConfig())
	if err == nil {
		t.Fatal("expected error for nonexistent bucket")
	}
	if !strings.Contains(err.Error(), CodeBucketNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestEncodeTable_UnsupportedFormat(t *testing.T) {
	table := tabular.NewOrdered("t", []string{"id"}, []tabular.Record{{"id": 1}})
	_, err := encodeTable(table, "avro", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error = %v", err)
	}
}

func TestEncodeParquet_UnsupportedCompression(t *testing.T) {
	table := tabular.NewOrdered("t", []string{"id"}, []tabular.Record{{"id": 1}})
	_, err := encodeTable(table, "parquet", "brotli9000")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPartitionTable_Disabled(t *testing.T) {
	table := tabular.NewOrdered("t", []string{"a"}, []tabular.Record{{"a": 1}, {"a": 2}})
	parts := partitionTable(table, PartitioningConfig{})
	if len(parts) != 1 || parts[0].table != table {
		t.Errorf("parts = %+v, want single whole-table unit", parts)
	}
}

func TestPartitionTable_MultiColumn(t *testing.T) {
	table := tabular.NewOrdered("t", []string{"region", "tier", "v"}, []tabular.Record{
		{"region": "us", "tier": "a", "v": 1},
		{"region": "us", "tier": "b", "v": 2},
		{"region": "eu", "tier": "a", "v": 3},
	})
	parts := partitionTable(table, PartitioningConfig{Enabled: true, Columns: []string{"region", "tier"}})
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	// Sorted by segment path: eu/a, us/a, us/b.
	if parts[0].segments[0] != "region=eu" {
		t.Errorf("segments = %v", parts[0].segments)
	}
	for _, p := range parts {
		if len(p.segments) != 2 {
			t.Errorf("segments = %v, want two", p.segments)
		}
		// Columns kept without drop_columns.
		if !p.table.HasColumn("region") {
			t.Error("partition column dropped without drop_columns")
		}
	}
}
