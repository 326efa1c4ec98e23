// Package s3 implements the object-store target: it converts tables to
// csv/json/parquet, optionally partitions them by column value, and uploads
// each unit as one object with storage-class and encryption metadata.
package s3

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dataforge/synthcore/internal/tabular"
	"github.com/dataforge/synthcore/internal/target"
)

// TargetType is the registry key for this backend.
const TargetType = "s3"

// StoreFactory builds the object store backing a load. The default selects a
// real S3 client for http/https endpoints and a disk-backed local store
// otherwise.
type StoreFactory func(cfg *Config) (ObjectStore, error)

// Target implements target.Target against an S3-compatible object store.
type Target struct {
	factory StoreFactory
}

// New creates the target with the default store selection.
func New() *Target {
	return &Target{factory: defaultStore}
}

// NewWithStore creates a target bound to a fixed store. Used by tests and
// local tooling.
func NewWithStore(store ObjectStore) *Target {
	return &Target{factory: func(*Config) (ObjectStore, error) { return store, nil }}
}

func defaultStore(cfg *Config) (ObjectStore, error) {
	if strings.HasPrefix(cfg.EndpointURL, "http://") || strings.HasPrefix(cfg.EndpointURL, "https://") {
		return NewClient(cfg)
	}
	return NewLocalStore(cfg.objectRoot()), nil
}

// Type returns the registry key.
func (t *Target) Type() string { return TargetType }

// Validate reports whether the configuration is usable. It is pure:
// repeated calls on identical config and data yield the same boolean with no
// observable side effect.
func (t *Target) Validate(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) bool {
	return ParseConfig(config).Validate()
}

// Load converts every table to the configured encoding and uploads each
// (table, partition) unit as one object. Failures raise; the loader converts
// them into recorded per-target failures.
func (t *Target) Load(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) (*target.Result, error) {
	cfg := ParseConfig(config)
	if !cfg.Validate() {
		return nil, wrapError(CodeInvalidConfig, false, fmt.Errorf("bucket, prefix and a supported format are required"))
	}

	store, err := t.factory(cfg)
	if err != nil {
		return nil, err
	}

	exists, err := store.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket %s not found", cfg.Bucket))
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var uploaded []target.UploadedFile
	for _, name := range names {
		for _, part := range partitionTable(tables[name], cfg.Partitioning) {
			content, err := encodeTable(part.table, cfg.Format, cfg.Compression)
			if err != nil {
				return nil, err
			}
			key := objectKey(cfg.Prefix, name, part.segments, cfg.Format)
			opts := PutOptions{
				ContentType:  contentType(cfg.Format),
				StorageClass: cfg.StorageClass,
				Encryption:   cfg.Encryption,
				Metadata:     cfg.Metadata,
			}
			if err := store.PutObject(ctx, cfg.Bucket, key, content, opts); err != nil {
				return nil, err
			}
			uploaded = append(uploaded, target.UploadedFile{
				Bucket:       cfg.Bucket,
				Key:          key,
				Size:         int64(len(content)),
				StorageClass: cfg.StorageClass,
				Encryption:   cfg.Encryption,
				Metadata:     cfg.Metadata,
			})
		}
	}

	return &target.Result{Success: true, UploadedFiles: uploaded}, nil
}

// objectKey builds <prefix><table>/[<col>=<value>/...]<table>.<ext>.
func objectKey(prefix, table string, segments []string, format string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, table)
	parts = append(parts, segments...)
	parts = append(parts, table+"."+formatExtension(format))
	return prefix + strings.Join(parts, "/")
}
