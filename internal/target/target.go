// Package target defines the pluggable storage-target contract and the
// fan-out loader that dispatches table sets across targets with per-target
// failure isolation.
package target

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dataforge/synthcore/internal/tabular"
)

// Spec names a target type and carries its opaque configuration. The config
// mapping is interpreted only by the matching target.
type Spec struct {
	Type   string         `json:"type" yaml:"type"`
	Config map[string]any `json:"config" yaml:"config"`
}

// UploadedFile describes one persisted object.
type UploadedFile struct {
	Bucket       string            `json:"bucket"`
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	StorageClass string            `json:"storage_class,omitempty"`
	Encryption   string            `json:"encryption,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Result is the per-target outcome. Object-store targets fill UploadedFiles;
// database targets fill RowCounts.
type Result struct {
	TargetType    string           `json:"target_type"`
	Success       bool             `json:"success"`
	UploadedFiles []UploadedFile   `json:"uploaded_files,omitempty"`
	RowCounts     map[string]int64 `json:"row_counts,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Report is the loader envelope: overall success is the logical AND across
// all per-target results.
type Report struct {
	Success bool               `json:"success"`
	RunID   string             `json:"run_id,omitempty"`
	Results map[string]*Result `json:"results"`
}

// Target is a storage backend. Validate must be pure and repeatable: same
// config and data always yield the same boolean with no side effect. Load
// raises on failure; converting that into a recorded result is the loader's
// job, not the target's.
type Target interface {
	Type() string
	Validate(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) bool
	Load(ctx context.Context, tables map[string]*tabular.Table, config map[string]any) (*Result, error)
}

// Registry holds targets indexed by type. It is built explicitly at startup;
// there is no package-level default and no init-time registration.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewRegistry creates an empty target registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register adds a target. Panics on duplicate type, which is a wiring bug.
func (r *Registry) Register(t Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.targets[t.Type()]; exists {
		panic(fmt.Sprintf("target already registered: %s", t.Type()))
	}
	r.targets[t.Type()] = t
}

// Get returns the target for the given type.
func (r *Registry) Get(targetType string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[targetType]
	return t, ok
}

// List returns all registered target types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.targets))
	for t := range r.targets {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
