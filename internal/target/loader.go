package target

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dataforge/synthcore/internal/tabular"
)

// Loader dispatches a table set to a sequence of target specs. Each target's
// failure is recorded in its own result and never aborts the remaining
// targets: this is explicit fan-out with isolated partial failure, not a
// transaction.
type Loader struct {
	registry *Registry
	logger   *zap.Logger
}

// NewLoader creates a loader over the given registry. A nil logger disables
// logging.
func NewLoader(registry *Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{registry: registry, logger: logger}
}

// Load processes the specs in order. Unknown types and failed validations are
// recorded as per-target failures; a Load error from a target is caught and
// converted into a failure carrying the error's message.
func (l *Loader) Load(ctx context.Context, tables map[string]*tabular.Table, specs []Spec) *Report {
	report := &Report{
		Success: true,
		RunID:   uuid.NewString(),
		Results: make(map[string]*Result, len(specs)),
	}

	for _, spec := range specs {
		result := l.loadOne(ctx, tables, spec)
		report.Results[spec.Type] = result
		if !result.Success {
			report.Success = false
		}
	}
	return report
}

func (l *Loader) loadOne(ctx context.Context, tables map[string]*tabular.Table, spec Spec) *Result {
	log := l.logger.With(zap.String("target", spec.Type))

	t, ok := l.registry.Get(spec.Type)
	if !ok {
		log.Warn("unsupported target type")
		return &Result{
			TargetType: spec.Type,
			Error:      fmt.Sprintf("unsupported target type: %s", spec.Type),
		}
	}

	if !t.Validate(ctx, tables, spec.Config) {
		log.Warn("target rejected configuration")
		return &Result{
			TargetType: spec.Type,
			Error:      "invalid configuration or data",
		}
	}

	result, err := t.Load(ctx, tables, spec.Config)
	if err != nil {
		log.Error("target load failed", zap.Error(err))
		return &Result{TargetType: spec.Type, Error: err.Error()}
	}
	if result == nil {
		result = &Result{Success: true}
	}
	result.TargetType = spec.Type
	log.Info("target load complete",
		zap.Int("uploaded_files", len(result.UploadedFiles)),
		zap.Bool("success", result.Success))
	return result
}
