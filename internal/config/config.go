// Package config provides environment defaults and pipeline-spec loading for
// the synthctl tooling.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dataforge/synthcore/internal/target"
)

// Config holds tool-level settings loaded from the environment.
type Config struct {
	// WorkspaceDir is the default output directory for generated tables.
	WorkspaceDir string

	// TableSuffix is the binding-name convention the sandbox harvests.
	TableSuffix string

	// Integrity heuristics.
	ForeignKeySuffix       string
	MaxDeterminantDistinct int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		WorkspaceDir:           getEnv("SYNTH_WORKSPACE_DIR", "./workspace"),
		TableSuffix:            getEnv("SYNTH_TABLE_SUFFIX", "_df"),
		ForeignKeySuffix:       getEnv("SYNTH_FK_SUFFIX", "_id"),
		MaxDeterminantDistinct: getEnvInt("SYNTH_FD_MAX_DISTINCT", 50),
	}
}

// Pipeline is the on-disk spec for a load run: an ordered list of target
// specs, interpreted only by the matching targets.
type Pipeline struct {
	Targets []target.Spec `yaml:"targets"`
}

// LoadPipeline parses a YAML pipeline spec.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline spec: %w", err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline spec %s: %w", path, err)
	}
	return &p, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
