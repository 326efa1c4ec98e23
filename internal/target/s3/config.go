package s3

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Formats accepted by the target.
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// PartitioningConfig splits tables into sub-tables keyed by the distinct
// value-combinations of Columns. With DropColumns set the partition columns
// are removed from the written content; their values are already encoded in
// the object key.
type PartitioningConfig struct {
	Enabled     bool
	Columns     []string
	DropColumns bool
}

// Config captures the s3 target configuration parsed from a loose mapping.
type Config struct {
	Bucket       string
	Prefix       string
	Format       string
	StorageClass string
	Encryption   string
	Compression  string
	Partitioning PartitioningConfig
	Metadata     map[string]string

	// Client settings; default from SYNTH_S3_* environment variables.
	EndpointURL     string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// ParseConfig builds a Config from loose parameters.
func ParseConfig(params map[string]any) *Config {
	cfg := &Config{
		Bucket:          firstString(params, "bucket"),
		Prefix:          firstString(params, "prefix"),
		Format:          strings.ToLower(firstString(params, "format")),
		Compression:     strings.ToLower(firstString(params, "compression")),
		Metadata:        stringMap(params, "metadata"),
		EndpointURL:     firstString(params, "endpoint", "endpoint_url", "endpointUrl"),
		Region:          firstString(params, "region"),
		AccessKeyID:     firstString(params, "access_key_id", "accessKeyId"),
		SecretAccessKey: firstString(params, "secret_access_key", "secretAccessKey"),
		UseSSL:          firstBool(params, false, "use_ssl", "useSSL"),
	}

	if storage, ok := params["storage"].(map[string]any); ok {
		cfg.StorageClass = firstString(storage, "class")
		cfg.Encryption = firstString(storage, "encryption")
	}
	if part, ok := params["partitioning"].(map[string]any); ok {
		cfg.Partitioning = PartitioningConfig{
			Enabled:     firstBool(part, false, "enabled"),
			Columns:     firstStringSlice(part, "columns"),
			DropColumns: firstBool(part, false, "drop_columns", "dropColumns"),
		}
	}

	cfg.applyEnvDefaults()
	return cfg
}

// Validate reports whether the configuration is usable: non-empty bucket and
// prefix, and a supported format. It is pure and has no side effects.
func (c *Config) Validate() bool {
	if c.Bucket == "" || c.Prefix == "" {
		return false
	}
	switch c.Format {
	case FormatCSV, FormatJSON, FormatParquet:
		return true
	default:
		return false
	}
}

func (c *Config) applyEnvDefaults() {
	if c.EndpointURL == "" {
		c.EndpointURL = os.Getenv("SYNTH_S3_ENDPOINT")
	}
	if c.Region == "" {
		c.Region = os.Getenv("SYNTH_S3_REGION")
	}
	if c.AccessKeyID == "" {
		c.AccessKeyID = os.Getenv("SYNTH_S3_ACCESS_KEY_ID")
	}
	if c.SecretAccessKey == "" {
		c.SecretAccessKey = os.Getenv("SYNTH_S3_SECRET_ACCESS_KEY")
	}
}

// objectRoot resolves the directory backing the local store fallback.
func (c *Config) objectRoot() string {
	host := c.EndpointURL
	if host == "" {
		host = "local"
	}
	return filepath.Join(os.TempDir(), "s3-store-"+sanitizeSegment(host))
}

func firstString(params map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case fmt.Stringer:
				return strings.TrimSpace(t.String())
			}
		}
	}
	return ""
}

func firstBool(params map[string]any, defaultVal bool, keys ...string) bool {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			switch t := v.(type) {
			case bool:
				return t
			case string:
				switch strings.ToLower(strings.TrimSpace(t)) {
				case "true":
					return true
				case "false":
					return false
				}
			}
		}
	}
	return defaultVal
}

func firstStringSlice(params map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch t := params[key].(type) {
		case []string:
			return t
		case []any:
			out := make([]string, 0, len(t))
			for _, v := range t {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

func stringMap(params map[string]any, key string) map[string]string {
	raw, ok := params[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func sanitizeSegment(raw string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "=", "_")
	return replacer.Replace(raw)
}
