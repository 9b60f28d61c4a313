package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Existing environment variables win. Errors are ignored.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// loadTOMLFile reads a flat TOML document whose keys are env var names and
// exports every key that is not already set. Nested tables are flattened with
// an underscore, so [s3] bucket = "x" becomes S3_BUCKET.
func loadTOMLFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	for key, val := range flatten("", doc) {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return err
		}
	}
	return nil
}

func flatten(prefix string, doc map[string]any) map[string]string {
	out := make(map[string]string)
	for k, v := range doc {
		key := strings.ToUpper(strings.TrimSpace(k))
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			for nk, nv := range flatten(key, val) {
				out[nk] = nv
			}
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return out
}
