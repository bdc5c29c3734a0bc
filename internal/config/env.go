package config

import (
	"os"
	"strings"
)

const EnvPrefix = "SERVELIVE_"

// EnvName returns the environment variable read for key, for example
// SERVELIVE_EVENT_PATH for event-path.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// EnvValues collects the non-empty SERVELIVE_* variables. A nil lookup reads
// the process environment.
func EnvValues(lookup func(string) (string, bool)) map[string]any {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	values := map[string]any{}
	for _, key := range Keys {
		raw, ok := lookup(EnvName(key))
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		values[key] = raw
	}
	return values
}
