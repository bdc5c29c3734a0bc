package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrUnknownKey = errors.New("unknown config key")

// Apply overlays values onto the config and records source for every key it
// sets. Values are strings from env or flags, or the decoded types a config
// file produces.
func (c *Config) Apply(values map[string]any, source Source) error {
	if c.Sources == nil {
		c.Sources = make(map[string]Source, len(Keys))
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawKey := range keys {
		key := NormalizeKey(rawKey)
		if err := c.set(key, values[rawKey]); err != nil {
			return fmt.Errorf("%s %s: %w", source, key, err)
		}
		c.Sources[key] = source
	}
	return nil
}

func (c *Config) set(key string, value any) error {
	switch key {
	case KeyAddress:
		return assignString(&c.Address, value)
	case KeyRoot:
		return assignString(&c.Root, value)
	case KeyEventPath:
		return assignString(&c.EventPath, value)
	case KeyMetricsPath:
		return assignString(&c.MetricsPath, value)
	case KeyWatcher:
		return assignString(&c.Watcher, value)
	case KeyLogLevel:
		return assignString(&c.LogLevel, value)
	case KeyKeepAlive:
		parsed, err := asDuration(value)
		if err != nil {
			return err
		}
		c.KeepAlive = parsed
	case KeyChannelCapacity:
		parsed, err := asInt(value)
		if err != nil {
			return err
		}
		c.ChannelCapacity = parsed
	case KeyRelativePaths:
		parsed, err := asBool(value)
		if err != nil {
			return err
		}
		c.RelativePaths = parsed
	default:
		return ErrUnknownKey
	}
	return nil
}

// NormalizeKey maps "event_path", "EVENT-PATH" and "eventpath" style
// spellings onto the canonical dashed key when one matches.
func NormalizeKey(key string) string {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if isKnownKey(normalized) {
		return normalized
	}
	compact := strings.ReplaceAll(normalized, "-", "")
	for _, known := range Keys {
		if strings.ReplaceAll(known, "-", "") == compact {
			return known
		}
	}
	return normalized
}

func isKnownKey(key string) bool {
	for _, known := range Keys {
		if known == key {
			return true
		}
	}
	return false
}

func assignString(target *string, value any) error {
	switch typed := value.(type) {
	case string:
		*target = strings.TrimSpace(typed)
		return nil
	default:
		return fmt.Errorf("expected string, got %T", value)
	}
}

func asInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		if typed != float64(int(typed)) {
			return 0, fmt.Errorf("expected integer, got %v", typed)
		}
		return int(typed), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

func asBool(value any) (bool, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(typed))
	default:
		return false, fmt.Errorf("expected bool, got %T", value)
	}
}

// Bare numbers are read as seconds.
func asDuration(value any) (time.Duration, error) {
	switch typed := value.(type) {
	case time.Duration:
		return typed, nil
	case int, int64, float64:
		seconds, err := asInt(typed)
		if err != nil {
			return 0, err
		}
		return time.Duration(seconds) * time.Second, nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if seconds, err := strconv.Atoi(trimmed); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return time.ParseDuration(trimmed)
	default:
		return 0, fmt.Errorf("expected duration, got %T", value)
	}
}
