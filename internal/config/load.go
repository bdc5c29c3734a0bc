package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported config file format")

// LoadFile reads a YAML or TOML config file, chosen by extension, into flat
// key values ready for Apply.
func LoadFile(path string) (map[string]any, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		values, err = decodeYAML(payload)
	case ".toml":
		values, err = decodeTOML(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	if err := checkKeys(values); err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	return values, nil
}

func decodeYAML(payload []byte) (map[string]any, error) {
	values := map[string]any{}
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return values, nil
}

func decodeTOML(payload []byte) (map[string]any, error) {
	values := map[string]any{}
	if _, err := toml.Decode(string(payload), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func checkKeys(values map[string]any) error {
	var unknown []string
	for key := range values {
		if !isKnownKey(NormalizeKey(key)) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
}
