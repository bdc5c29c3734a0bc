package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"servelive/internal/config"
)

func parseTestFlags(t *testing.T, args ...string) (*pflag.FlagSet, *cliFlags) {
	t.Helper()
	flags := &cliFlags{}
	flagSet := pflag.NewFlagSet("servelive", pflag.ContinueOnError)
	registerFlags(flagSet, flags)
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flagSet, flags
}

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	root := t.TempDir()
	flagSet, flags := parseTestFlags(t)

	cfg, err := loadConfig(flagSet, []string{root}, flags, envLookup(nil))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Address != "0.0.0.0:3000" || cfg.EventPath != "events" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.KeepAlive != 600*time.Second {
		t.Fatalf("expected 600s keep-alive, got %s", cfg.KeepAlive)
	}
	if cfg.Source(config.KeyAddress) != config.SourceDefault {
		t.Fatalf("expected default address source, got %s", cfg.Source(config.KeyAddress))
	}
	if cfg.Source(config.KeyRoot) != config.SourceFlag {
		t.Fatalf("expected positional root to count as a flag, got %s", cfg.Source(config.KeyRoot))
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "servelive.toml")
	payload := "address = \"127.0.0.1:4000\"\nevent-path = \"file\"\nwatcher = \"notify\"\n"
	if err := os.WriteFile(configPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flagSet, flags := parseTestFlags(t, "--event-path", "flag", "--keep-alive", "5s")
	env := envLookup(map[string]string{
		"SERVELIVE_CONFIG":     configPath,
		"SERVELIVE_EVENT_PATH": "env",
		"SERVELIVE_WATCHER":    "fsnotify",
	})

	cfg, err := loadConfig(flagSet, []string{root}, flags, env)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Address != "127.0.0.1:4000" || cfg.Source(config.KeyAddress) != config.SourceFile {
		t.Fatalf("expected address from file, got %q (%s)", cfg.Address, cfg.Source(config.KeyAddress))
	}
	if cfg.Watcher != "fsnotify" || cfg.Source(config.KeyWatcher) != config.SourceEnv {
		t.Fatalf("expected watcher from env, got %q (%s)", cfg.Watcher, cfg.Source(config.KeyWatcher))
	}
	if cfg.EventPath != "flag" || cfg.Source(config.KeyEventPath) != config.SourceFlag {
		t.Fatalf("expected event path from flag, got %q (%s)", cfg.EventPath, cfg.Source(config.KeyEventPath))
	}
	if cfg.KeepAlive != 5*time.Second {
		t.Fatalf("expected keep-alive flag, got %s", cfg.KeepAlive)
	}
}

func TestLoadConfigVerboseAndQuiet(t *testing.T) {
	root := t.TempDir()

	flagSet, flags := parseTestFlags(t, "--verbose", "--log-level", "error")
	cfg, err := loadConfig(flagSet, []string{root}, flags, envLookup(nil))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected verbose to win, got %q", cfg.LogLevel)
	}

	flagSet, flags = parseTestFlags(t, "-q")
	cfg, err = loadConfig(flagSet, []string{root}, flags, envLookup(nil))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected quiet to select error, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigRejectsFileRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	flagSet, flags := parseTestFlags(t)
	if _, err := loadConfig(flagSet, []string{file}, flags, envLookup(nil)); err == nil {
		t.Fatal("expected error for a root that is not a directory")
	}
}

func TestLoadConfigRejectsBadAddress(t *testing.T) {
	flagSet, flags := parseTestFlags(t, "--address", "nowhere")
	if _, err := loadConfig(flagSet, []string{t.TempDir()}, flags, envLookup(nil)); err == nil {
		t.Fatal("expected error for an unparsable address")
	}
}
