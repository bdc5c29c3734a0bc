package config

import (
	"time"

	"servelive/internal/live"
	"servelive/internal/logging"
	"servelive/internal/watcher"
)

type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

const (
	KeyAddress         = "address"
	KeyRoot            = "root"
	KeyEventPath       = "event-path"
	KeyKeepAlive       = "keep-alive"
	KeyChannelCapacity = "channel-capacity"
	KeyWatcher         = "watcher"
	KeyRelativePaths   = "relative-paths"
	KeyMetricsPath     = "metrics-path"
	KeyLogLevel        = "log-level"
)

// Keys lists every configurable key in display order.
var Keys = []string{
	KeyAddress,
	KeyRoot,
	KeyEventPath,
	KeyKeepAlive,
	KeyChannelCapacity,
	KeyWatcher,
	KeyRelativePaths,
	KeyMetricsPath,
	KeyLogLevel,
}

const (
	DefaultAddress   = "0.0.0.0:3000"
	DefaultRoot      = "."
	DefaultEventPath = "events"
	DefaultKeepAlive = 600 * time.Second
)

type Config struct {
	Address         string        `validate:"required,listen_addr"`
	Root            string        `validate:"required,dir"`
	EventPath       string        `validate:"required,excludesall=?#"`
	KeepAlive       time.Duration `validate:"gt=0"`
	ChannelCapacity int           `validate:"min=1"`
	Watcher         string        `validate:"oneof=fsnotify notify"`
	RelativePaths   bool
	MetricsPath     string `validate:"omitempty,excludesall=?#,nefield=EventPath"`
	LogLevel        string `validate:"oneof=debug info warning warn error"`
	Sources         map[string]Source
}

func Defaults() Config {
	cfg := Config{
		Address:         DefaultAddress,
		Root:            DefaultRoot,
		EventPath:       DefaultEventPath,
		KeepAlive:       DefaultKeepAlive,
		ChannelCapacity: live.DefaultChannelCapacity,
		Watcher:         watcher.BackendFSNotify,
		LogLevel:        string(logging.LevelInfo),
		Sources:         make(map[string]Source, len(Keys)),
	}
	for _, key := range Keys {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Source reports where the current value of key came from.
func (c Config) Source(key string) Source {
	if source, ok := c.Sources[key]; ok {
		return source
	}
	return SourceDefault
}
