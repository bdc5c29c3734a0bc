package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"servelive/internal/config"
	"servelive/internal/logging"
)

const configEnvName = "SERVELIVE_CONFIG"

// loadConfig layers defaults, the config file, SERVELIVE_* variables and
// explicitly set flags, in that order. The positional directory counts as a
// flag.
func loadConfig(flagSet *pflag.FlagSet, args []string, flags *cliFlags, lookupEnv func(string) (string, bool)) (config.Config, error) {
	cfg := config.Defaults()

	configPath := strings.TrimSpace(flags.ConfigPath)
	if configPath == "" && lookupEnv != nil {
		if value, ok := lookupEnv(configEnvName); ok {
			configPath = strings.TrimSpace(value)
		}
	}
	if configPath != "" {
		values, err := config.LoadFile(configPath)
		if err != nil {
			return config.Config{}, err
		}
		if err := cfg.Apply(values, config.SourceFile); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.Apply(config.EnvValues(lookupEnv), config.SourceEnv); err != nil {
		return config.Config{}, err
	}

	flagValues := changedFlagValues(flagSet)
	if len(args) > 0 {
		flagValues[config.KeyRoot] = args[0]
	}
	switch {
	case flags.Verbose:
		flagValues[config.KeyLogLevel] = string(logging.LevelDebug)
	case flags.Quiet:
		flagValues[config.KeyLogLevel] = string(logging.LevelError)
	}
	if err := cfg.Apply(flagValues, config.SourceFlag); err != nil {
		return config.Config{}, fmt.Errorf("invalid flag: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// changedFlagValues returns the config keys the user passed on the command
// line, as their string form.
func changedFlagValues(flagSet *pflag.FlagSet) map[string]any {
	values := map[string]any{}
	if flagSet == nil {
		return values
	}
	keys := make(map[string]bool, len(config.Keys))
	for _, key := range config.Keys {
		keys[key] = true
	}
	flagSet.Visit(func(flag *pflag.Flag) {
		if keys[flag.Name] {
			values[flag.Name] = flag.Value.String()
		}
	})
	return values
}

func logConfigSources(logger *logging.Logger, cfg config.Config) {
	if !logger.Enabled(logging.LevelDebug) {
		return
	}
	values := map[string]string{
		config.KeyAddress:         cfg.Address,
		config.KeyRoot:            cfg.Root,
		config.KeyEventPath:       cfg.EventPath,
		config.KeyKeepAlive:       cfg.KeepAlive.String(),
		config.KeyChannelCapacity: fmt.Sprint(cfg.ChannelCapacity),
		config.KeyWatcher:         cfg.Watcher,
		config.KeyRelativePaths:   fmt.Sprint(cfg.RelativePaths),
		config.KeyMetricsPath:     cfg.MetricsPath,
		config.KeyLogLevel:        cfg.LogLevel,
	}
	for _, key := range config.Keys {
		logger.Debug("config value", map[string]string{
			"key":    key,
			"value":  values[key],
			"source": string(cfg.Source(key)),
		})
	}
}
