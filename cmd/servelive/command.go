package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"servelive/internal/config"
	"servelive/internal/live"
	"servelive/internal/logging"
	"servelive/internal/version"
	"servelive/internal/watcher"
)

type cliFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	Version    bool
}

func newRootCommand(stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *cobra.Command {
	flags := &cliFlags{}
	command := &cobra.Command{
		Use:   "servelive [dir]",
		Short: "Serve a directory over HTTP and stream file changes to browsers",
		Long: "servelive serves the files below a directory and publishes a\n" +
			"files-changed server-sent event (or websocket frame) whenever one of\n" +
			"them changes, so pages can reload themselves while you edit.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Version {
				_, err := fmt.Fprintln(stdout, version.Get().String())
				return err
			}

			cfg, err := loadConfig(cmd.Flags(), args, flags, lookupEnv)
			if err != nil {
				return err
			}

			level, _ := logging.ParseLevel(cfg.LogLevel)
			logger := logging.NewLoggerWithOutput(level, stderr)
			defer logger.Sync()
			logConfigSources(logger, cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			signalCh := make(chan os.Signal, 2)
			signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signalCh)
			stopWatching := watchShutdownSignals(logger, cancel, signalCh)
			defer stopWatching()

			if err := runServer(ctx, cfg, logger, nil); err != nil {
				logger.Error("server failed", map[string]string{"error": err.Error()})
				return err
			}
			return nil
		},
	}
	command.SetOut(stdout)
	command.SetErr(stderr)

	registerFlags(command.Flags(), flags)
	command.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return command
}

func registerFlags(flagSet *pflag.FlagSet, flags *cliFlags) {
	flagSet.SortFlags = false
	flagSet.String(config.KeyAddress, config.DefaultAddress, "address to listen for HTTP requests on")
	flagSet.String(config.KeyEventPath, config.DefaultEventPath, "path for events reporting file changes")
	flagSet.Duration(config.KeyKeepAlive, config.DefaultKeepAlive, "interval between keep-alive frames on event streams")
	flagSet.Int(config.KeyChannelCapacity, live.DefaultChannelCapacity, "queued change events per client before events are dropped")
	flagSet.String(config.KeyWatcher, watcher.BackendFSNotify, "file watching backend (fsnotify or notify)")
	flagSet.Bool(config.KeyRelativePaths, false, "report changed paths relative to the served directory")
	flagSet.String(config.KeyMetricsPath, "", "serve Prometheus metrics on this path (disabled when empty)")
	flagSet.String(config.KeyLogLevel, string(logging.LevelInfo), "log level (debug, info, warning, error)")
	flagSet.StringVarP(&flags.ConfigPath, "config", "c", "", "YAML or TOML config file (also "+configEnvName+")")
	flagSet.BoolVarP(&flags.Verbose, "verbose", "v", false, "log at debug level")
	flagSet.BoolVarP(&flags.Quiet, "quiet", "q", false, "only log errors")
	flagSet.BoolVar(&flags.Version, "version", false, "print the version and exit")
}
