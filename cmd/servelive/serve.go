package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"servelive/internal/api"
	"servelive/internal/config"
	"servelive/internal/files"
	"servelive/internal/live"
	"servelive/internal/logging"
	"servelive/internal/metrics"
	"servelive/internal/watcher"
)

const readHeaderTimeout = 10 * time.Second

// buildHandler wires the watcher backend, change streams and file resolver
// behind the router.
func buildHandler(cfg config.Config, logger *logging.Logger, registry *metrics.Registry) (http.Handler, error) {
	watch, err := watcher.New(cfg.Watcher, watcherOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	subscriber := &live.Subscriber{
		Root:          cfg.Root,
		Watch:         watch,
		Capacity:      cfg.ChannelCapacity,
		RelativePaths: cfg.RelativePaths,
		Logger:        logger,
		Metrics:       registry,
	}
	return api.NewRouter(api.RouterConfig{
		EventPath:   cfg.EventPath,
		MetricsPath: cfg.MetricsPath,
		KeepAlive:   cfg.KeepAlive,
		Subscriber:  subscriber,
		Resolver:    files.NewResolver(cfg.Root),
		Metrics:     registry,
		Logger:      logger,
	}), nil
}

// watcherOptions keeps .git trees out of the watch. Their changes would be
// filtered as noise anyway.
func watcherOptions(cfg config.Config, logger *logging.Logger) watcher.Options {
	return watcher.Options{
		Logger:  logger,
		SkipDir: live.SkipVCSMetadata(cfg.Root),
	}
}

// runServer listens on cfg.Address and serves until ctx ends. Open event
// streams are ended before the server waits for connections to drain. When
// ready is non-nil it receives the bound address once the listener is up.
func runServer(ctx context.Context, cfg config.Config, logger *logging.Logger, ready chan<- net.Addr) error {
	handler, err := buildHandler(cfg, logger, metrics.NewRegistry())
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}

	streams, endStreams := context.WithCancel(context.Background())
	defer endStreams()
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return streams
		},
	}

	logger.Info("serving HTTP", map[string]string{
		"address": listener.Addr().String(),
		"root":    cfg.Root,
		"events":  "/" + cfg.EventPath,
	})
	if ready != nil {
		ready <- listener.Addr()
	}

	runner := &ServerRunner{Logger: logger}
	return runner.Run(ctx, ManagedServer{
		Name: "http",
		Serve: func() error {
			return server.Serve(listener)
		},
		Shutdown: func(shutdownCtx context.Context) error {
			endStreams()
			return server.Shutdown(shutdownCtx)
		},
	})
}
