package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"servelive/internal/logging"
)

const httpServerShutdownTimeout = 5 * time.Second

type ManagedServer struct {
	Name     string
	Serve    func() error
	Shutdown func(context.Context) error
}

type ServerRunner struct {
	Logger          *logging.Logger
	ShutdownTimeout time.Duration
}

// Run serves every server until stop ends or one of them fails, then shuts
// all of them down. The first serve failure is returned.
func (runner *ServerRunner) Run(stop context.Context, servers ...ManagedServer) error {
	group := pool.New().WithContext(stop).WithCancelOnError().WithFirstError()

	for _, server := range servers {
		if server.Serve == nil {
			continue
		}
		group.Go(func(context.Context) error {
			err := server.Serve()
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			runner.Logger.Error("http server stopped", map[string]string{
				"server": server.Name,
				"error":  err.Error(),
			})
			return fmt.Errorf("%s server: %w", server.Name, err)
		})
	}

	group.Go(func(ctx context.Context) error {
		<-ctx.Done()
		runner.shutdown(servers)
		return nil
	})

	return group.Wait()
}

func (runner *ServerRunner) shutdown(servers []ManagedServer) {
	timeout := runner.ShutdownTimeout
	if timeout <= 0 {
		timeout = httpServerShutdownTimeout
	}
	shutdownContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, server := range servers {
		if server.Shutdown == nil {
			continue
		}
		if err := server.Shutdown(shutdownContext); err != nil {
			runner.Logger.Warn(server.Name+" server shutdown failed", map[string]string{
				"error": err.Error(),
			})
		}
	}
}
