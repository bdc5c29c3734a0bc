package api

import (
	"net/http"
	"strings"
	"time"

	"servelive/internal/files"
	"servelive/internal/live"
	"servelive/internal/logging"
	"servelive/internal/metrics"
)

type RouterConfig struct {
	EventPath   string
	MetricsPath string
	KeepAlive   time.Duration
	Subscriber  *live.Subscriber
	Resolver    *files.Resolver
	Metrics     *metrics.Registry
	Logger      *logging.Logger
}

// Router sends GET requests for the event path to the event stream, the
// optional metrics path to the Prometheus handler and everything else to the
// file resolver.
type Router struct {
	eventPath   string
	metricsPath string
	events      http.Handler
	metrics     http.Handler
	files       http.Handler
}

func NewRouter(config RouterConfig) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	events := &EventsHandler{
		Subscriber: config.Subscriber,
		KeepAlive:  config.KeepAlive,
		Logger:     logger.With(map[string]string{"servelive.category": "events"}),
	}
	filesHandler := &FilesHandler{
		Resolver: config.Resolver,
		Logger:   logger.With(map[string]string{"servelive.category": "files"}),
		Metrics:  config.Metrics,
	}

	router := &Router{
		eventPath:   strings.Trim(config.EventPath, "/"),
		metricsPath: strings.Trim(config.MetricsPath, "/"),
		events:      errorBoundary("serve_events", logger, events.serve),
		files:       errorBoundary("serve_file", logger, filesHandler.serve),
	}
	if router.metricsPath != "" && config.Metrics != nil {
		router.metrics = config.Metrics.Handler()
	}
	return loggingMiddleware(logger, router)
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		switch {
		case matchesRoute(r.URL.Path, router.eventPath):
			router.events.ServeHTTP(w, r)
			return
		case router.metrics != nil && matchesRoute(r.URL.Path, router.metricsPath):
			router.metrics.ServeHTTP(w, r)
			return
		}
	}
	router.files.ServeHTTP(w, r)
}

// matchesRoute compares a request path with a configured route, tolerating
// one trailing slash.
func matchesRoute(requestPath, route string) bool {
	if route == "" {
		return false
	}
	trimmed := strings.TrimPrefix(requestPath, "/")
	return trimmed == route || trimmed == route+"/"
}
