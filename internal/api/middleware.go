package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"servelive/internal/logging"
)

var errHijackUnsupported = errors.New("response writer does not support hijacking")

// responseTracker records the status code written through it. It passes
// flushing and hijacking through so streaming and websocket handlers keep
// working behind it.
type responseTracker struct {
	http.ResponseWriter
	status int
}

func trackResponse(w http.ResponseWriter) *responseTracker {
	if tracked, ok := w.(*responseTracker); ok {
		return tracked
	}
	return &responseTracker{ResponseWriter: w}
}

func (w *responseTracker) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseTracker) Flush() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseTracker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return hijacker.Hijack()
}

func (w *responseTracker) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Started reports whether a status line has gone out.
func (w *responseTracker) Started() bool {
	return w.status != 0
}

func (w *responseTracker) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		tracked := trackResponse(w)
		next.ServeHTTP(tracked, r)
		logger.Debug("http request", map[string]string{
			"servelive.category": "http",
			"method":             r.Method,
			"path":               r.URL.Path,
			"status":             strconv.Itoa(tracked.Status()),
			"duration":           time.Since(started).String(),
		})
	})
}
