package api

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"servelive/internal/logging"
)

const internalErrorPrefix = "Internal server error:\n"

// handlerFunc is a handler that reports unexpected failures instead of
// writing them itself.
type handlerFunc func(http.ResponseWriter, *http.Request) error

// errorBoundary turns a returned error or a panic into a 500 response whose
// body carries the message. If the handler already started its response the
// failure is only logged.
func errorBoundary(component string, logger *logging.Logger, next handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracked := trackResponse(w)
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			logger.Error("handler panic", map[string]string{
				"servelive.component": component,
				"path":                r.URL.Path,
				"stack":               string(debug.Stack()),
			})
			writeInternalError(tracked, fmt.Errorf("%v", recovered))
		}()

		err := next(tracked, r)
		if err == nil {
			return
		}
		logger.Error("handler failed", map[string]string{
			"servelive.component": component,
			"path":                r.URL.Path,
			"error":               err.Error(),
		})
		writeInternalError(tracked, err)
	})
}

func writeInternalError(w *responseTracker, err error) {
	if w.Started() {
		return
	}
	headers := w.Header()
	headers.Del("Content-Length")
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	headers.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, internalErrorPrefix+err.Error())
}
