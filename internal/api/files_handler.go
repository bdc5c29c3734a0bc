package api

import (
	"io"
	"net/http"
	"strings"

	"servelive/internal/files"
	"servelive/internal/logging"
	"servelive/internal/metrics"
)

type FilesHandler struct {
	Resolver *files.Resolver
	Logger   *logging.Logger
	Metrics  *metrics.Registry
}

func (h *FilesHandler) serve(w http.ResponseWriter, r *http.Request) error {
	tail := strings.TrimPrefix(r.URL.Path, "/")
	target := h.Resolver.Resolve(tail)
	h.Metrics.RecordFileResponse(target.Status())

	switch resolved := target.(type) {
	case files.Redirect:
		h.Logger.Debug("redirecting to directory", map[string]string{
			"location": resolved.Location,
		})
		http.Redirect(w, r, resolved.Location, resolved.Status())
	case files.FileBody:
		headers := w.Header()
		if resolved.ContentType != "" {
			headers.Set("Content-Type", resolved.ContentType)
		} else {
			// Suppress sniffing so the client decides.
			headers["Content-Type"] = nil
		}
		w.WriteHeader(resolved.Status())
		if _, err := w.Write(resolved.Body); err != nil {
			h.Logger.Debug("write file response failed", map[string]string{
				"path":  resolved.Path,
				"error": err.Error(),
			})
		}
	case files.Failure:
		fields := map[string]string{
			"tail": tail,
			"path": resolved.Path,
		}
		if resolved.Err != nil {
			fields["error"] = resolved.Err.Error()
		}
		h.Logger.Error("serve file failed", fields)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(resolved.Status())
		_, _ = io.WriteString(w, resolved.Message)
	}
	return nil
}
