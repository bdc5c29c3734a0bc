package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"servelive/internal/logging"
)

const cacheControlNoStore = "no-store, must-revalidate"

var errSSENoFlusher = errors.New("sse response writer does not support flushing")

type sseStreamConfig struct {
	Output            <-chan []byte
	EventName         string
	HeartbeatInterval time.Duration
}

type sseWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

func startSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errSSENoFlusher
	}

	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", cacheControlNoStore)
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")

	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{writer: w, flusher: flusher}, nil
}

// runSSEStream copies encoded payloads to the client until Output closes,
// ctx ends or a write fails. A comment frame is sent on every heartbeat so
// proxies keep the connection open.
func runSSEStream(ctx context.Context, writer *sseWriter, config sseStreamConfig) error {
	if writer == nil || config.Output == nil {
		return nil
	}

	heartbeatTicker := time.NewTicker(config.HeartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeatTicker.C:
			if err := writer.WriteComment("keep-alive"); err != nil {
				return err
			}
		case payload, ok := <-config.Output:
			if !ok {
				return nil
			}
			if err := writer.WriteEvent(config.EventName, payload); err != nil {
				return err
			}
		}
	}
}

func (writer *sseWriter) WriteComment(comment string) error {
	if _, err := io.WriteString(writer.writer, ": "+strings.TrimSpace(comment)+"\n\n"); err != nil {
		return err
	}
	writer.flusher.Flush()
	return nil
}

// WriteEvent writes data as-is; it must already be encoded.
func (writer *sseWriter) WriteEvent(eventName string, data []byte) error {
	if eventName != "" {
		if _, err := io.WriteString(writer.writer, "event: "+eventName+"\n"); err != nil {
			return err
		}
	}
	if err := writeSSEData(writer.writer, data); err != nil {
		return err
	}
	writer.flusher.Flush()
	return nil
}

func writeSSEData(writer io.Writer, data []byte) error {
	if len(data) == 0 {
		_, err := io.WriteString(writer, "data:\n\n")
		return err
	}

	for _, line := range bytes.Split(data, []byte("\n")) {
		if _, err := io.WriteString(writer, "data: "); err != nil {
			return err
		}
		if _, err := writer.Write(line); err != nil {
			return err
		}
		if _, err := io.WriteString(writer, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(writer, "\n")
	return err
}

func logStreamEnd(logger *logging.Logger, r *http.Request, transport string, err error) {
	fields := map[string]string{
		"path":      r.URL.Path,
		"transport": transport,
	}
	if r.RemoteAddr != "" {
		fields["remote_addr"] = r.RemoteAddr
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.Debug("event stream ended", fields)
}
