package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"servelive/internal/live"
	"servelive/internal/logging"
)

const DefaultKeepAlive = 600 * time.Second

// EventsHandler streams files-changed notifications. Every request gets its
// own watch, released when the client goes away or the watch ends.
type EventsHandler struct {
	Subscriber *live.Subscriber
	KeepAlive  time.Duration
	Logger     *logging.Logger
}

func (h *EventsHandler) serve(w http.ResponseWriter, r *http.Request) error {
	scoped, err := h.Subscriber.Subscribe(r.Context())
	if err != nil {
		return fmt.Errorf("subscribe to file changes: %w", err)
	}
	defer scoped.Close()

	logger := h.Logger
	ctx := r.Context()

	if websocket.IsWebSocketUpgrade(r) {
		conn, err := upgradeWebSocket(w, r)
		if err != nil {
			logWSUpgradeError(logger, r, err)
			return nil
		}
		defer conn.Close()

		err = runWSStream(ctx, wsStreamConfig{
			Conn:         conn,
			Output:       scoped.Items(ctx),
			EventName:    live.EventName,
			PingInterval: h.keepAlive(),
		})
		logStreamEnd(logger, r, "websocket", err)
		return nil
	}

	writer, err := startSSEWriter(w)
	if err != nil {
		return err
	}
	err = runSSEStream(ctx, writer, sseStreamConfig{
		Output:            scoped.Items(ctx),
		EventName:         live.EventName,
		HeartbeatInterval: h.keepAlive(),
	})
	logStreamEnd(logger, r, "sse", err)
	return nil
}

func (h *EventsHandler) keepAlive() time.Duration {
	if h.KeepAlive <= 0 {
		return DefaultKeepAlive
	}
	return h.KeepAlive
}
