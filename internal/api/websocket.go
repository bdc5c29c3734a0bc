package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"servelive/internal/logging"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

// wsEventFrame mirrors an SSE frame: the event name and its JSON payload.
type wsEventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsStreamConfig struct {
	Conn         *websocket.Conn
	Output       <-chan []byte
	EventName    string
	PingInterval time.Duration
	WriteTimeout time.Duration
}

func upgradeWebSocket(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin:     isSameOrigin,
	}
	return upgrader.Upgrade(w, r, nil)
}

// isSameOrigin accepts clients without an Origin header and pages served by
// this host.
func isSameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}

// runWSStream writes one text frame per payload and pings on every interval.
// A reader goroutine drains client frames so close frames are noticed.
func runWSStream(ctx context.Context, config wsStreamConfig) error {
	conn := config.Conn
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = wsWriteTimeout
	}
	pingTicker := time.NewTicker(config.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		case payload, ok := <-config.Output:
			if !ok {
				deadline := time.Now().Add(writeTimeout)
				closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "watch ended")
				_ = conn.WriteControl(websocket.CloseMessage, closeMessage, deadline)
				return nil
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return err
			}
			if err := conn.WriteJSON(wsEventFrame{Event: config.EventName, Data: payload}); err != nil {
				return err
			}
		}
	}
}

func logWSUpgradeError(logger *logging.Logger, r *http.Request, err error) {
	fields := map[string]string{
		"path":   r.URL.Path,
		"status": strconv.Itoa(http.StatusBadRequest),
		"error":  err.Error(),
	}
	if r.RemoteAddr != "" {
		fields["remote_addr"] = r.RemoteAddr
	}
	if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
		fields["user_agent"] = userAgent
	}
	logger.Warn("websocket upgrade failed", fields)
}
