package api

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"servelive/internal/files"
	"servelive/internal/live"
	"servelive/internal/logging"
	"servelive/internal/metrics"
	"servelive/internal/watcher"
)

type sseFrame struct {
	Event string
	Data  []byte
}

// scriptedWatch hands out handles whose callbacks the test drives. Prelude
// events are delivered inside Watch, before any consumer exists. Callbacks
// run under a mutex, matching the single-goroutine delivery of real
// backends.
type scriptedWatch struct {
	mu       sync.Mutex
	prelude  [][]string
	callback func(watcher.Event)
	handles  []*scriptedHandle
	started  chan struct{}
}

func newScriptedWatch(prelude ...[]string) *scriptedWatch {
	return &scriptedWatch{prelude: prelude, started: make(chan struct{}, 16)}
}

func (watch *scriptedWatch) Watch(root string, callback func(watcher.Event)) (watcher.Handle, error) {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	watch.callback = callback
	handle := &scriptedHandle{done: make(chan struct{})}
	watch.handles = append(watch.handles, handle)
	for _, paths := range watch.prelude {
		callback(watcher.Event{Paths: paths, Op: watcher.OpWrite})
	}
	watch.started <- struct{}{}
	return handle, nil
}

func (watch *scriptedWatch) emit(paths ...string) {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	watch.callback(watcher.Event{Paths: paths, Op: watcher.OpWrite})
}

func (watch *scriptedWatch) handle(index int) *scriptedHandle {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.handles[index]
}

type scriptedHandle struct {
	once   sync.Once
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func (handle *scriptedHandle) Close() error {
	handle.mu.Lock()
	handle.closed = true
	handle.mu.Unlock()
	handle.end()
	return nil
}

func (handle *scriptedHandle) Done() <-chan struct{} {
	return handle.done
}

func (handle *scriptedHandle) end() {
	handle.once.Do(func() {
		close(handle.done)
	})
}

func (handle *scriptedHandle) isClosed() bool {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.closed
}

type testSite struct {
	root    string
	watch   *scriptedWatch
	metrics *metrics.Registry
	server  *httptest.Server
}

func newTestSite(t *testing.T, config RouterConfig, watch *scriptedWatch) *testSite {
	t.Helper()
	root := t.TempDir()
	writeSiteFile(t, root, "index.html", "<h1>home</h1>")
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	registry := metrics.NewRegistry()
	config.Resolver = files.NewResolver(root)
	config.Metrics = registry
	if config.EventPath == "" {
		config.EventPath = "events"
	}
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}
	if config.Subscriber == nil {
		config.Subscriber = &live.Subscriber{
			Root:    root,
			Watch:   watch,
			Logger:  config.Logger,
			Metrics: registry,
		}
	}

	site := &testSite{
		root:    root,
		watch:   watch,
		metrics: registry,
		server:  newTestServer(t, NewRouter(config)),
	}
	t.Cleanup(site.server.Close)
	return site
}

func writeSiteFile(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping http test (listener unavailable): %v", err)
	}
	server := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	server.Start()
	return server
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readSSEFrame(reader *bufio.Reader) (sseFrame, error) {
	var frame sseFrame
	var dataLines []string

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return frame, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(dataLines) > 0 || frame.Event != "" {
				frame.Data = []byte(strings.Join(dataLines, "\n"))
				return frame, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "event:") {
			frame.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}

func changeCount(t *testing.T, registry *metrics.Registry, outcome string) float64 {
	t.Helper()
	families, err := registry.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "servelive_change_events_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabel(metric, "outcome", outcome) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
