package watcher

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"servelive/internal/logging"
)

type counters struct {
	active     atomic.Int64
	dirs       atomic.Int64
	delivered  atomic.Uint64
	errorCount atomic.Uint64
	restarts   atomic.Uint64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		ActiveWatches:   c.active.Load(),
		WatchedDirs:     c.dirs.Load(),
		EventsDelivered: c.delivered.Load(),
		Errors:          c.errorCount.Load(),
		Restarts:        c.restarts.Load(),
	}
}

// session is the Handle shared by all backends. The backend loop calls
// deliver; release tears down the OS resources once the loop has exited.
type session struct {
	root      string
	callback  func(Event)
	counters  *counters
	logger    *logging.Logger
	stop      chan struct{}
	done      chan struct{}
	release   func() error
	closeOnce sync.Once
	closeErr  error
}

func newSession(root string, callback func(Event), counters *counters, logger *logging.Logger) *session {
	return &session{
		root:     root,
		callback: callback,
		counters: counters,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		if s.release != nil {
			s.closeErr = s.release()
		}
		s.logDebug("watch closed", nil)
	})
	return s.closeErr
}

func (s *session) Done() <-chan struct{} {
	return s.done
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *session) deliver(event Event) {
	if s.stopped() {
		return
	}
	if event.Err != nil {
		s.counters.errorCount.Add(1)
	} else {
		s.counters.delivered.Add(1)
	}
	s.callback(event)
}

func (s *session) logDebug(message string, fields map[string]string) {
	if s.logger == nil {
		return
	}
	merged := map[string]string{
		"root":           s.root,
		"active_watches": strconv.FormatInt(s.counters.active.Load(), 10),
	}
	for key, value := range fields {
		merged[key] = value
	}
	s.logger.Debug(message, merged)
}

func (s *session) logWarn(message string, fields map[string]string) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(message, fields)
}

func checkRoot(root string, callback func(Event)) error {
	if root == "" {
		return errWatchRootRequired
	}
	if callback == nil {
		return errCallbackRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return nil
}

func withWatcherFields(logger *logging.Logger) *logging.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger.With(map[string]string{
		"servelive.category": "watcher",
	})
}
