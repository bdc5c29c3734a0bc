package watcher

import (
	"errors"
	"strings"

	"servelive/internal/logging"
)

const (
	BackendFSNotify = "fsnotify"
	BackendNotify   = "notify"
)

var (
	ErrNotDirectory      = errors.New("watch root is not a directory")
	ErrUnknownBackend    = errors.New("unknown watcher backend")
	errCallbackRequired  = errors.New("callback is required")
	errWatchRootRequired = errors.New("watch root is required")
)

// Op describes what happened to the paths of an Event.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) Has(other Op) bool {
	return op&other != 0
}

func (op Op) String() string {
	if op == 0 {
		return "none"
	}
	names := make([]string, 0, 5)
	if op.Has(OpCreate) {
		names = append(names, "create")
	}
	if op.Has(OpWrite) {
		names = append(names, "write")
	}
	if op.Has(OpRemove) {
		names = append(names, "remove")
	}
	if op.Has(OpRename) {
		names = append(names, "rename")
	}
	if op.Has(OpChmod) {
		names = append(names, "chmod")
	}
	return strings.Join(names, "|")
}

// Event represents one raw change notification, or a watcher error when Err
// is set.
type Event struct {
	Paths []string
	Op    Op
	Err   error
}

// Handle releases an active watch.
type Handle interface {
	// Close stops the watch. No callback runs after Close returns. It must
	// not be called from inside the callback.
	Close() error
	// Done is closed once the last callback has returned.
	Done() <-chan struct{}
}

// Watch registers a recursive watch on root.
type Watch interface {
	Watch(root string, callback func(Event)) (Handle, error)
}

// Options controls watcher behavior.
type Options struct {
	Logger *logging.Logger
	// SkipDir reports directories whose subtree should not be watched. Only
	// the fsnotify backend walks the tree itself; notify ignores it.
	SkipDir func(path string) bool
}

// Metrics reports backend-wide watch statistics.
type Metrics struct {
	ActiveWatches   int64
	WatchedDirs     int64
	EventsDelivered uint64
	Errors          uint64
	Restarts        uint64
}

// New returns the backend registered under name.
func New(name string, options Options) (Watch, error) {
	switch strings.TrimSpace(name) {
	case "", BackendFSNotify:
		return NewFSNotify(options), nil
	case BackendNotify:
		return NewNotify(options), nil
	default:
		return nil, ErrUnknownBackend
	}
}
