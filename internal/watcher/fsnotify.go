package watcher

import (
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"

	"servelive/internal/logging"
)

// FSNotify watches trees by adding every directory to an fsnotify watcher,
// including directories created after the watch started. A watch that reports
// an error (an inotify queue overflow, typically) is rebuilt from a fresh walk
// of the tree with exponential backoff.
type FSNotify struct {
	logger      *logging.Logger
	skipDir     func(string) bool
	counters    counters
	newSource   func() (*fsnotify.Watcher, error)
	restartBase time.Duration
}

func NewFSNotify(options Options) *FSNotify {
	return &FSNotify{
		logger:      withWatcherFields(options.Logger),
		skipDir:     options.SkipDir,
		newSource:   fsnotify.NewWatcher,
		restartBase: restartBaseDelay,
	}
}

func (backend *FSNotify) Metrics() Metrics {
	if backend == nil {
		return Metrics{}
	}
	return backend.counters.snapshot()
}

func (backend *FSNotify) Watch(root string, callback func(Event)) (Handle, error) {
	if err := checkRoot(root, callback); err != nil {
		return nil, err
	}

	source, err := backend.newSource()
	if err != nil {
		return nil, err
	}

	watch := &fsnotifyWatch{
		session:     newSession(root, callback, &backend.counters, backend.logger),
		source:      source,
		skipDir:     backend.skipDir,
		newSource:   backend.newSource,
		restartBase: backend.restartBase,
	}
	added, err := watch.addTree(source, root)
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	watch.dirs = added
	watch.counters.dirs.Add(added)
	watch.release = watch.closeSource

	backend.counters.active.Add(1)
	watch.logDebug("watch added", map[string]string{
		"backend": BackendFSNotify,
		"dirs":    strconv.FormatInt(added, 10),
	})
	go watch.run()
	return watch, nil
}

// fsnotifyWatch fields below session are owned by the run goroutine until it
// exits; release reads them afterwards.
type fsnotifyWatch struct {
	*session
	source      *fsnotify.Watcher
	skipDir     func(string) bool
	dirs        int64
	newSource   func() (*fsnotify.Watcher, error)
	restartBase time.Duration

	restartTimer    *time.Timer
	restartAttempts int
	abandoned       bool
}

func (watch *fsnotifyWatch) run() {
	defer close(watch.done)
	defer watch.counters.active.Add(-1)
	defer watch.stopRestartTimer()

	for {
		source := watch.source
		var restartC <-chan time.Time
		if watch.restartTimer != nil {
			restartC = watch.restartTimer.C
		}

		select {
		case <-watch.stop:
			return
		case <-restartC:
			watch.performRestart()
		case event, ok := <-source.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				watch.addCreated(event.Name)
			}
			watch.deliver(Event{
				Paths: []string{event.Name},
				Op:    convertFSNotifyOp(event.Op),
			})
		case err, ok := <-source.Errors:
			if !ok {
				return
			}
			watch.deliver(Event{Err: err})
			watch.scheduleRestart(err)
		}
	}
}

// addTree adds root and its subdirectories to source and returns how many
// were added, including on failure.
func (watch *fsnotifyWatch) addTree(source *fsnotify.Watcher, root string) (int64, error) {
	dirs, err := collectRecursiveDirs(root, watch.skipDir)
	if err != nil {
		return 0, err
	}
	var added int64
	for _, dir := range dirs {
		if err := source.Add(dir); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// addCreated extends the watch to a directory that appeared under the root.
func (watch *fsnotifyWatch) addCreated(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if watch.skipDir != nil && watch.skipDir(path) {
		return
	}
	added, err := watch.addTree(watch.source, path)
	watch.dirs += added
	watch.counters.dirs.Add(added)
	if err != nil {
		watch.logWarn("watch add failed", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
	}
}

func (watch *fsnotifyWatch) closeSource() error {
	err := watch.source.Close()
	watch.counters.dirs.Add(-watch.dirs)
	watch.dirs = 0
	return err
}

func convertFSNotifyOp(op fsnotify.Op) Op {
	var converted Op
	if op.Has(fsnotify.Create) {
		converted |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		converted |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		converted |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		converted |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		converted |= OpChmod
	}
	return converted
}
