package watcher

import (
	"path/filepath"

	"github.com/rjeczalik/notify"

	"servelive/internal/logging"
)

const notifyEventsBufferSize = 64

// Notify uses the platform's native recursive watch where one exists
// (FSEvents, ReadDirectoryChangesW) and falls back to notify's own tree
// walking elsewhere.
type Notify struct {
	logger   *logging.Logger
	counters counters
}

func NewNotify(options Options) *Notify {
	return &Notify{logger: withWatcherFields(options.Logger)}
}

func (backend *Notify) Metrics() Metrics {
	if backend == nil {
		return Metrics{}
	}
	return backend.counters.snapshot()
}

func (backend *Notify) Watch(root string, callback func(Event)) (Handle, error) {
	if err := checkRoot(root, callback); err != nil {
		return nil, err
	}

	events := make(chan notify.EventInfo, notifyEventsBufferSize)
	if err := notify.Watch(filepath.Join(root, "..."), events, notify.All); err != nil {
		return nil, err
	}

	watch := &notifyWatch{
		session: newSession(root, callback, &backend.counters, backend.logger),
		events:  events,
	}
	watch.release = func() error {
		notify.Stop(events)
		return nil
	}

	backend.counters.active.Add(1)
	go watch.run()
	watch.logDebug("watch added", map[string]string{"backend": BackendNotify})
	return watch, nil
}

type notifyWatch struct {
	*session
	events chan notify.EventInfo
}

func (watch *notifyWatch) run() {
	defer close(watch.done)
	defer watch.counters.active.Add(-1)

	for {
		select {
		case <-watch.stop:
			return
		case info := <-watch.events:
			watch.deliver(Event{
				Paths: []string{info.Path()},
				Op:    convertNotifyEvent(info.Event()),
			})
		}
	}
}

func convertNotifyEvent(event notify.Event) Op {
	var converted Op
	if event&notify.Create != 0 {
		converted |= OpCreate
	}
	if event&notify.Write != 0 {
		converted |= OpWrite
	}
	if event&notify.Remove != 0 {
		converted |= OpRemove
	}
	if event&notify.Rename != 0 {
		converted |= OpRename
	}
	return converted
}
