package live

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"servelive/internal/logging"
	"servelive/internal/metrics"
	"servelive/internal/stream"
	"servelive/internal/watcher"
)

var errWatchMissing = errors.New("watch backend is nil")

// Subscriber opens change streams for one served root.
type Subscriber struct {
	Root          string
	Watch         watcher.Watch
	Capacity      int
	RelativePaths bool
	Logger        *logging.Logger
	Metrics       *metrics.Registry
}

// Subscribe starts a new watch on the root and returns the encoded events as
// a stream that owns the watch. The watch is released when the stream ends,
// when ctx is cancelled, or when the stream is closed.
func (s *Subscriber) Subscribe(ctx context.Context) (*stream.Scoped[[]byte], error) {
	if s == nil || s.Watch == nil {
		return nil, errWatchMissing
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(map[string]string{"servelive.category": "events"})

	channel := NewDropChannel(s.Capacity)
	producer := &producer{
		channel:  channel,
		root:     s.Root,
		relative: s.RelativePaths,
		encode:   Encode,
		logger:   logger,
		metrics:  s.Metrics,
	}

	handle, err := s.Watch.Watch(s.Root, producer.handle)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", s.Root, err)
	}
	go func() {
		<-handle.Done()
		channel.Finish()
	}()

	s.Metrics.StreamOpened()
	logger.Debug("serving modification events", map[string]string{"root": s.Root})

	release := stream.CloserFunc(func() error {
		channel.Disconnect()
		err := handle.Close()
		s.Metrics.StreamClosed()
		fields := map[string]string{"root": s.Root}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.Debug("watch released", fields)
		return err
	})
	return stream.Own(ctx, channel.Items(), release), nil
}

// producer runs on the watcher's callback goroutine and is the only writer of
// the channel's drop flag.
type producer struct {
	channel      *DropChannel
	root         string
	relative     bool
	encode       func(ChangeEvent) ([]byte, error)
	logger       *logging.Logger
	metrics      *metrics.Registry
	disconnected bool
}

func (p *producer) handle(event watcher.Event) {
	if event.Err != nil {
		p.metrics.IncWatcherErrors()
		p.logger.Error("error from file change monitor", map[string]string{
			"error": event.Err.Error(),
		})
		return
	}
	if p.disconnected {
		return
	}

	paths := FilterNoise(event.Paths)
	if len(paths) == 0 {
		p.metrics.RecordChange(metrics.OutcomeFiltered)
		p.logger.Debug("all changed paths filtered out", map[string]string{
			"op":    event.Op.String(),
			"paths": strings.Join(event.Paths, ","),
		})
		return
	}

	payload, err := p.encode(ChangeEvent{
		Paths:   p.displayPaths(paths),
		Dropped: p.channel.Dropped(),
	})
	if err != nil {
		p.metrics.RecordChange(metrics.OutcomeEncodeError)
		p.logger.Error("error serializing event", map[string]string{
			"error": err.Error(),
		})
		return
	}

	switch err := p.channel.Send(payload); {
	case err == nil:
		p.metrics.RecordChange(metrics.OutcomeSent)
	case errors.Is(err, ErrChannelFull):
		p.metrics.RecordChange(metrics.OutcomeDropped)
		p.logger.Debug("change channel full, event dropped", map[string]string{
			"op":    event.Op.String(),
			"paths": strconv.Itoa(len(paths)),
		})
	case errors.Is(err, ErrDisconnected):
		p.disconnected = true
		p.metrics.RecordChange(metrics.OutcomeDisconnected)
	}
}

func (p *producer) displayPaths(paths []string) []string {
	if !p.relative || p.root == "" {
		return paths
	}
	display := make([]string, len(paths))
	for index, path := range paths {
		rel, err := filepath.Rel(p.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			display[index] = path
			continue
		}
		display[index] = filepath.ToSlash(rel)
	}
	return display
}
