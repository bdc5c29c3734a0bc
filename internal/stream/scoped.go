// Package stream ties the lifetime of a resource to a channel-backed
// sequence of items.
package stream

import (
	"context"
	"io"
	"sync"
)

// Scoped yields items from a channel and owns a resource that is released
// exactly once: when the channel is closed, when the context passed to Own
// ends, or when Close is called, whichever happens first.
type Scoped[T any] struct {
	items    <-chan T
	owned    io.Closer
	once     sync.Once
	err      error
	released chan struct{}
	stop     context.CancelFunc
}

// Own wraps items and takes ownership of owned. Cancelling ctx abandons the
// stream and releases owned without any further call from the consumer.
func Own[T any](ctx context.Context, items <-chan T, owned io.Closer) *Scoped[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	watchCtx, stop := context.WithCancel(ctx)
	scoped := &Scoped[T]{
		items:    items,
		owned:    owned,
		released: make(chan struct{}),
		stop:     stop,
	}
	go func() {
		<-watchCtx.Done()
		_ = scoped.release()
	}()
	return scoped
}

// Next blocks until an item is available. It returns false once the wrapped
// channel is closed, in which case the resource has already been released,
// or when ctx ends first.
func (s *Scoped[T]) Next(ctx context.Context) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case item, ok := <-s.items:
		if !ok {
			_ = s.release()
			return zero, false
		}
		return item, true
	case <-ctx.Done():
		return zero, false
	case <-s.released:
		return zero, false
	}
}

// Items forwards the stream onto an unbuffered channel, which is closed once
// Next reports the end or ctx is done.
func (s *Scoped[T]) Items(ctx context.Context) <-chan T {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			item, ok := s.Next(ctx)
			if !ok {
				return
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close abandons the stream and releases the resource.
func (s *Scoped[T]) Close() error {
	if s == nil {
		return nil
	}
	return s.release()
}

// Released is closed after the owned resource has been released.
func (s *Scoped[T]) Released() <-chan struct{} {
	return s.released
}

func (s *Scoped[T]) release() error {
	s.once.Do(func() {
		if s.owned != nil {
			s.err = s.owned.Close()
		}
		close(s.released)
		s.stop()
	})
	return s.err
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}
