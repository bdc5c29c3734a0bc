package live

import (
	"errors"
	"sync"
)

const DefaultChannelCapacity = 1

var (
	// ErrChannelFull means the payload was discarded because the consumer
	// has not caught up. The next successful send reports the gap.
	ErrChannelFull = errors.New("change channel full")
	// ErrDisconnected means the consumer is gone and no send will succeed.
	ErrDisconnected = errors.New("change channel consumer disconnected")
)

// DropChannel is a bounded queue between one producer and one consumer.
// Send never blocks; a full queue discards the payload and raises the drop
// flag, which the producer reads when building its next event.
//
// Send, Dropped and Finish belong to the producer goroutine. Items and
// Disconnect belong to the consumer.
type DropChannel struct {
	items          chan []byte
	gone           chan struct{}
	disconnectOnce sync.Once
	finishOnce     sync.Once
	dropped        bool
}

func NewDropChannel(capacity int) *DropChannel {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	return &DropChannel{
		items: make(chan []byte, capacity),
		gone:  make(chan struct{}),
	}
}

// Dropped reports whether a payload was discarded since the last successful
// send.
func (c *DropChannel) Dropped() bool {
	return c.dropped
}

func (c *DropChannel) Send(payload []byte) error {
	select {
	case <-c.gone:
		return ErrDisconnected
	default:
	}
	select {
	case c.items <- payload:
		c.dropped = false
		return nil
	default:
		c.dropped = true
		return ErrChannelFull
	}
}

// Finish closes Items once the producer has stopped sending.
func (c *DropChannel) Finish() {
	c.finishOnce.Do(func() {
		close(c.items)
	})
}

func (c *DropChannel) Items() <-chan []byte {
	return c.items
}

// Disconnect tells the producer that nobody reads Items any more.
func (c *DropChannel) Disconnect() {
	c.disconnectOnce.Do(func() {
		close(c.gone)
	})
}
