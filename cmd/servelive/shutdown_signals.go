package main

import (
	"context"
	"os"
	"sync"

	"servelive/internal/logging"
)

const (
	msgShutdownSignal = "shutdown signal received"
	msgShutdownRepeat = "shutdown already in progress, ignoring signal"
)

// watchShutdownSignals relays signals until the returned stop func is called.
// The first signal cancels shutdown; the first repeat is logged and the rest
// are dropped. logger may be nil.
func watchShutdownSignals(logger *logging.Logger, shutdown context.CancelFunc, signals <-chan os.Signal) func() {
	if signals == nil {
		return func() {}
	}

	relay := &signalRelay{logger: logger, shutdown: shutdown}
	done := make(chan struct{})
	var once sync.Once
	go relay.run(signals, done)
	return func() {
		once.Do(func() { close(done) })
	}
}

// signalRelay is confined to the run goroutine.
type signalRelay struct {
	logger   *logging.Logger
	shutdown context.CancelFunc
	received int
}

func (relay *signalRelay) run(signals <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			relay.handle(sig)
		}
	}
}

func (relay *signalRelay) handle(sig os.Signal) {
	relay.received++
	switch relay.received {
	case 1:
		relay.logger.Info(msgShutdownSignal, signalFields(sig))
		if relay.shutdown != nil {
			relay.shutdown()
		}
	case 2:
		relay.logger.Info(msgShutdownRepeat, signalFields(sig))
	}
}

func signalFields(sig os.Signal) map[string]string {
	if sig == nil {
		return nil
	}
	return map[string]string{"signal": sig.String()}
}
