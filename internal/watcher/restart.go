package watcher

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	maxRestartAttempts = 3
	restartBaseDelay   = 200 * time.Millisecond
)

// ErrRestartsExhausted is delivered once when a broken watch could not be
// rebuilt. The watch stays open but may miss changes from then on.
var ErrRestartsExhausted = errors.New("watch restarts exhausted")

func restartDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}

func (watch *fsnotifyWatch) scheduleRestart(cause error) {
	if watch.restartTimer != nil || watch.abandoned {
		return
	}
	if watch.restartAttempts >= maxRestartAttempts {
		watch.abandoned = true
		watch.logWarn("watch restarts exhausted", map[string]string{
			"root":     watch.root,
			"attempts": strconv.Itoa(watch.restartAttempts),
			"error":    cause.Error(),
		})
		watch.deliver(Event{Err: fmt.Errorf("%w: %w", ErrRestartsExhausted, cause)})
		return
	}
	delay := restartDelay(watch.restartBase, watch.restartAttempts)
	watch.restartAttempts++
	watch.restartTimer = time.NewTimer(delay)
}

func (watch *fsnotifyWatch) performRestart() {
	watch.restartTimer = nil
	if err := watch.restart(); err != nil {
		watch.logWarn("watch restart failed", map[string]string{
			"root":  watch.root,
			"error": err.Error(),
		})
		watch.scheduleRestart(err)
		return
	}
	watch.restartAttempts = 0
	watch.counters.restarts.Add(1)
	watch.logDebug("watch restarted", map[string]string{
		"dirs": strconv.FormatInt(watch.dirs, 10),
	})
}

// restart walks the tree into a fresh source and swaps it in, so directories
// created while events were being lost are watched again.
func (watch *fsnotifyWatch) restart() error {
	replacement, err := watch.newSource()
	if err != nil {
		return err
	}
	added, err := watch.addTree(replacement, watch.root)
	if err != nil {
		_ = replacement.Close()
		return err
	}

	previous := watch.source
	watch.counters.dirs.Add(added - watch.dirs)
	watch.source = replacement
	watch.dirs = added
	_ = previous.Close()
	return nil
}

func (watch *fsnotifyWatch) stopRestartTimer() {
	if watch.restartTimer != nil {
		watch.restartTimer.Stop()
		watch.restartTimer = nil
	}
}
