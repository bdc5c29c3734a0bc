package live

import (
	"errors"
	"testing"
)

func TestSendAfterFullCarriesDropFlagOnce(t *testing.T) {
	channel := NewDropChannel(1)

	if err := channel.Send([]byte("first")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if channel.Dropped() {
		t.Fatal("expected no drop after a successful send")
	}
	if err := channel.Send([]byte("second")); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("expected ErrChannelFull, got %v", err)
	}
	if !channel.Dropped() {
		t.Fatal("expected drop flag after a full queue")
	}
	if err := channel.Send([]byte("third")); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("expected ErrChannelFull again, got %v", err)
	}

	if got := string(<-channel.Items()); got != "first" {
		t.Fatalf("expected first payload, got %q", got)
	}
	if !channel.Dropped() {
		t.Fatal("expected drop flag to survive until the next successful send")
	}
	if err := channel.Send([]byte("fourth")); err != nil {
		t.Fatalf("send after drain: %v", err)
	}
	if channel.Dropped() {
		t.Fatal("expected drop flag to reset after a successful send")
	}
}

func TestSendAfterDisconnectIsTerminal(t *testing.T) {
	channel := NewDropChannel(4)
	channel.Disconnect()
	channel.Disconnect()

	if err := channel.Send([]byte("payload")); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
	if errors.Is(ErrDisconnected, ErrChannelFull) {
		t.Fatal("expected disconnect to be distinguishable from full")
	}
	if channel.Dropped() {
		t.Fatal("expected disconnect not to raise the drop flag")
	}
}

func TestFinishClosesItemsOnce(t *testing.T) {
	channel := NewDropChannel(0)
	if err := channel.Send([]byte("only")); err != nil {
		t.Fatalf("send with default capacity: %v", err)
	}
	channel.Finish()
	channel.Finish()

	if got := string(<-channel.Items()); got != "only" {
		t.Fatalf("expected buffered payload, got %q", got)
	}
	if _, ok := <-channel.Items(); ok {
		t.Fatal("expected items to be closed")
	}
}
