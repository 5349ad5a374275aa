package websocket

import (
	"testing"
	"time"
)

func TestBridgeDeliversInEnqueueOrder(t *testing.T) {
	b := NewBridge(8)

	for _, msg := range []string{"m1", "m2", "m3"} {
		if !b.Enqueue([]byte(msg)) {
			t.Fatalf("enqueue of %q failed", msg)
		}
	}

	for _, want := range []string{"m1", "m2", "m3"} {
		select {
		case got := <-b.Queue():
			if string(got) != want {
				t.Errorf("got %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestBridgeEnqueueAfterCloseIsSilentNoOp(t *testing.T) {
	b := NewBridge(8)
	b.Close()

	if b.Enqueue([]byte("late")) {
		t.Error("enqueue after close should drop")
	}
	select {
	case msg := <-b.Queue():
		t.Errorf("closed bridge delivered %q", msg)
	default:
	}
}

func TestBridgeEnqueueNeverBlocksWhenFull(t *testing.T) {
	b := NewBridge(1)

	if !b.Enqueue([]byte("fits")) {
		t.Fatal("first enqueue should succeed")
	}

	done := make(chan bool, 1)
	go func() {
		done <- b.Enqueue([]byte("overflow"))
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("overflow enqueue should report a drop")
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full buffer")
	}
}

func TestBridgeCloseIsIdempotentAndSignalsDone(t *testing.T) {
	b := NewBridge(8)
	b.Close()
	b.Close()

	select {
	case <-b.Done():
	default:
		t.Error("Done should be closed after Close")
	}
	if !b.Closed() {
		t.Error("Closed should report true")
	}
}
