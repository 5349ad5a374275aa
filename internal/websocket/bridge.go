package websocket

import "sync"

// Bridge is the per-session outbound queue. Workers enqueue from any
// goroutine; a single delivery loop (the client's writePump) drains it, so
// delivery order is exactly enqueue order.
type Bridge struct {
	queue chan []byte
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewBridge(bufferSize int) *Bridge {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bridge{
		queue: make(chan []byte, bufferSize),
		done:  make(chan struct{}),
	}
}

// Enqueue appends a message without ever blocking the caller. It reports
// false when the message was dropped: either the bridge is closed (a silent
// no-op by contract) or the buffer is full.
func (b *Bridge) Enqueue(message []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	select {
	case b.queue <- message:
		return true
	default:
		return false
	}
}

// Close stops delivery. Messages still buffered are discarded (the delivery
// loop exits via Done without draining) and subsequent enqueues are no-ops.
// Safe to call more than once.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

// Closed reports whether Close has been called.
func (b *Bridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Queue is the delivery loop's read side.
func (b *Bridge) Queue() <-chan []byte {
	return b.queue
}

// Done is closed when the bridge closes.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
