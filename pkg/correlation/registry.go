package correlation

import (
	"context"
	"sync"
	"time"

	"ai-docedit-be/pkg/editerr"

	"github.com/google/uuid"
)

// Pending is one outstanding tool-call round trip. The worker blocks on it
// while the event loop delivers the client's response.
type Pending struct {
	ID string
	ch chan interface{}
}

// Registry matches tool responses to the workers awaiting them. Entries are
// removed on resolve, cancel, or deadline; a response arriving for a removed
// id is discarded.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Pending
	timeout time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		pending: make(map[string]*Pending),
		timeout: timeout,
	}
}

// Register creates a pending correlation with a fresh id.
func (r *Registry) Register() *Pending {
	p := &Pending{
		ID: uuid.New().String(),
		ch: make(chan interface{}, 1),
	}
	r.mu.Lock()
	r.pending[p.ID] = p
	r.mu.Unlock()
	return p
}

// Resolve hands a response to the waiting worker. Returns false when the id
// is unknown, already resolved, or timed out; such responses are dropped.
func (r *Registry) Resolve(id string, result interface{}) bool {
	r.mu.Lock()
	p, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.ch <- result
	return true
}

// Cancel removes a pending correlation without delivering anything.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// Await blocks until the correlation resolves, the deadline passes, or ctx is
// canceled. Deadline expiry deregisters the id so a late response is a no-op.
func (r *Registry) Await(ctx context.Context, p *Pending) (interface{}, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case result := <-p.ch:
		return result, nil
	case <-timer.C:
		r.Cancel(p.ID)
		return nil, editerr.New(editerr.KindTimeout,
			"no tool response for correlation %s within %s", p.ID, r.timeout)
	case <-ctx.Done():
		r.Cancel(p.ID)
		return nil, editerr.Wrap(editerr.KindTimeout, ctx.Err(),
			"session closed while awaiting correlation %s", p.ID)
	}
}
