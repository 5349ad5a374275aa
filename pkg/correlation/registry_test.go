package correlation

import (
	"context"
	"testing"
	"time"

	"ai-docedit-be/pkg/editerr"
)

func TestAwaitDeliversResolvedResult(t *testing.T) {
	r := NewRegistry(time.Second)
	p := r.Register()

	go func() {
		if !r.Resolve(p.ID, map[string]string{"position_id": "abc"}) {
			t.Error("resolve of a registered id should succeed")
		}
	}()

	result, err := r.Await(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := result.(map[string]string)
	if !ok || m["position_id"] != "abc" {
		t.Errorf("result = %v", result)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	p := r.Register()

	start := time.Now()
	_, err := r.Await(context.Background(), p)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !editerr.Is(err, editerr.KindTimeout) {
		t.Errorf("error kind = %v, want Timeout", editerr.KindOf(err))
	}
	if time.Since(start) > time.Second {
		t.Error("await did not respect the deadline")
	}

	// Late response must be discarded, not delivered.
	if r.Resolve(p.ID, "too late") {
		t.Error("resolve after timeout should report a discarded response")
	}
}

func TestResolveUnknownIDIsDiscarded(t *testing.T) {
	r := NewRegistry(time.Second)
	if r.Resolve("never-registered", "x") {
		t.Error("unknown correlation id should not resolve")
	}
}

func TestResolveIsOneShot(t *testing.T) {
	r := NewRegistry(time.Second)
	p := r.Register()

	if !r.Resolve(p.ID, "first") {
		t.Fatal("first resolve should succeed")
	}
	if r.Resolve(p.ID, "second") {
		t.Error("second resolve should be discarded")
	}

	result, err := r.Await(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "first" {
		t.Errorf("result = %v, want first", result)
	}
}

func TestAwaitCanceledContext(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.Register()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Await(ctx, p)
	if err == nil {
		t.Fatal("expected error on canceled context")
	}
	if !editerr.Is(err, editerr.KindTimeout) {
		t.Errorf("error kind = %v, want Timeout", editerr.KindOf(err))
	}
}
