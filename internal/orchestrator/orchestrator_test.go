package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/plagn-go/plagn/internal/adapter"
)

type stubAdapter struct {
	adapter.Base
	initCalls int
	steps     int
}

func newStubAdapter(name string, plagID uint64) *stubAdapter {
	return &stubAdapter{Base: adapter.NewBase(name, plagID, adapter.KindMqtt, nil)}
}

func (s *stubAdapter) Init() error {
	s.initCalls++
	return nil
}

func (s *stubAdapter) Step(now time.Time) (bool, error) {
	s.steps++
	return false, nil
}

func TestRunInitializesEveryAdapterAndStopsOnCancel(t *testing.T) {
	a1 := newStubAdapter("a1", 1)
	a2 := newStubAdapter("a2", 2)
	o := New([]adapter.Adapter{a1, a2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for (a1.initCalls == 0 || a2.initCalls == 0) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if a1.initCalls != 1 || a2.initCalls != 1 {
		t.Fatalf("expected both adapters initialized once, got %d %d", a1.initCalls, a2.initCalls)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
	if !a1.Stopped() || !a2.Stopped() {
		t.Fatal("expected all adapters stopped after cancellation")
	}
}

func TestRunPropagatesInitError(t *testing.T) {
	bad := &erroringAdapter{Base: adapter.NewBase("bad", 1, adapter.KindMqtt, nil)}
	o := New([]adapter.Adapter{bad}, nil)
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected Run to propagate the init error")
	}
}

type erroringAdapter struct {
	adapter.Base
}

func (e *erroringAdapter) Init() error                     { return errInit }
func (e *erroringAdapter) Step(now time.Time) (bool, error) { return false, nil }

var errInit = &initError{}

type initError struct{}

func (e *initError) Error() string { return "init failed" }
