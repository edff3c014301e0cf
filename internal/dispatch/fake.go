package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Call records one backend invocation for test assertions.
type Call struct {
	Op         string // "on", "off", "scene"
	Target     string // light name, or scene name for "scene"
	Transition time.Duration
}

// FakeBackend records calls and fails on demand.
type FakeBackend struct {
	mu    sync.Mutex
	calls []Call

	// Targets is returned by ListTargets.
	Targets []string

	// FailTargets holds target names whose on/off calls fail.
	FailTargets map[string]bool

	// ListError, if set, is returned by ListTargets.
	ListError error

	// SceneError, if set, is returned by RecallScene.
	SceneError error
}

// NewFakeBackend creates a fake with the given known targets.
func NewFakeBackend(targets ...string) *FakeBackend {
	return &FakeBackend{Targets: targets}
}

// Calls returns a snapshot of recorded calls.
func (f *FakeBackend) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeBackend) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *FakeBackend) TurnOn(_ context.Context, target string, transition time.Duration) error {
	if f.FailTargets[target] {
		return fmt.Errorf("target %s unreachable", target)
	}
	f.record(Call{Op: "on", Target: target, Transition: transition})
	return nil
}

func (f *FakeBackend) TurnOff(_ context.Context, target string, transition time.Duration) error {
	if f.FailTargets[target] {
		return fmt.Errorf("target %s unreachable", target)
	}
	f.record(Call{Op: "off", Target: target, Transition: transition})
	return nil
}

func (f *FakeBackend) RecallScene(_ context.Context, name string) error {
	if f.SceneError != nil {
		return f.SceneError
	}
	f.record(Call{Op: "scene", Target: name})
	return nil
}

func (f *FakeBackend) ListTargets(_ context.Context) ([]string, error) {
	if f.ListError != nil {
		return nil, f.ListError
	}
	return f.Targets, nil
}
