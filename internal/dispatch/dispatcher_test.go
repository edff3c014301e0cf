package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oakmere/lampd/internal/rules"
)

func TestApplyExplicitTargets(t *testing.T) {
	backend := NewFakeBackend("Hall 1", "Hall 2", "Dining table")
	d := New(backend, 0)

	res, err := d.Apply(context.Background(), rules.ActionOn, []string{"Hall 1", "Hall 2"}, "", 4*time.Second)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 0 {
		t.Errorf("result = %+v, want 2 succeeded", res)
	}
	if res.ID == "" {
		t.Error("result carries no dispatch id")
	}

	calls := backend.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Target != "Hall 1" || calls[1].Target != "Hall 2" {
		t.Errorf("targets out of order: %+v", calls)
	}
	if calls[0].Op != "on" || calls[0].Transition != 4*time.Second {
		t.Errorf("call = %+v", calls[0])
	}
}

func TestApplyEmptyTargetsMeansAll(t *testing.T) {
	backend := NewFakeBackend("a", "b", "c")
	d := New(backend, 0)

	res, err := d.Apply(context.Background(), rules.ActionOff, nil, "", 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Succeeded != 3 {
		t.Errorf("result = %+v, want all 3 targets", res)
	}
}

func TestSingleTargetFailureDoesNotAbort(t *testing.T) {
	backend := NewFakeBackend("a", "b", "c")
	backend.FailTargets = map[string]bool{"b": true}
	d := New(backend, 0)

	res, err := d.Apply(context.Background(), rules.ActionOn, nil, "", 0)
	if err != nil {
		t.Fatalf("per-target failure must not escalate: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2/1", res)
	}

	// a and c still got their action.
	calls := backend.Calls()
	if len(calls) != 2 {
		t.Errorf("got %d successful calls, want 2", len(calls))
	}
}

func TestListFailureEscalates(t *testing.T) {
	backend := NewFakeBackend()
	backend.ListError = errors.New("bridge unreachable")
	d := New(backend, 0)

	if _, err := d.Apply(context.Background(), rules.ActionOn, nil, "", 0); err == nil {
		t.Fatal("total backend failure should escalate")
	}
}

func TestSceneRecall(t *testing.T) {
	backend := NewFakeBackend("a")
	d := New(backend, 0)

	res, err := d.Apply(context.Background(), rules.ActionScene, nil, "evening", 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Succeeded != 1 {
		t.Errorf("result = %+v", res)
	}
	calls := backend.Calls()
	if len(calls) != 1 || calls[0].Op != "scene" || calls[0].Target != "evening" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestSceneFailureIsTallied(t *testing.T) {
	backend := NewFakeBackend()
	backend.SceneError = errors.New("scene not found")
	d := New(backend, 0)

	res, err := d.Apply(context.Background(), rules.ActionScene, nil, "ghost", 0)
	if err != nil {
		t.Fatalf("scene failure must not escalate: %v", err)
	}
	if res.Failed != 1 || res.Succeeded != 0 {
		t.Errorf("result = %+v, want failed tally", res)
	}
}

func TestCancelledContextStopsDispatch(t *testing.T) {
	backend := NewFakeBackend("a", "b")
	d := New(backend, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Apply(ctx, rules.ActionOn, nil, "", 0); err == nil {
		t.Fatal("cancelled context should abort the dispatch")
	}
}
