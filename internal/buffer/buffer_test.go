package buffer

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestAppendRead(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yane.buffer")
	defer teardown()

	r := New()
	r.Append("a", "x")
	r.Append("a", "y")
	got, err := r.Read("a")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != "xy" {
		t.Errorf("expected 'xy', got %q", got)
	}
}

func TestReadMissing(t *testing.T) {
	r := New()
	if _, err := r.Read("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Take("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Take, got %v", err)
	}
}

func TestClearKeepsIdentity(t *testing.T) {
	r := New()
	r.Append("a", "text")
	r.SetTarget("a", "a.cpp")
	r.Clear("a")
	got, err := r.Read("a")
	if err != nil || got != "" {
		t.Errorf("expected empty buffer, got %q (%v)", got, err)
	}
	if ts := r.Targets(); len(ts) != 1 || ts[0].Path != "a.cpp" {
		t.Errorf("expected target kept, got %v", ts)
	}

	r.Clear("fresh")
	if !r.Has("fresh") {
		t.Error("Clear should create the buffer")
	}
}

func TestTake(t *testing.T) {
	r := New()
	r.Append("a", "once")
	got, _ := r.Take("a")
	if got != "once" {
		t.Errorf("expected 'once', got %q", got)
	}
	got, _ = r.Read("a")
	if got != "" {
		t.Errorf("expected empty after Take, got %q", got)
	}
}

func TestTargetsOrder(t *testing.T) {
	r := New()
	r.SetTarget("b", "b.out")
	r.SetTarget("a", "a.out")
	r.SetTarget("b", "b2.out")
	r.Append("c", "no target")

	ts := r.Targets()
	if len(ts) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(ts))
	}
	if ts[0].Name != "b" || ts[0].Path != "b2.out" || ts[1].Name != "a" {
		t.Errorf("unexpected targets %v", ts)
	}
}

func TestNamesSnapshotReset(t *testing.T) {
	r := New()
	r.Append("z", "1")
	r.Append("m", "2")
	names := r.Names()
	if len(names) != 2 || names[0] != "m" || names[1] != "z" {
		t.Errorf("unexpected names %v", names)
	}
	if snap := r.Snapshot(); snap["z"] != "1" {
		t.Errorf("unexpected snapshot %v", snap)
	}
	r.Reset()
	if len(r.Names()) != 0 || len(r.Targets()) != 0 {
		t.Error("Reset should destroy all buffers")
	}
}

func TestEmptyTargetListedOnce(t *testing.T) {
	r := New()
	for i := 0; i < 3; i++ {
		r.Append("", "x")
		r.SetTarget("", "")
	}
	if ts := r.Targets(); len(ts) != 1 {
		t.Errorf("expected one target, got %v", ts)
	}
}
