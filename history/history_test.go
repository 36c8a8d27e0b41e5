package history

import (
	"errors"
	"slices"
	"testing"
)

func newHistory(locations ...string) *History {
	h := New()
	for _, location := range locations {
		h.Push(location)
	}
	return h
}

func TestHistory_New(t *testing.T) {
	h := New()

	if h.Cursor() != -1 {
		t.Errorf("expected cursor -1, got %d", h.Cursor())
	}
	if _, ok := h.Current(); ok {
		t.Error("expected no current entry")
	}
}

func TestHistory_MoveThenPushDiscardsForwardBranch(t *testing.T) {
	h := newHistory("/a", "/b", "/c")

	location, err := h.Move(-1, false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if location != "/b" || h.Cursor() != 1 {
		t.Fatalf("expected /b at cursor 1, got %s at %d", location, h.Cursor())
	}

	h.Push("/d")

	snapshot := h.Snapshot()
	if !slices.Equal(snapshot.Entries, []string{"/a", "/b", "/d"}) {
		t.Errorf("unexpected entries %v", snapshot.Entries)
	}
	if snapshot.Cursor != 2 {
		t.Errorf("expected cursor 2, got %d", snapshot.Cursor)
	}
}

func TestHistory_MoveSaturates(t *testing.T) {
	h := newHistory("/a", "/b", "/c")

	for _, delta := range []int{-10, -1, 7, 1, 100, -3} {
		if _, err := h.Move(delta, true); err != nil {
			t.Fatalf("Move(%d) failed: %v", delta, err)
		}
		if h.Cursor() < 0 || h.Cursor() > h.Len()-1 {
			t.Fatalf("cursor %d outside [0, %d]", h.Cursor(), h.Len()-1)
		}
	}

	if location, _ := h.Move(-10, true); location != "/a" {
		t.Errorf("expected /a, got %s", location)
	}
	if location, _ := h.Move(10, true); location != "/c" {
		t.Errorf("expected /c, got %s", location)
	}
}

func TestHistory_MoveEmpty(t *testing.T) {
	h := New()

	_, err := h.Move(-1, false)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if h.Cursor() != -1 {
		t.Errorf("cursor mutated to %d", h.Cursor())
	}
}

func TestHistory_MoveUnchanged(t *testing.T) {
	h := newHistory("/a", "/b")

	_, err := h.Move(1, false)
	if !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged at the end, got %v", err)
	}
	if h.Cursor() != 1 {
		t.Errorf("cursor mutated to %d", h.Cursor())
	}

	location, err := h.Move(0, true)
	if err != nil {
		t.Fatalf("forced Move failed: %v", err)
	}
	if location != "/b" {
		t.Errorf("expected /b, got %s", location)
	}
}

func TestHistory_MoveUnchangedDuplicateNeighbour(t *testing.T) {
	h := newHistory("/a", "/a")

	if _, err := h.Move(-1, false); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged for identical neighbour, got %v", err)
	}
}

func TestHistory_Rollback(t *testing.T) {
	h := newHistory("/a", "/b")
	h.Push("/c")

	h.Rollback()

	if h.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", h.Cursor())
	}
	if !slices.Equal(h.Snapshot().Entries, []string{"/a", "/b"}) {
		t.Errorf("unexpected entries %v", h.Snapshot().Entries)
	}
	if current, _ := h.Current(); current != "/b" {
		t.Errorf("expected /b, got %s", current)
	}

	empty := New()
	empty.Rollback()
	if empty.Cursor() != -1 {
		t.Errorf("rollback on empty history moved cursor to %d", empty.Cursor())
	}
}

func TestHistory_Restore(t *testing.T) {
	h := newHistory("/a", "/b", "/c")

	previous := h.Cursor()
	if _, err := h.Move(-2, false); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	h.Restore(previous)

	if h.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", h.Cursor())
	}

	h.Restore(42)
	if h.Cursor() != 2 {
		t.Errorf("restore must clamp, got %d", h.Cursor())
	}
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	h := newHistory("/a")

	snapshot := h.Snapshot()
	snapshot.Entries[0] = "/mutated"

	if current, _ := h.Current(); current != "/a" {
		t.Errorf("snapshot aliases history, got %s", current)
	}
}

func TestHistory_Replace(t *testing.T) {
	h := New()
	h.Replace("/ignored")
	if h.Len() != 0 {
		t.Fatal("replace on empty history must be a no-op")
	}

	h = newHistory("/a", "~")
	h.Replace("/home/user")

	if current, _ := h.Current(); current != "/home/user" {
		t.Errorf("expected /home/user, got %s", current)
	}
	if h.Len() != 2 || h.Cursor() != 1 {
		t.Errorf("replace must not change shape, got len %d cursor %d", h.Len(), h.Cursor())
	}
}
