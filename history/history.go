// Package history keeps the ordered log of visited locations with a cursor
// used for back and forward traversal.
package history

import (
	"errors"
	"slices"
)

var (
	// ErrEmpty is returned by Move when nothing has been visited yet.
	ErrEmpty = errors.New("history: empty")
	// ErrUnchanged is returned by Move when the target equals the current entry.
	ErrUnchanged = errors.New("history: target equals current location")
)

// History is not safe for concurrent use; the session serializes access.
type History struct {
	entries []string
	cursor  int
}

// Snapshot is a point in time copy handed to observers.
type Snapshot struct {
	Entries []string `json:"entries"`
	Cursor  int      `json:"cursor"`
}

func New() *History {
	return &History{
		cursor: -1,
	}
}

// Push discards every entry beyond the cursor, appends location and moves
// the cursor onto it.
func (h *History) Push(location string) {
	h.entries = append(h.entries[:h.cursor+1], location)
	h.cursor = len(h.entries) - 1
}

// Move shifts the cursor by delta, saturating at both ends, and returns the
// location it now points at. Unless force is set, a move that lands on the
// current location is rejected with ErrUnchanged and leaves the cursor alone.
func (h *History) Move(delta int, force bool) (string, error) {
	if len(h.entries) == 0 {
		return "", ErrEmpty
	}

	target := min(max(h.cursor+delta, 0), len(h.entries)-1)
	if !force && h.cursor >= 0 && h.entries[target] == h.entries[h.cursor] {
		return h.entries[target], ErrUnchanged
	}

	h.cursor = target
	return h.entries[target], nil
}

// Rollback reverts the most recent Push. The entry is dropped only when it
// is the last one, which is always the case right after a Push.
func (h *History) Rollback() {
	if h.cursor < 0 {
		return
	}

	if h.cursor == len(h.entries)-1 {
		h.entries = h.entries[:h.cursor]
	}
	h.cursor--
}

// Replace overwrites the entry at the cursor, e.g. with the canonical
// form of a location that was pushed before it was resolved.
func (h *History) Replace(location string) {
	if h.cursor < 0 {
		return
	}

	h.entries[h.cursor] = location
}

// Restore puts the cursor back to a previously observed position.
func (h *History) Restore(cursor int) {
	h.cursor = min(max(cursor, -1), len(h.entries)-1)
}

// Current returns the entry at the cursor.
func (h *History) Current() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}

	return h.entries[h.cursor], true
}

func (h *History) Cursor() int {
	return h.cursor
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) CanBack() bool {
	return h.cursor > 0
}

func (h *History) CanForward() bool {
	return h.cursor < len(h.entries)-1
}

func (h *History) Snapshot() Snapshot {
	return Snapshot{
		Entries: slices.Clone(h.entries),
		Cursor:  h.cursor,
	}
}
