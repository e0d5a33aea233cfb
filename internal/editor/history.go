package editor

import "github.com/waymarkhq/waymark/internal/domain"

// History is a linear undo/redo stack over the ordered point list.
//
// Every snapshot is a full deep copy — no structural sharing — trading
// memory for simplicity, which is acceptable at expected route sizes (tens
// of points). Recording while the cursor sits mid-stack truncates all
// "future" snapshots, so the stack is always linear.
type History struct {
	snapshots [][]domain.Point
	cursor    int
}

// NewHistory creates a history seeded with the initial state, so an undo
// after the first mutation returns to it.
func NewHistory(initial []domain.Point) *History {
	return &History{snapshots: [][]domain.Point{domain.ClonePoints(initial)}}
}

// Record appends a deep copy of the state after a mutation, discarding any
// snapshots beyond the current cursor, and advances the cursor onto the new
// snapshot.
func (h *History) Record(points []domain.Point) {
	h.snapshots = append(h.snapshots[:h.cursor+1], domain.ClonePoints(points))
	h.cursor = len(h.snapshots) - 1
}

// Undo steps the cursor back and returns a deep copy of the snapshot there.
// Returns ok=false at the bottom of the stack (UI disables the button).
func (h *History) Undo() ([]domain.Point, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return domain.ClonePoints(h.snapshots[h.cursor]), true
}

// Redo steps the cursor forward and returns a deep copy of the snapshot
// there. Returns ok=false at the top of the stack.
func (h *History) Redo() ([]domain.Point, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return domain.ClonePoints(h.snapshots[h.cursor]), true
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }
