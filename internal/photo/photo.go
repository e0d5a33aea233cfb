// Package photo manages the photo working set of a point edit session:
// existing photos, indices marked for deletion, and freshly attached images,
// reconciled into one ordered list only at save time.
//
// The index scheme is unambiguous: 0 is the main photo, 1..N are additional
// photos in stored order. Deletion marks always refer to positions in the
// existing snapshot, never to positions in the reconciled output.
package photo

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/waymarkhq/waymark/internal/domain"
)

const (
	// MaxAdditional is the cap on additional (non-main) photos per point,
	// enforced at attach time.
	MaxAdditional = 4

	// MaxFileSize is the largest accepted image, 5MB.
	MaxFileSize = 5 * 1024 * 1024
)

// File is a freshly attached image read into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURL renders the file as an inline data URL, the form new photos take
// until the backend stores them.
func (f File) DataURL() string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// EditState is the per-edit-session photo working set. It never mutates the
// underlying point; the dialog applies the reconciled list on save and
// discards the state on close.
type EditState struct {
	existing []domain.Photo
	deleted  map[int]bool
	newFiles []File
}

// NewEditState snapshots the point's photos at dialog-open time.
func NewEditState(existing []domain.Photo) *EditState {
	snap := make([]domain.Photo, len(existing))
	copy(snap, existing)
	return &EditState{
		existing: snap,
		deleted:  make(map[int]bool),
	}
}

// Existing returns the snapshot taken at open time, unaffected by deletion
// marks.
func (s *EditState) Existing() []domain.Photo {
	out := make([]domain.Photo, len(s.existing))
	copy(out, s.existing)
	return out
}

// RemoveExisting marks the photo at index (0 = main) as deleted without
// removing it from the underlying point until save. Marking the same index
// twice is a no-op. Returns domain.ErrNotFound for an out-of-range index.
func (s *EditState) RemoveExisting(index int) error {
	if index < 0 || index >= len(s.existing) {
		return fmt.Errorf("photo.EditState.RemoveExisting: %w", domain.ErrNotFound)
	}
	s.deleted[index] = true
	return nil
}

// RestoreExisting clears a deletion mark, e.g. when the user re-uploads the
// main photo slot after deleting it.
func (s *EditState) RestoreExisting(index int) {
	delete(s.deleted, index)
}

// IsDeleted reports whether the existing photo at index is marked for
// removal.
func (s *EditState) IsDeleted(index int) bool {
	return s.deleted[index]
}

// AttachNew validates and accepts a freshly attached image. The file must
// have an image/* content type and be at most 5MB; violations return
// domain.ErrValidation. The additional-photo cap counts surviving existing
// additional photos plus already attached new files.
func (s *EditState) AttachNew(f File) error {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return fmt.Errorf("%w: file must be an image, got %q", domain.ErrValidation, f.ContentType)
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if len(f.Data) > MaxFileSize {
		return fmt.Errorf("%w: file exceeds 5MB limit", domain.ErrValidation)
	}
	if s.additionalCount() >= MaxAdditional {
		return fmt.Errorf("%w: at most %d additional photos", domain.ErrValidation, MaxAdditional)
	}
	s.newFiles = append(s.newFiles, f)
	return nil
}

// additionalCount counts non-deleted existing additional photos plus new
// attachments. The main slot (index 0) does not count toward the cap.
func (s *EditState) additionalCount() int {
	n := len(s.newFiles)
	for i := 1; i < len(s.existing); i++ {
		if !s.deleted[i] {
			n++
		}
	}
	return n
}

// Reconcile produces the final ordered photo list: the main photo first (if
// not deleted), then non-deleted existing additional photos in original
// order, then all new files in attachment order.
func (s *EditState) Reconcile() []domain.Photo {
	out := make([]domain.Photo, 0, len(s.existing)+len(s.newFiles))
	for i, p := range s.existing {
		if !s.deleted[i] {
			out = append(out, p)
		}
	}
	for _, f := range s.newFiles {
		out = append(out, domain.Photo{URL: f.DataURL(), Caption: f.Name})
	}
	return out
}
