package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/photo"
)

// Dialog owns the modal editing session for a single point. Its lifecycle is
// Closed → Open(index) → Closed: Open loads the target point's fields into
// editable form state, Save merges them back through the session, and
// Cancel discards everything without touching the point list.
type Dialog struct {
	session *Session
	index   int
	open    bool

	// Editable form state, populated by Open.
	Name        string
	Lat         float64
	Lng         float64
	Address     string
	Description string
	Category    domain.Category
	HintAuthor  string
	Tags        []string
	Photos      *photo.EditState
}

// NewDialog constructs a closed dialog bound to a session.
func NewDialog(session *Session) *Dialog {
	return &Dialog{session: session}
}

// IsOpen reports whether an edit session is active.
func (d *Dialog) IsOpen() bool { return d.open }

// Index returns the index being edited. Only meaningful while open.
func (d *Dialog) Index() int { return d.index }

// Open loads the point at index into the form state, including the photo
// edit state snapshot. Returns domain.ErrNotFound for an out-of-range index.
func (d *Dialog) Open(index int) error {
	points := d.session.Points()
	if index < 0 || index >= len(points) {
		return fmt.Errorf("editor.Dialog.Open: %w", domain.ErrNotFound)
	}

	p := points[index]
	d.index = index
	d.Name = p.Name
	d.Lat = p.Lat
	d.Lng = p.Lng
	d.Address = p.Address
	d.Description = p.Description
	d.Category = p.Category
	d.HintAuthor = p.HintAuthor
	d.Tags = append([]string(nil), p.Tags...)
	d.Photos = photo.NewEditState(p.Photos)
	d.open = true
	return nil
}

// Save validates the form, merges all editable fields back into the session
// at the held index, reconciles the photo edit state into the final photo
// list, and closes. A validation failure (empty name) keeps the dialog open
// with its state intact so the user can correct and retry.
func (d *Dialog) Save(ctx context.Context) error {
	if !d.open {
		return fmt.Errorf("editor.Dialog.Save: %w: dialog is not open", domain.ErrValidation)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("%w: point name is required", domain.ErrValidation)
	}

	photos := d.Photos.Reconcile()
	tags := append([]string(nil), d.Tags...)

	err := d.session.UpdatePoint(ctx, d.index, PointUpdate{
		Name:        &name,
		Lat:         &d.Lat,
		Lng:         &d.Lng,
		Address:     &d.Address,
		Description: &d.Description,
		Category:    &d.Category,
		HintAuthor:  &d.HintAuthor,
		Tags:        &tags,
		Photos:      &photos,
	})
	if err != nil {
		return fmt.Errorf("editor.Dialog.Save: %w", err)
	}

	d.close()
	return nil
}

// Cancel closes the dialog, discarding all edit-session state without
// mutating the point.
func (d *Dialog) Cancel() {
	d.close()
}

func (d *Dialog) close() {
	d.open = false
	d.Name = ""
	d.Lat = 0
	d.Lng = 0
	d.Address = ""
	d.Description = ""
	d.Category = ""
	d.HintAuthor = ""
	d.Tags = nil
	d.Photos = nil
}
