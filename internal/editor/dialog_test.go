package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/editor"
	"github.com/waymarkhq/waymark/internal/photo"
)

func sessionWithPoint(t *testing.T) *editor.Session {
	t.Helper()
	s := newSession(nil, nil)
	p := pt("Cathedral", 55.75, 37.61)
	p.Description = "old description"
	p.Photos = []domain.Photo{{URL: "main"}, {URL: "extra"}}
	s.AddPoint(context.Background(), p)
	return s
}

func TestDialog_OpenLoadsFields(t *testing.T) {
	d := editor.NewDialog(sessionWithPoint(t))

	require.NoError(t, d.Open(0))

	assert.True(t, d.IsOpen())
	assert.Equal(t, "Cathedral", d.Name)
	assert.Equal(t, "old description", d.Description)
	require.NotNil(t, d.Photos)
	assert.Len(t, d.Photos.Existing(), 2)
}

func TestDialog_OpenOutOfRange(t *testing.T) {
	d := editor.NewDialog(newSession(nil, nil))
	assert.ErrorIs(t, d.Open(0), domain.ErrNotFound)
	assert.False(t, d.IsOpen())
}

func TestDialog_SaveMergesAndCloses(t *testing.T) {
	s := sessionWithPoint(t)
	d := editor.NewDialog(s)
	require.NoError(t, d.Open(0))

	d.Name = "Renamed"
	d.Description = "new description"
	require.NoError(t, d.Photos.RemoveExisting(1))
	require.NoError(t, d.Photos.AttachNew(photo.File{
		Name: "n.png", ContentType: "image/png", Data: []byte{1, 2},
	}))

	require.NoError(t, d.Save(context.Background()))

	assert.False(t, d.IsOpen())
	got := s.Points()[0]
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "new description", got.Description)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, "main", got.Photos[0].URL)
	assert.Contains(t, got.Photos[1].URL, "data:image/png;base64,")
}

func TestDialog_SaveEmptyNameKeepsDialogOpen(t *testing.T) {
	s := sessionWithPoint(t)
	d := editor.NewDialog(s)
	require.NoError(t, d.Open(0))

	d.Name = "   "
	err := d.Save(context.Background())

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, d.IsOpen(), "validation failure keeps the dialog open")
	assert.Equal(t, "Cathedral", s.Points()[0].Name, "point untouched")
}

func TestDialog_CancelDiscardsEdits(t *testing.T) {
	s := sessionWithPoint(t)
	d := editor.NewDialog(s)
	require.NoError(t, d.Open(0))

	d.Name = "Scratch"
	require.NoError(t, d.Photos.RemoveExisting(0))
	d.Cancel()

	assert.False(t, d.IsOpen())
	got := s.Points()[0]
	assert.Equal(t, "Cathedral", got.Name)
	assert.Len(t, got.Photos, 2, "cancel never mutates the point store")
}
