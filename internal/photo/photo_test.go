package photo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/photo"
)

func existingPhotos(urls ...string) []domain.Photo {
	out := make([]domain.Photo, len(urls))
	for i, u := range urls {
		out[i] = domain.Photo{URL: u}
	}
	return out
}

func imageFile(name string, size int) photo.File {
	return photo.File{Name: name, ContentType: "image/jpeg", Data: make([]byte, size)}
}

// ---- Reconcile -------------------------------------------------------------

func TestReconcile_DeleteMiddleAttachNew(t *testing.T) {
	// Existing [A,B,C], delete index 1 (B), attach D → [A,C,D].
	s := photo.NewEditState(existingPhotos("A", "B", "C"))

	require.NoError(t, s.RemoveExisting(1))
	require.NoError(t, s.AttachNew(imageFile("D.jpg", 128)))

	got := s.Reconcile()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].URL)
	assert.Equal(t, "C", got[1].URL)
	assert.True(t, strings.HasPrefix(got[2].URL, "data:image/jpeg;base64,"))
	assert.Equal(t, "D.jpg", got[2].Caption)
}

func TestReconcile_MainDeletedPromotesNothing(t *testing.T) {
	s := photo.NewEditState(existingPhotos("main", "extra"))

	require.NoError(t, s.RemoveExisting(0))

	got := s.Reconcile()
	require.Len(t, got, 1)
	assert.Equal(t, "extra", got[0].URL)
}

func TestReconcile_NoChangesPreservesOrder(t *testing.T) {
	s := photo.NewEditState(existingPhotos("A", "B"))
	got := s.Reconcile()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].URL)
	assert.Equal(t, "B", got[1].URL)
}

// ---- RemoveExisting --------------------------------------------------------

func TestRemoveExisting_OutOfRange(t *testing.T) {
	s := photo.NewEditState(existingPhotos("A"))
	assert.ErrorIs(t, s.RemoveExisting(3), domain.ErrNotFound)
	assert.ErrorIs(t, s.RemoveExisting(-1), domain.ErrNotFound)
}

func TestRemoveExisting_DoesNotMutateSnapshot(t *testing.T) {
	s := photo.NewEditState(existingPhotos("A", "B"))
	require.NoError(t, s.RemoveExisting(0))

	assert.True(t, s.IsDeleted(0))
	assert.Len(t, s.Existing(), 2, "snapshot keeps deleted entries until save")
}

func TestRestoreExisting_ClearsDeletionMark(t *testing.T) {
	s := photo.NewEditState(existingPhotos("A"))
	require.NoError(t, s.RemoveExisting(0))
	s.RestoreExisting(0)

	assert.False(t, s.IsDeleted(0))
	assert.Len(t, s.Reconcile(), 1)
}

// ---- AttachNew -------------------------------------------------------------

func TestAttachNew_RejectsNonImage(t *testing.T) {
	s := photo.NewEditState(nil)
	err := s.AttachNew(photo.File{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAttachNew_RejectsOversize(t *testing.T) {
	s := photo.NewEditState(nil)
	err := s.AttachNew(imageFile("big.jpg", photo.MaxFileSize+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAttachNew_EnforcesAdditionalCap(t *testing.T) {
	// One main + two additional existing; cap 4 additional means only two
	// new attachments fit.
	s := photo.NewEditState(existingPhotos("main", "a1", "a2"))

	require.NoError(t, s.AttachNew(imageFile("n1.jpg", 1)))
	require.NoError(t, s.AttachNew(imageFile("n2.jpg", 1)))
	assert.ErrorIs(t, s.AttachNew(imageFile("n3.jpg", 1)), domain.ErrValidation)
}

func TestAttachNew_DeletedAdditionalFreesASlot(t *testing.T) {
	s := photo.NewEditState(existingPhotos("main", "a1", "a2", "a3", "a4"))

	assert.ErrorIs(t, s.AttachNew(imageFile("n.jpg", 1)), domain.ErrValidation)

	require.NoError(t, s.RemoveExisting(2))
	assert.NoError(t, s.AttachNew(imageFile("n.jpg", 1)))
}
