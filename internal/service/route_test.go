package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/repo"
	"github.com/waymarkhq/waymark/internal/service"
)

// ---- mock repo -------------------------------------------------------------

// mockRouteRepo is a hand-written test double for repo.RouteRepo.
type mockRouteRepo struct {
	create      func(ctx context.Context, route domain.Route) (domain.Route, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Route, error)
	list        func(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error)
	update      func(ctx context.Context, route domain.Route) (domain.Route, error)
	delete      func(ctx context.Context, id uuid.UUID) error
	attachAudio func(ctx context.Context, pointID uuid.UUID, url string) error
	dropAudio   func(ctx context.Context, pointID uuid.UUID) error
}

func (m *mockRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	return m.create(ctx, route)
}
func (m *mockRouteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	return m.getByID(ctx, id)
}
func (m *mockRouteRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Route, int64, error) {
	return m.list(ctx, p)
}
func (m *mockRouteRepo) Update(ctx context.Context, route domain.Route) (domain.Route, error) {
	return m.update(ctx, route)
}
func (m *mockRouteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockRouteRepo) AttachAudio(ctx context.Context, pointID uuid.UUID, url string) error {
	if m.attachAudio != nil {
		return m.attachAudio(ctx, pointID, url)
	}
	return nil
}
func (m *mockRouteRepo) DropAudio(ctx context.Context, pointID uuid.UUID) error {
	if m.dropAudio != nil {
		return m.dropAudio(ctx, pointID)
	}
	return nil
}

// compile-time check: mockRouteRepo must satisfy repo.RouteRepo.
var _ repo.RouteRepo = (*mockRouteRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func validRoute() domain.Route {
	return domain.Route{
		Name:    "Old Town Loop",
		Mode:    domain.ModeWalking,
		Privacy: domain.PrivacyPublic,
		Points: []domain.Point{
			{Name: "Town Hall", Lat: 55.7299, Lng: 37.6156},
			{Name: "Riverside Park", Lat: 55.7312, Lng: 37.6201},
		},
	}
}

// passthroughRepo returns a mock whose create/update echo their input, so
// tests can inspect what the service normalized.
func passthroughRepo() *mockRouteRepo {
	return &mockRouteRepo{
		create: func(_ context.Context, r domain.Route) (domain.Route, error) { return r, nil },
		update: func(_ context.Context, r domain.Route) (domain.Route, error) { return r, nil },
	}
}

// ---- Create ----------------------------------------------------------------

func TestRouteService_Create_OK(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	got, err := svc.Create(context.Background(), validRoute())

	require.NoError(t, err)
	assert.Equal(t, "Old Town Loop", got.Name)
	assert.Len(t, got.Points, 2)
}

func TestRouteService_Create_NameRequired(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{})

	input := validRoute()
	input.Name = "   "

	_, err := svc.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRouteService_Create_RequiresPoints(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{})

	input := validRoute()
	input.Points = nil

	_, err := svc.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRouteService_Create_PointNameRequired(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{})

	input := validRoute()
	input.Points[1].Name = ""

	_, err := svc.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRouteService_Create_DefaultsModeAndPrivacy(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	input := validRoute()
	input.Mode = ""
	input.Privacy = ""

	got, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.ModeDriving, got.Mode)
	assert.Equal(t, domain.PrivacyPrivate, got.Privacy)
}

func TestRouteService_Create_RejectsUnknownMode(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{})

	input := validRoute()
	input.Mode = "hovercraft"

	_, err := svc.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRouteService_Create_ComputesTotalDistance(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	got, err := svc.Create(context.Background(), validRoute())

	require.NoError(t, err)
	// ~0.3 km between the two fixture points; exact value rounded to 2 decimals.
	assert.Greater(t, got.TotalDistance, 0.0)
	assert.Equal(t, got.TotalDistance, float64(int(got.TotalDistance*100+0.5))/100)
}

func TestRouteService_Create_NormalizesTagsAndCoords(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	input := validRoute()
	input.Points[0].Tags = []string{"Night Walks!", "night walks", "", "History"}

	got, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []string{"night-walks", "history"}, got.Points[0].Tags)
}

func TestRouteService_Create_DerivesHasAudioGuide(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	input := validRoute()
	input.Points[0].AudioURL = "https://media.example/guide.mp3"
	input.HasAudioGuide = false // client value is ignored

	got, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, got.HasAudioGuide)
}

// ---- Update / Delete / reads -----------------------------------------------

func TestRouteService_Update_KeepsID(t *testing.T) {
	svc := service.NewRouteService(passthroughRepo())

	input := validRoute()
	input.ID = uuid.New()

	got, err := svc.Update(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, input.ID, got.ID)
}

func TestRouteService_GetByID_NotFound(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Route, error) {
			return domain.Route{}, domain.ErrNotFound
		},
	})

	_, err := svc.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteService_List_NeverNil(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{
		list: func(_ context.Context, _ domain.PaginationParams) ([]domain.Route, int64, error) {
			return nil, 0, nil
		},
	})

	routes, total, err := svc.List(context.Background(), domain.PaginationParams{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.NotNil(t, routes)
	assert.Zero(t, total)
}

func TestRouteService_Delete_PropagatesNotFound(t *testing.T) {
	svc := service.NewRouteService(&mockRouteRepo{
		delete: func(_ context.Context, _ uuid.UUID) error { return domain.ErrNotFound },
	})

	err := svc.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- tag helpers -----------------------------------------------------------

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Night  Walks!": "night-walks",
		"  History ":    "history",
		"café & bars":   "café-bars",
		"Старый город":  "старый-город",
		"---":           "",
		"":              "",
		"under_score":   "under-score",
		"UPPER":         "upper",
	}
	for input, want := range cases {
		assert.Equal(t, want, service.Slugify(input), "input %q", input)
	}
}

func TestNormalizeTags_DropsDuplicatesAndEmpties(t *testing.T) {
	got := service.NormalizeTags([]string{"Parks", "parks!", "", "  ", "Nature"})
	assert.Equal(t, []string{"parks", "nature"}, got)
}

func TestNormalizeTags_AllEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, service.NormalizeTags([]string{"", "!!!"}))
}
