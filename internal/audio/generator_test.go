package audio_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymarkhq/waymark/internal/audio"
	"github.com/waymarkhq/waymark/internal/domain"
)

// ---- test doubles ----------------------------------------------------------

// mockSynth is a hand-written test double for audio.Synthesizer.
type mockSynth struct {
	mu         sync.Mutex
	calls      int
	synthesize func(ctx context.Context, text string, voice domain.VoiceType, lang domain.AudioLanguage) (audio.Asset, error)
}

func (m *mockSynth) Synthesize(ctx context.Context, text string, voice domain.VoiceType, lang domain.AudioLanguage) (audio.Asset, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.synthesize != nil {
		return m.synthesize(ctx, text, voice, lang)
	}
	return audio.Asset{URL: "https://cdn.example/a.mp3", Filename: "a.mp3"}, nil
}

func (m *mockSynth) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ audio.Synthesizer = (*mockSynth)(nil)

// mockAudioStore records attach/drop notifications.
type mockAudioStore struct {
	attached map[uuid.UUID]string
	dropped  []uuid.UUID
}

func newMockAudioStore() *mockAudioStore {
	return &mockAudioStore{attached: make(map[uuid.UUID]string)}
}

func (m *mockAudioStore) AttachAudio(_ context.Context, pointID uuid.UUID, url string) error {
	m.attached[pointID] = url
	return nil
}

func (m *mockAudioStore) DropAudio(_ context.Context, pointID uuid.UUID) error {
	m.dropped = append(m.dropped, pointID)
	return nil
}

var _ audio.PointAudioStore = (*mockAudioStore)(nil)

// ---- Generate preconditions ------------------------------------------------

func TestGenerate_UnsavedPointRejectedBeforeRequest(t *testing.T) {
	synth := &mockSynth{}
	g := audio.NewGenerator(synth, nil, nil, nil)

	_, err := g.Generate(context.Background(), uuid.Nil, "hello", domain.VoiceAlloy, domain.LangEnglish)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "save the point")
	assert.Zero(t, synth.callCount(), "no request issued")
	assert.Equal(t, audio.StateIdle, g.State())
}

func TestGenerate_EmptyTextRejected(t *testing.T) {
	synth := &mockSynth{}
	g := audio.NewGenerator(synth, nil, nil, nil)

	_, err := g.Generate(context.Background(), uuid.New(), "   ", domain.VoiceAlloy, domain.LangAuto)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, synth.callCount())
}

func TestGenerate_OverlongTextRejectedBeforeRequest(t *testing.T) {
	synth := &mockSynth{}
	g := audio.NewGenerator(synth, nil, nil, nil)

	text := strings.Repeat("a", domain.MaxAudioTextLen+1)
	_, err := g.Generate(context.Background(), uuid.New(), text, domain.VoiceAlloy, domain.LangAuto)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, synth.callCount(), "5001 characters never reach the provider")
	assert.Equal(t, audio.StateIdle, g.State())
}

// ---- Generate happy path ---------------------------------------------------

func TestGenerate_SuccessAttachesAsset(t *testing.T) {
	store := newMockAudioStore()
	g := audio.NewGenerator(&mockSynth{}, store, nil, nil)
	pointID := uuid.New()

	asset, err := g.Generate(context.Background(), pointID, "welcome to the cathedral", domain.VoiceNova, domain.LangEnglish)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.mp3", asset.URL)
	assert.Equal(t, audio.StateSuccess, g.State())
	assert.Equal(t, asset.URL, store.attached[pointID], "point store notified")
}

// ---- Generate failure ------------------------------------------------------

func TestGenerate_FailureRecordsErrorAndAllowsRetry(t *testing.T) {
	failing := true
	synth := &mockSynth{
		synthesize: func(context.Context, string, domain.VoiceType, domain.AudioLanguage) (audio.Asset, error) {
			if failing {
				return audio.Asset{}, errors.New("provider unavailable")
			}
			return audio.Asset{URL: "u", Filename: "f"}, nil
		},
	}
	g := audio.NewGenerator(synth, nil, nil, nil)
	pointID := uuid.New()

	_, err := g.Generate(context.Background(), pointID, "text", domain.VoiceAlloy, domain.LangAuto)
	require.Error(t, err)
	assert.Equal(t, audio.StateError, g.State())
	assert.Contains(t, g.LastError(), "provider unavailable")

	// Retry succeeds from the error state.
	failing = false
	_, err = g.Generate(context.Background(), pointID, "text", domain.VoiceAlloy, domain.LangAuto)
	require.NoError(t, err)
	assert.Equal(t, audio.StateSuccess, g.State())
}

// ---- concurrency -----------------------------------------------------------

func TestGenerate_ConcurrentGenerationRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	synth := &mockSynth{
		synthesize: func(context.Context, string, domain.VoiceType, domain.AudioLanguage) (audio.Asset, error) {
			close(started)
			<-release
			return audio.Asset{URL: "u"}, nil
		},
	}
	g := audio.NewGenerator(synth, nil, nil, nil)
	pointID := uuid.New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := g.Generate(context.Background(), pointID, "text", domain.VoiceAlloy, domain.LangAuto)
		assert.NoError(t, err)
	}()

	<-started
	_, err := g.Generate(context.Background(), pointID, "text", domain.VoiceAlloy, domain.LangAuto)
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(release)
	wg.Wait()
	assert.Equal(t, 1, synth.callCount(), "second invocation never reached the provider")
}

// ---- Reset -----------------------------------------------------------------

func TestReset_ClearsAssetAndNotifiesDrop(t *testing.T) {
	store := newMockAudioStore()
	g := audio.NewGenerator(&mockSynth{}, store, nil, nil)
	pointID := uuid.New()

	_, err := g.Generate(context.Background(), pointID, "text", domain.VoiceAlloy, domain.LangAuto)
	require.NoError(t, err)

	require.NoError(t, g.Reset(context.Background(), pointID))

	assert.Equal(t, audio.StateIdle, g.State())
	assert.Empty(t, g.Asset().URL)
	assert.Equal(t, []uuid.UUID{pointID}, store.dropped)
}
