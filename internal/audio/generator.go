// Package audio drives text-to-speech audio-guide generation for route
// points: a per-point state machine over a speech synthesis provider, with
// generation records persisted and the resulting asset handed back to the
// point store.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
)

// State is the generator's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Asset is the playable artifact a successful generation produces.
type Asset struct {
	URL      string `json:"audio_url"`
	Filename string `json:"filename"`
}

// Synthesizer turns text into a stored, playable audio asset.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice domain.VoiceType, lang domain.AudioLanguage) (Asset, error)
}

// PointAudioStore is notified when an asset is attached to or dropped from a
// point. The route point repo satisfies this in the server; the editor
// session can satisfy it for in-memory use.
type PointAudioStore interface {
	AttachAudio(ctx context.Context, pointID uuid.UUID, url string) error
	DropAudio(ctx context.Context, pointID uuid.UUID) error
}

// Recorder persists generation records so the history outlives the edit
// session. May be nil when persistence is not wired (tests, offline use).
type Recorder interface {
	Create(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error)
	Update(ctx context.Context, g domain.AudioGeneration) (domain.AudioGeneration, error)
}

// Generator runs at most one generation at a time for the point currently
// open in the editor. A concurrent Generate while one is in flight gets
// domain.ErrBusy. After a failure the generator stays retryable: the error
// is recorded for display and the next Generate starts fresh.
type Generator struct {
	mu      sync.Mutex
	state   State
	asset   Asset
	lastErr string

	synth Synthesizer
	store PointAudioStore
	rec   Recorder
	log   *slog.Logger
}

// NewGenerator constructs an idle Generator. synth is required; store and
// rec may be nil to skip the respective side effects.
func NewGenerator(synth Synthesizer, store PointAudioStore, rec Recorder, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{state: StateIdle, synth: synth, store: store, rec: rec, log: log}
}

// State returns the current lifecycle state.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Asset returns the stored asset of the last successful generation.
func (g *Generator) Asset() Asset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.asset
}

// LastError returns the display message recorded by the last failure.
func (g *Generator) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Generate synthesizes speech for the point's text and attaches the
// resulting asset to the point.
//
// Preconditions checked before any request is issued: the point must be
// persisted (non-nil ID — "save the point first") and the text must be
// non-empty and at most domain.MaxAudioTextLen characters. Violations
// return domain.ErrValidation and leave the generator Idle.
func (g *Generator) Generate(ctx context.Context, pointID uuid.UUID, text string, voice domain.VoiceType, lang domain.AudioLanguage) (Asset, error) {
	if pointID == uuid.Nil {
		return Asset{}, fmt.Errorf("%w: save the point before generating audio", domain.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return Asset{}, fmt.Errorf("%w: audio text is required", domain.ErrValidation)
	}
	if len([]rune(text)) > domain.MaxAudioTextLen {
		return Asset{}, fmt.Errorf("%w: audio text exceeds %d characters", domain.ErrValidation, domain.MaxAudioTextLen)
	}
	if !voice.Valid() {
		voice = domain.VoiceAlloy
	}
	if !lang.Valid() {
		lang = domain.LangRussian
	}

	g.mu.Lock()
	if g.state == StateGenerating {
		g.mu.Unlock()
		return Asset{}, fmt.Errorf("audio.Generator.Generate: %w", domain.ErrBusy)
	}
	g.state = StateGenerating
	g.lastErr = ""
	g.mu.Unlock()

	record := g.createRecord(ctx, pointID, text, voice, lang)

	asset, err := g.synth.Synthesize(ctx, text, voice, lang)
	if err != nil {
		g.mu.Lock()
		g.state = StateError
		g.lastErr = err.Error()
		g.mu.Unlock()
		g.finishRecord(ctx, record, domain.GenerationFailed, Asset{}, err)
		return Asset{}, fmt.Errorf("audio.Generator.Generate: %w", err)
	}

	g.mu.Lock()
	g.state = StateSuccess
	g.asset = asset
	g.mu.Unlock()
	g.finishRecord(ctx, record, domain.GenerationCompleted, asset, nil)

	if g.store != nil {
		if err := g.store.AttachAudio(ctx, pointID, asset.URL); err != nil {
			g.log.Warn("attaching audio to point failed", "point_id", pointID, "error", err)
		}
	}
	return asset, nil
}

// Reset clears the stored asset and drops the point association. The caller
// is responsible for having confirmed the action with the user.
func (g *Generator) Reset(ctx context.Context, pointID uuid.UUID) error {
	g.mu.Lock()
	if g.state == StateGenerating {
		g.mu.Unlock()
		return fmt.Errorf("audio.Generator.Reset: %w", domain.ErrBusy)
	}
	g.state = StateIdle
	g.asset = Asset{}
	g.lastErr = ""
	g.mu.Unlock()

	if g.store != nil && pointID != uuid.Nil {
		if err := g.store.DropAudio(ctx, pointID); err != nil {
			return fmt.Errorf("audio.Generator.Reset: %w", err)
		}
	}
	return nil
}

// createRecord persists the queued record; best-effort when rec is nil or
// the insert fails (generation proceeds regardless).
func (g *Generator) createRecord(ctx context.Context, pointID uuid.UUID, text string, voice domain.VoiceType, lang domain.AudioLanguage) *domain.AudioGeneration {
	if g.rec == nil {
		return nil
	}
	created, err := g.rec.Create(ctx, domain.AudioGeneration{
		PointID:  pointID,
		Text:     text,
		Voice:    voice,
		Language: lang,
		Status:   domain.GenerationProcessing,
	})
	if err != nil {
		g.log.Warn("recording audio generation failed", "point_id", pointID, "error", err)
		return nil
	}
	return &created
}

func (g *Generator) finishRecord(ctx context.Context, record *domain.AudioGeneration, status domain.GenerationStatus, asset Asset, genErr error) {
	if g.rec == nil || record == nil {
		return
	}
	record.Status = status
	record.AudioURL = asset.URL
	record.Filename = asset.Filename
	if genErr != nil {
		record.Error = genErr.Error()
	}
	if _, err := g.rec.Update(ctx, *record); err != nil {
		g.log.Warn("updating audio generation record failed", "id", record.ID, "error", err)
	}
}
