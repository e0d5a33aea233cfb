package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoiceType selects the synthesized voice for an audio guide.
type VoiceType string

const (
	VoiceAlloy   VoiceType = "alloy" // neutral, the default
	VoiceEcho    VoiceType = "echo"
	VoiceNova    VoiceType = "nova"
	VoiceOnyx    VoiceType = "onyx"
	VoiceFable   VoiceType = "fable"
	VoiceShimmer VoiceType = "shimmer"
)

// Valid reports whether the voice is one of the supported choices.
func (v VoiceType) Valid() bool {
	switch v {
	case VoiceAlloy, VoiceEcho, VoiceNova, VoiceOnyx, VoiceFable, VoiceShimmer:
		return true
	}
	return false
}

// AudioLanguage is the language hint passed to the speech service.
// "auto" lets the service detect the language from the text.
type AudioLanguage string

const (
	LangAuto    AudioLanguage = "auto"
	LangRussian AudioLanguage = "ru-RU"
	LangEnglish AudioLanguage = "en-US"
	LangSpanish AudioLanguage = "es-ES"
	LangFrench  AudioLanguage = "fr-FR"
)

// Valid reports whether the language is one of the supported choices.
func (l AudioLanguage) Valid() bool {
	switch l {
	case LangAuto, LangRussian, LangEnglish, LangSpanish, LangFrench:
		return true
	}
	return false
}

// GenerationStatus tracks an audio generation record through its lifecycle.
type GenerationStatus string

const (
	GenerationQueued     GenerationStatus = "queued"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// MaxAudioTextLen is the longest source text the speech service accepts.
const MaxAudioTextLen = 5000

// AudioGeneration is one text-to-speech request for a point, persisted so
// the generation history survives the edit session.
type AudioGeneration struct {
	ID        uuid.UUID        `json:"id"`
	PointID   uuid.UUID        `json:"point_id"`
	Text      string           `json:"text"`
	Voice     VoiceType        `json:"voice_type"`
	Language  AudioLanguage    `json:"language"`
	Status    GenerationStatus `json:"status"`
	AudioURL  string           `json:"audio_url,omitempty"`
	Filename  string           `json:"filename,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
