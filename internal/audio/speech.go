package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/media"
)

// TTSClient calls an OpenAI-compatible speech synthesis endpoint and returns
// raw MP3 bytes.
type TTSClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewTTSClient constructs a speech client. model may be empty for the
// default; httpClient may be nil for http.DefaultClient.
func NewTTSClient(baseURL, apiKey, model string, httpClient *http.Client) *TTSClient {
	if model == "" {
		model = "tts-1"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TTSClient{baseURL: baseURL, apiKey: apiKey, model: model, http: httpClient}
}

// speechRequest is the JSON body for POST /v1/audio/speech. The language
// hint travels inside the instructions field; "auto" sends none.
type speechRequest struct {
	Model        string `json:"model"`
	Input        string `json:"input"`
	Voice        string `json:"voice"`
	Format       string `json:"response_format"`
	Instructions string `json:"instructions,omitempty"`
}

// Speech synthesizes the text and returns the encoded audio.
func (c *TTSClient) Speech(ctx context.Context, text string, voice domain.VoiceType, lang domain.AudioLanguage) ([]byte, error) {
	reqBody := speechRequest{
		Model:  c.model,
		Input:  text,
		Voice:  string(voice),
		Format: "mp3",
	}
	if lang != domain.LangAuto && lang != "" {
		reqBody.Instructions = fmt.Sprintf("Speak in %s.", lang)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("audio.TTSClient.Speech: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("audio.TTSClient.Speech: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio.TTSClient.Speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("audio.TTSClient.Speech: HTTP %d: %s", resp.StatusCode, detail)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("audio.TTSClient.Speech: read: %w", err)
	}
	return data, nil
}

// SpeechService is the production Synthesizer: it synthesizes via the TTS
// provider and stores the result in the media store.
type SpeechService struct {
	tts   *TTSClient
	media media.Store
}

// NewSpeechService wires the TTS client to the object store.
func NewSpeechService(tts *TTSClient, store media.Store) *SpeechService {
	return &SpeechService{tts: tts, media: store}
}

// Synthesize produces and stores the audio, returning the playable asset.
func (s *SpeechService) Synthesize(ctx context.Context, text string, voice domain.VoiceType, lang domain.AudioLanguage) (Asset, error) {
	data, err := s.tts.Speech(ctx, text, voice, lang)
	if err != nil {
		return Asset{}, err
	}

	url, err := s.media.Upload(ctx, "audio/mpeg", data)
	if err != nil {
		return Asset{}, fmt.Errorf("audio.SpeechService.Synthesize: store: %w", err)
	}

	filename := fmt.Sprintf("guide_%s_%d.mp3", uuid.NewString()[:8], time.Now().Unix())
	return Asset{URL: url, Filename: filename}, nil
}

var _ Synthesizer = (*SpeechService)(nil)
