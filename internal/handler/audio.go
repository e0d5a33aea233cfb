package handler

import (
	"encoding/json"
	"net/http"

	"github.com/waymarkhq/waymark/internal/domain"
)

// generateAudioRequest is the body of POST /api/ai-audio/generate/{pointID}/.
type generateAudioRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice_type"`
	Language string `json:"language"`
}

// generateAudioResponse mirrors the shape the web client expects.
type generateAudioResponse struct {
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
}

// GenerateAudio handles POST /api/ai-audio/generate/{pointID}/.
// Voice defaults to alloy and language to ru-RU when omitted. A generation
// already in flight yields 409.
func (s *Server) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	if s.audio == nil {
		respondServiceUnavailable(w, "audio generation is not configured")
		return
	}
	pointID, ok := pathUUID(w, r, "pointID")
	if !ok {
		return
	}

	var req generateAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed request body")
		return
	}

	voice := domain.VoiceType(req.Voice)
	if voice == "" {
		voice = domain.VoiceAlloy
	}
	if !voice.Valid() {
		respondBadRequest(w, "unknown voice type "+req.Voice)
		return
	}
	lang := domain.AudioLanguage(req.Language)
	if lang == "" {
		lang = domain.LangRussian
	}
	if !lang.Valid() {
		respondBadRequest(w, "unknown language "+req.Language)
		return
	}

	asset, err := s.audio.Generate(r.Context(), pointID, req.Text, voice, lang)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, generateAudioResponse{Status: "success", AudioURL: asset.URL})
}
