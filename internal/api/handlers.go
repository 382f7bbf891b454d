package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"nano-tts/pkg/models"

	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

// handleHealth GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: "TTS API",
		Version: "1.0.0",
	})
}

// handleVoices GET /api/voices
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices := s.service.VoiceMap()
	if len(voices) == 0 {
		writeDetail(w, http.StatusServiceUnavailable, "No voices available")
		return
	}

	writeJSON(w, http.StatusOK, models.VoicesResponse{
		Voices: voices,
		Count:  len(voices),
	})
}

// handleTTS POST /api/tts
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Проверки до любого обращения к вендору
	if strings.TrimSpace(req.Text) == "" {
		writeDetail(w, http.StatusBadRequest, "Text cannot be empty")
		return
	}
	if n := utf8.RuneCountInString(req.Text); n > s.opts.MaxTextLength {
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Text is too long: %d characters, maximum is %d", n, s.opts.MaxTextLength))
		return
	}
	if req.Voice == "" {
		req.Voice = s.opts.DefaultVoice
	}

	s.logger.Info("обрабатываем запрос синтеза",
		zap.Int("text_length", utf8.RuneCountInString(req.Text)),
		zap.String("voice", req.Voice))

	audio, err := s.service.GetAudio(r.Context(), req.Text, req.Voice)
	if err != nil {
		s.logger.Error("ошибка синтеза речи", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to generate audio: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "attachment; filename=speech.mp3")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// handleNotFound отвечает в формате той группы маршрутов, куда пришел запрос
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/v1/") {
		writeAPIError(w, http.StatusNotFound, "Endpoint not found: "+r.URL.Path)
		return
	}
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.APIErrorResponse{
		Error: models.APIError{
			Message: message,
			Type:    "invalid_request_error",
			Code:    status,
		},
	})
}
