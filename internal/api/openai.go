package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"nano-tts/internal/tts"
	"nano-tts/pkg/models"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	minRate = 0.5
	maxRate = 2.0
)

// handleModels GET /v1/models, каждый голос выдается как модель
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	created := s.now().Unix()
	voices := s.service.Voices()

	data := make([]models.Model, 0, len(voices))
	for _, v := range voices {
		data = append(data, models.Model{
			ID:         v.ID,
			Object:     "model",
			Created:    created,
			OwnedBy:    "nanoaitts",
			Permission: []string{},
			Root:       "bot.n.cn",
		})
	}

	writeJSON(w, http.StatusOK, models.ListResponse[models.Model]{Object: "list", Data: data})
}

// handleVoiceList GET /v1/voices
func (s *Server) handleVoiceList(w http.ResponseWriter, r *http.Request) {
	voices := s.service.Voices()
	if voices == nil {
		voices = []models.Voice{}
	}
	writeJSON(w, http.StatusOK, models.ListResponse[models.Voice]{Object: "list", Data: voices})
}

// handleSpeech POST /v1/audio/speech
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req models.SpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Input) == "" {
		writeAPIError(w, http.StatusBadRequest, `Missing or invalid "input" field`)
		return
	}
	if req.Voice == "" {
		req.Voice = s.opts.DefaultVoice
	}

	if !s.service.HasVoice(req.Voice) {
		ids := make([]string, 0, s.service.Count())
		for _, v := range s.service.Voices() {
			ids = append(ids, v.ID)
		}
		writeAPIError(w, http.StatusNotFound,
			fmt.Sprintf("Voice %q not found. Available voices: %s", req.Voice, strings.Join(ids, ", ")))
		return
	}

	if !inRange(req.Speed) {
		writeAPIError(w, http.StatusBadRequest, "Speed must be between 0.5 and 2.0")
		return
	}
	if !inRange(req.Pitch) {
		writeAPIError(w, http.StatusBadRequest, "Pitch must be between 0.5 and 2.0")
		return
	}

	audio, chunks, err := s.service.SynthesizeLong(r.Context(), req.Input, req.Voice)
	if err != nil {
		if errors.Is(err, tts.ErrTextEmpty) || errors.Is(err, tts.ErrTextTooLong) {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ошибка синтеза речи", zap.String("voice", req.Voice), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "Failed to generate audio: "+err.Error())
		return
	}

	s.logger.Debug("аудио сгенерировано",
		zap.String("voice", req.Voice),
		zap.Int("chunks", chunks),
		zap.String("size", humanize.Bytes(uint64(len(audio)))))

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Audio-Chunks", strconv.Itoa(chunks))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// handleRefresh POST /v1/voices/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.Reload(r.Context(), true)
	if err != nil {
		s.logger.Error("ошибка обновления списка голосов", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("список голосов обновлен по запросу", zap.Int("count", count))
	writeJSON(w, http.StatusOK, models.RefreshResponse{
		Message:     "Voices refreshed successfully",
		VoicesCount: count,
	})
}

// inRange nil означает значение по умолчанию 1.0
func inRange(v *float64) bool {
	if v == nil {
		return true
	}
	return *v >= minRate && *v <= maxRate
}
