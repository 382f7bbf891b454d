package api

import (
	"context"
	"net/http"
	"time"

	"nano-tts/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

// VoiceService операции фасада синтеза, которые нужны HTTP слою
type VoiceService interface {
	Voices() []models.Voice
	VoiceMap() map[string]models.VoiceEntry
	HasVoice(id string) bool
	Count() int
	GetAudio(ctx context.Context, text, voiceID string) ([]byte, error)
	SynthesizeLong(ctx context.Context, text, voiceID string) ([]byte, int, error)
	Reload(ctx context.Context, force bool) (int, error)
}

// RequestRecorder принимает метрики HTTP запросов
type RequestRecorder interface {
	RecordHTTPRequest(route string, status int, duration time.Duration)
}

// Probe отдает служебные эндпоинты /metrics и /health
type Probe interface {
	MetricsHandler() http.Handler
	HealthHandler(w http.ResponseWriter, r *http.Request)
}

// Options настройки HTTP слоя
type Options struct {
	MaxTextLength int
	DefaultVoice  string
	APIKey        string
	CORSOrigins   []string
}

// Server HTTP API сервиса синтеза речи
type Server struct {
	service VoiceService
	opts    Options
	logger  *zap.Logger

	recorder RequestRecorder
	probe    Probe

	// now подменяется в тестах
	now func() time.Time

	handler http.Handler
}

// ServerOption настраивает Server
type ServerOption func(*Server)

// WithRequestRecorder подключает метрики запросов
func WithRequestRecorder(r RequestRecorder) ServerOption {
	return func(s *Server) { s.recorder = r }
}

// WithProbe монтирует /metrics и /health
func WithProbe(p Probe) ServerOption {
	return func(s *Server) { s.probe = p }
}

// NewServer создает HTTP API поверх сервиса синтеза
func NewServer(service VoiceService, opts Options, logger *zap.Logger, options ...ServerOption) *Server {
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = 5000
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = "DeepSeek"
	}

	s := &Server{
		service: service,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.handler = s.compress(s.router())
	return s
}

// compress сжимает текстовые ответы, MP3 отдается как есть
func (s *Server) compress(h http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.ExceptContentTypes([]string{"audio/mpeg"}))
	if err != nil {
		s.logger.Warn("сжатие ответов отключено", zap.Error(err))
		return h
	}
	return wrap(h)
}

// ServeHTTP реализует http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	// Общие middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.NotFound(s.handleNotFound)

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/voices", s.handleVoices)
		r.Post("/tts", s.handleTTS)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/voices", s.handleVoiceList)
		r.Post("/audio/speech", s.handleSpeech)
		r.With(s.requireAPIKey).Post("/voices/refresh", s.handleRefresh)
	})

	if s.probe != nil {
		r.Handle("/metrics", s.probe.MetricsHandler())
		r.Get("/health", s.probe.HealthHandler)
	}

	return r
}
