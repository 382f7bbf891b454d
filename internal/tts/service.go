package tts

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"nano-tts/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recorder принимает метрики сервиса синтеза
type Recorder interface {
	RecordSynthesis(success bool, duration time.Duration)
	RecordCatalogLoad(source string, success bool)
	SetVoicesAvailable(count int)
}

type nopRecorder struct{}

func (nopRecorder) RecordSynthesis(bool, time.Duration) {}
func (nopRecorder) RecordCatalogLoad(string, bool)      {}
func (nopRecorder) SetVoicesAvailable(int)              {}

// CatalogProvider загружает каталог голосов
type CatalogProvider interface {
	LoadCatalog(ctx context.Context, cachePath string) (*Catalog, CatalogSource)
	RefreshCatalog(ctx context.Context, cachePath string) (*Catalog, error)
}

// Backend объединяет синтез и загрузку каталога (реализуется NanoAIClient)
type Backend interface {
	VoiceSynthesizer
	CatalogProvider
}

// LongTextOptions настройки синтеза длинного текста
type LongTextOptions struct {
	MaxLength   int
	ChunkSize   int
	Concurrency int
	Clean       bool
}

// DefaultLongTextOptions значения как у OpenAI-совместимого API
func DefaultLongTextOptions() LongTextOptions {
	return LongTextOptions{
		MaxLength:   10000,
		ChunkSize:   500,
		Concurrency: 6,
		Clean:       true,
	}
}

// Service единая точка входа для HTTP слоя и бота.
// Каталог читается под RLock и заменяется целиком под Lock.
type Service struct {
	backend      Backend
	cachePath    string
	defaultVoice string
	longOpts     LongTextOptions
	logger       *zap.Logger
	metrics      Recorder

	mu      sync.RWMutex
	catalog *Catalog
}

// ServiceOption настраивает Service
type ServiceOption func(*Service)

// WithRecorder подключает метрики
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithDefaultVoice задает голос для SynthesizeText
func WithDefaultVoice(id string) ServiceOption {
	return func(s *Service) {
		if id != "" {
			s.defaultVoice = id
		}
	}
}

// WithLongTextOptions задает параметры SynthesizeLong
func WithLongTextOptions(opts LongTextOptions) ServiceOption {
	return func(s *Service) { s.longOpts = opts }
}

// NewService создает сервис и один раз загружает каталог
func NewService(ctx context.Context, backend Backend, cachePath string, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		backend:      backend,
		cachePath:    cachePath,
		defaultVoice: DefaultVoiceID,
		longOpts:     DefaultLongTextOptions(),
		logger:       logger,
		metrics:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	catalog, source := backend.LoadCatalog(ctx, cachePath)
	s.metrics.RecordCatalogLoad(string(source), source != SourceFallback)
	s.setCatalog(catalog)

	logger.Info("TTS сервис инициализирован",
		zap.String("cache_file", cachePath),
		zap.String("source", string(source)),
		zap.Int("voices", catalog.Len()))

	return s
}

func (s *Service) setCatalog(c *Catalog) {
	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()
	s.metrics.SetVoicesAvailable(c.Len())
}

func (s *Service) currentCatalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Voices возвращает голоса в порядке вендора
func (s *Service) Voices() []models.Voice {
	return s.currentCatalog().Voices()
}

// VoiceMap возвращает копию каталога
func (s *Service) VoiceMap() map[string]models.VoiceEntry {
	return s.currentCatalog().Map()
}

// HasVoice проверяет наличие голоса
func (s *Service) HasVoice(id string) bool {
	_, ok := s.currentCatalog().Get(id)
	return ok
}

// Count количество голосов
func (s *Service) Count() int {
	return s.currentCatalog().Len()
}

// DefaultVoice голос по умолчанию из конфигурации
func (s *Service) DefaultVoice() string {
	return s.defaultVoice
}

// ResolveVoice возвращает существующий голос. Неизвестный заменяется первым
// голосом каталога, пустой каталог дает DeepSeek.
func (s *Service) ResolveVoice(id string) (string, bool) {
	catalog := s.currentCatalog()
	if _, ok := catalog.Get(id); ok {
		return id, false
	}
	if first, ok := catalog.First(); ok {
		return first, true
	}
	return DefaultVoiceID, true
}

// GetAudio синтезирует текст голосом из каталога
func (s *Service) GetAudio(ctx context.Context, text, voiceID string) ([]byte, error) {
	voice, substituted := s.ResolveVoice(voiceID)
	if substituted {
		s.logger.Warn("запрошенный голос не найден, используем другой",
			zap.String("requested", voiceID),
			zap.String("voice", voice))
	}

	start := time.Now()
	audio, err := s.backend.Synthesize(ctx, text, voice)
	s.metrics.RecordSynthesis(err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("ошибка получения аудио",
			zap.String("voice", voice),
			zap.Error(err))
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	return audio, nil
}

// SynthesizeText реализует TTSService голосом по умолчанию
func (s *Service) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	return s.GetAudio(ctx, text, s.defaultVoice)
}

// SynthesizeLong очищает и режет длинный текст, синтезирует куски параллельно
// и склеивает MP3 в исходном порядке. Возвращает аудио и число кусков.
func (s *Service) SynthesizeLong(ctx context.Context, text, voiceID string) ([]byte, int, error) {
	opts := s.longOpts

	processed := text
	if opts.Clean {
		processed = CleanText(text, DefaultCleanOptions())
	}
	if processed == "" {
		return nil, 0, ErrTextEmpty
	}
	if opts.MaxLength > 0 && utf8.RuneCountInString(processed) > opts.MaxLength {
		return nil, 0, fmt.Errorf("%w: максимум %d символов", ErrTextTooLong, opts.MaxLength)
	}

	chunks := SmartChunk(processed, opts.ChunkSize)
	if len(chunks) == 0 {
		return nil, 0, ErrTextEmpty
	}

	// Голос выбираем один раз на весь текст
	voice, substituted := s.ResolveVoice(voiceID)
	if substituted {
		s.logger.Warn("запрошенный голос не найден, используем другой",
			zap.String("requested", voiceID),
			zap.String("voice", voice))
	}

	if len(chunks) == 1 {
		audio, err := s.GetAudio(ctx, chunks[0], voice)
		return audio, 1, err
	}

	s.logger.Info("синтез длинного текста",
		zap.Int("chunks", len(chunks)),
		zap.Int("text_length", utf8.RuneCountInString(processed)),
		zap.String("voice", voice))

	parts := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			audio, err := s.GetAudio(gctx, chunk, voice)
			if err != nil {
				return fmt.Errorf("кусок %d: %w", i, err)
			}
			parts[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	size := 0
	for _, p := range parts {
		size += len(p)
	}
	combined := make([]byte, 0, size)
	for _, p := range parts {
		combined = append(combined, p...)
	}

	return combined, len(chunks), nil
}

// Reload перезагружает каталог. force=true идет в сеть мимо кеша и при ошибке
// оставляет текущий каталог.
func (s *Service) Reload(ctx context.Context, force bool) (int, error) {
	if !force {
		catalog, source := s.backend.LoadCatalog(ctx, s.cachePath)
		s.metrics.RecordCatalogLoad(string(source), source != SourceFallback)
		s.setCatalog(catalog)
		return catalog.Len(), nil
	}

	catalog, err := s.backend.RefreshCatalog(ctx, s.cachePath)
	if err != nil {
		s.metrics.RecordCatalogLoad(string(SourceNetwork), false)
		s.logger.Warn("не удалось обновить список голосов, оставляем текущий",
			zap.Int("current", s.Count()),
			zap.Error(err))
		return s.Count(), fmt.Errorf("ошибка обновления списка голосов: %w", err)
	}

	s.metrics.RecordCatalogLoad(string(SourceNetwork), true)
	s.setCatalog(catalog)
	return catalog.Len(), nil
}
