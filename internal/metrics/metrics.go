package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Счетчики
	httpRequests *prometheus.CounterVec
	synthesis    *prometheus.CounterVec
	catalogLoads *prometheus.CounterVec
	botMessages  *prometheus.CounterVec

	// Гистограммы
	synthesisDuration prometheus.Histogram
	httpDuration      *prometheus.HistogramVec

	// Gauge метрики
	voicesAvailable prometheus.Gauge
	lastRefresh     prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// NewRegistry создает реестр со стандартными метриками процесса и Go runtime
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New создает новый экземпляр метрик в переданном реестре.
// nil означает новый пустой реестр.
func New(logger *zap.Logger, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		logger:   logger,
		registry: registry,

		// Счетчики HTTP запросов
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Общее количество HTTP запросов",
			},
			[]string{"route", "status"},
		),

		// Счетчики синтеза
		synthesis: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_synthesis_total",
				Help: "Общее количество запросов синтеза к вендору",
			},
			[]string{"status"}, // success, failed
		),

		// Счетчики загрузки каталога
		catalogLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_catalog_loads_total",
				Help: "Количество загрузок списка голосов",
			},
			[]string{"source", "status"}, // source: cache, network, fallback
		),

		// Счетчики сообщений бота
		botMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_messages_total",
				Help: "Количество сообщений, обработанных Telegram ботом",
			},
			[]string{"type"}, // command, text, rate_limited
		),

		// Гистограмма времени синтеза
		synthesisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_synthesis_duration_seconds",
				Help:    "Время ответа вендора синтеза в секундах",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
		),

		// Гистограмма времени HTTP ответа
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Время обработки HTTP запроса в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		// Gauge количества голосов
		voicesAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tts_voices_available",
				Help: "Количество голосов в текущем каталоге",
			},
		),

		// Gauge времени последнего обновления каталога
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tts_catalog_last_refresh_timestamp_seconds",
				Help: "Unix время последней успешной загрузки каталога",
			},
		),
	}

	// Регистрируем все метрики
	registry.MustRegister(
		m.httpRequests,
		m.synthesis,
		m.catalogLoads,
		m.botMessages,
		m.synthesisDuration,
		m.httpDuration,
		m.voicesAvailable,
		m.lastRefresh,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter *prometheus.CounterVec

	switch name {
	case "http_requests_total":
		counter = m.httpRequests
	case "tts_synthesis_total":
		counter = m.synthesis
	case "tts_catalog_loads_total":
		counter = m.catalogLoads
	case "bot_messages_total":
		counter = m.botMessages
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	counter.WithLabelValues(labels...).Inc()
	m.logger.Debug("метрика увеличена", zap.String("metric", name), zap.Strings("labels", labels))
}

// SetGauge устанавливает значение gauge метрики
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var gauge prometheus.Gauge

	switch name {
	case "tts_voices_available":
		gauge = m.voicesAvailable
	case "tts_catalog_last_refresh_timestamp_seconds":
		gauge = m.lastRefresh
	default:
		m.logger.Error("неизвестная gauge метрика", zap.String("name", name))
		return
	}

	gauge.Set(value)
	m.logger.Debug("метрика установлена", zap.String("metric", name), zap.Float64("value", value))
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_synthesis_duration_seconds":
		m.synthesisDuration.Observe(value)
	case "http_request_duration_seconds":
		m.httpDuration.WithLabelValues(labels...).Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}

	m.logger.Debug("гистограмма обновлена", zap.String("metric", name), zap.Float64("value", value))
}

// RecordSynthesis записывает запрос синтеза
func (m *Metrics) RecordSynthesis(success bool, duration time.Duration) {
	m.IncrementCounter("tts_synthesis_total", statusLabel(success))
	m.ObserveHistogram("tts_synthesis_duration_seconds", duration.Seconds())
}

// RecordCatalogLoad записывает загрузку каталога
func (m *Metrics) RecordCatalogLoad(source string, success bool) {
	m.IncrementCounter("tts_catalog_loads_total", source, statusLabel(success))
	if success {
		m.SetGauge("tts_catalog_last_refresh_timestamp_seconds", float64(time.Now().Unix()))
	}
}

// SetVoicesAvailable обновляет количество голосов
func (m *Metrics) SetVoicesAvailable(count int) {
	m.SetGauge("tts_voices_available", float64(count))
}

// RecordHTTPRequest записывает обработанный HTTP запрос
func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	m.IncrementCounter("http_requests_total", route, strconv.Itoa(status))
	m.ObserveHistogram("http_request_duration_seconds", duration.Seconds(), route)
}

// RecordBotMessage записывает сообщение бота
func (m *Metrics) RecordBotMessage(messageType string) {
	m.IncrementCounter("bot_messages_total", messageType)
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(success bool) string {
	if success {
		return statusSuccess
	}
	return statusFailed
}
