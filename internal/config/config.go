package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	TTS      TTSConfig
	Telegram TelegramConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	Host     string
	Port     int
}

// HTTPConfig содержит настройки HTTP API
type HTTPConfig struct {
	CORSOrigins []string
	APIKey      string // ключ для /v1/voices/refresh, пустой = без проверки
}

// TTSConfig содержит настройки синтеза речи
type TTSConfig struct {
	BaseURL         string
	CacheFile       string
	APITimeout      time.Duration
	MaxTextLength   int
	LongMaxLength   int
	DefaultVoice    string
	ChunkSize       int
	Concurrency     int
	RefreshInterval time.Duration // 0 отключает периодическое обновление
	WatchCache      bool          // перечитывать кеш при изменении файла
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Host = getEnvDefault("HOST", "0.0.0.0")
	cfg.App.Port = getEnvIntDefault("PORT", 8000)

	// HTTP
	cfg.HTTP.CORSOrigins = getEnvListDefault("CORS_ORIGINS", []string{"http://localhost:3000"})
	cfg.HTTP.APIKey = os.Getenv("API_KEY")

	// TTS
	cfg.TTS.BaseURL = strings.TrimRight(getEnvDefault("NANOAI_BASE_URL", "https://bot.n.cn"), "/")
	cacheFile, err := homedir.Expand(getEnvDefault("TTS_CACHE_FILE", "robots.json"))
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора TTS_CACHE_FILE: %w", err)
	}
	cfg.TTS.CacheFile = cacheFile
	cfg.TTS.APITimeout = time.Duration(getEnvIntDefault("TTS_API_TIMEOUT", 30)) * time.Second
	cfg.TTS.MaxTextLength = getEnvIntDefault("TTS_MAX_TEXT_LENGTH", 5000)
	cfg.TTS.LongMaxLength = getEnvIntDefault("TTS_LONG_MAX_LENGTH", 10000)
	cfg.TTS.DefaultVoice = getEnvDefault("TTS_DEFAULT_VOICE", "DeepSeek")
	cfg.TTS.ChunkSize = getEnvIntDefault("TTS_CHUNK_SIZE", 500)
	cfg.TTS.Concurrency = getEnvIntDefault("TTS_CONCURRENCY", 6)
	cfg.TTS.RefreshInterval = getEnvDurationDefault("VOICES_REFRESH_INTERVAL", 24*time.Hour)
	cfg.TTS.WatchCache = getEnvBoolDefault("TTS_WATCH_CACHE", true)

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getEnvListDefault разбирает список через запятую
func getEnvListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.App.Port <= 0 || config.App.Port > 65535 {
		return fmt.Errorf("PORT вне допустимого диапазона: %d", config.App.Port)
	}
	if config.TTS.BaseURL == "" {
		return fmt.Errorf("NANOAI_BASE_URL не установлен")
	}
	if config.TTS.CacheFile == "" {
		return fmt.Errorf("TTS_CACHE_FILE не установлен")
	}
	if config.TTS.APITimeout <= 0 {
		return fmt.Errorf("TTS_API_TIMEOUT должен быть положительным")
	}
	if config.TTS.MaxTextLength <= 0 {
		return fmt.Errorf("TTS_MAX_TEXT_LENGTH должен быть положительным")
	}
	if config.TTS.LongMaxLength < config.TTS.MaxTextLength {
		return fmt.Errorf("TTS_LONG_MAX_LENGTH не может быть меньше TTS_MAX_TEXT_LENGTH")
	}
	if config.TTS.DefaultVoice == "" {
		return fmt.Errorf("TTS_DEFAULT_VOICE не установлен")
	}
	if config.TTS.ChunkSize <= 0 {
		return fmt.Errorf("TTS_CHUNK_SIZE должен быть положительным")
	}
	if config.TTS.Concurrency <= 0 {
		return fmt.Errorf("TTS_CONCURRENCY должен быть положительным")
	}
	if config.TTS.RefreshInterval < 0 {
		return fmt.Errorf("VOICES_REFRESH_INTERVAL не может быть отрицательным")
	}

	return nil
}

// Addr возвращает адрес для HTTP сервера
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// TelegramEnabled сообщает, нужно ли запускать бота
func (c *TelegramConfig) TelegramEnabled() bool {
	return c.BotToken != ""
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn", "warning":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
