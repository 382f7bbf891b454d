package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig(t *testing.T) {
	// Чистое окружение для значений по умолчанию
	for _, key := range []string{
		"HOST", "PORT", "ENV", "LOG_LEVEL", "CORS_ORIGINS", "API_KEY",
		"NANOAI_BASE_URL", "TTS_CACHE_FILE", "TTS_API_TIMEOUT", "TTS_MAX_TEXT_LENGTH",
		"TTS_LONG_MAX_LENGTH", "TTS_DEFAULT_VOICE", "TTS_CHUNK_SIZE", "TTS_CONCURRENCY",
		"VOICES_REFRESH_INTERVAL", "TTS_WATCH_CACHE", "TELEGRAM_BOT_TOKEN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Проверяем значения по умолчанию
	assert.Equal(t, "0.0.0.0", cfg.App.Host)
	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "https://bot.n.cn", cfg.TTS.BaseURL)
	assert.Equal(t, "robots.json", cfg.TTS.CacheFile)
	assert.Equal(t, 30*time.Second, cfg.TTS.APITimeout)
	assert.Equal(t, 5000, cfg.TTS.MaxTextLength)
	assert.Equal(t, 10000, cfg.TTS.LongMaxLength)
	assert.Equal(t, "DeepSeek", cfg.TTS.DefaultVoice)
	assert.Equal(t, 500, cfg.TTS.ChunkSize)
	assert.Equal(t, 6, cfg.TTS.Concurrency)
	assert.Equal(t, 24*time.Hour, cfg.TTS.RefreshInterval)
	assert.True(t, cfg.TTS.WatchCache)
	assert.False(t, cfg.Telegram.TelegramEnabled())
}

func TestLoadConfigExpandsHomeInCachePath(t *testing.T) {
	t.Setenv("TTS_CACHE_FILE", "~/nano/robots.json")
	t.Setenv("TTS_WATCH_CACHE", "false")

	home, err := homedir.Dir()
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "nano", "robots.json"), cfg.TTS.CacheFile)
	assert.False(t, cfg.TTS.WatchCache)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("NANOAI_BASE_URL", "http://vendor.test/")
	t.Setenv("TTS_CACHE_FILE", "/tmp/voices.json")
	t.Setenv("TTS_API_TIMEOUT", "5")
	t.Setenv("VOICES_REFRESH_INTERVAL", "0")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "http://vendor.test", cfg.TTS.BaseURL)
	assert.Equal(t, "/tmp/voices.json", cfg.TTS.CacheFile)
	assert.Equal(t, 5*time.Second, cfg.TTS.APITimeout)
	assert.Equal(t, time.Duration(0), cfg.TTS.RefreshInterval)
	assert.True(t, cfg.Telegram.TelegramEnabled())
}

func TestAppConfigMethods(t *testing.T) {
	cfg := &AppConfig{
		Env:      "development",
		LogLevel: "debug",
		Host:     "127.0.0.1",
		Port:     8000,
	}

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, zap.DebugLevel, cfg.GetLogLevel().Level())

	cfg.Env = "Production"
	cfg.LogLevel = "unknown"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zap.InfoLevel, cfg.GetLogLevel().Level())
}

func TestValidateConfig(t *testing.T) {
	// Тест с пустыми обязательными полями
	cfg := &Config{}
	err := validateConfig(cfg)
	assert.Error(t, err)

	// Тест с корректной конфигурацией
	cfg = &Config{
		App: AppConfig{Port: 8000},
		TTS: TTSConfig{
			BaseURL:       "https://bot.n.cn",
			CacheFile:     "robots.json",
			APITimeout:    30 * time.Second,
			MaxTextLength: 5000,
			LongMaxLength: 10000,
			DefaultVoice:  "DeepSeek",
			ChunkSize:     500,
			Concurrency:   6,
		},
	}
	assert.NoError(t, validateConfig(cfg))

	cfg.TTS.LongMaxLength = 100
	assert.Error(t, validateConfig(cfg))
}
