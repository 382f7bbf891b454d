package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	voiceListPath = "/api/robot/platform"
	speechPath    = "/api/tts/v1"

	// Сколько байт тела ошибки попадает в сообщение
	maxErrorBody = 1024
)

// CatalogSource откуда был получен каталог голосов
type CatalogSource string

const (
	SourceCache    CatalogSource = "cache"
	SourceNetwork  CatalogSource = "network"
	SourceFallback CatalogSource = "fallback"
)

// NanoAIClient клиент API синтеза речи bot.n.cn
type NanoAIClient struct {
	logger     *zap.Logger
	baseURL    string
	httpClient *http.Client
	auth       *Authenticator

	// Сериализует запись файла кеша
	cacheMu sync.Mutex
}

// NewNanoAIClient создает клиент. auth == nil означает профиль по умолчанию.
func NewNanoAIClient(logger *zap.Logger, baseURL string, timeout time.Duration, auth *Authenticator) *NanoAIClient {
	if auth == nil {
		auth = NewAuthenticator(DefaultDeviceProfile())
	}
	return &NanoAIClient{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout, // одна попытка, без повторов
		},
		auth: auth,
	}
}

// VoiceListURL адрес списка голосов
func (c *NanoAIClient) VoiceListURL() string {
	return c.baseURL + voiceListPath
}

// SpeechURL адрес синтеза для голоса
func (c *NanoAIClient) SpeechURL(voiceID string) string {
	return c.baseURL + speechPath + "?roleid=" + url.QueryEscape(voiceID)
}

// Synthesize отправляет текст вендору и возвращает MP3 целиком
func (c *NanoAIClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	endpoint := c.SpeechURL(voiceID)
	form := "&text=" + quoteText(text) + "&audio_type=mp3&format=stream"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	c.auth.Headers().Apply(req.Header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("🎵 отправляем запрос к NanoAI TTS",
		zap.String("url", endpoint),
		zap.String("voice", voiceID),
		zap.Int("text_length", len([]rune(text))))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения аудио данных: %w", ErrTransport, err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	c.logger.Info("🎵 аудио успешно сгенерировано",
		zap.String("text", preview(text, 50)),
		zap.String("voice", voiceID),
		zap.Int("audio_size", len(audio)))

	return audio, nil
}

// FetchVoiceList загружает сырой JSON списка голосов
func (c *NanoAIClient) FetchVoiceList(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.VoiceListURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	c.auth.Headers().Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа: %w", ErrTransport, err)
	}
	return body, nil
}

// LoadCatalog загружает каталог из файла кеша или из сети.
// Никогда не возвращает ошибку: при сбое используется голос по умолчанию.
func (c *NanoAIClient) LoadCatalog(ctx context.Context, cachePath string) (*Catalog, CatalogSource) {
	catalog, source, err := c.loadCatalog(ctx, cachePath)
	if err != nil {
		c.logger.Warn("не удалось загрузить список голосов, используем голос по умолчанию",
			zap.String("cache_file", cachePath),
			zap.Error(err))
		return DefaultCatalog(), SourceFallback
	}

	if catalog.Len() == 0 {
		c.logger.Warn("список голосов пуст, используем голос по умолчанию",
			zap.String("source", string(source)))
		return DefaultCatalog(), SourceFallback
	}

	c.logger.Info("голоса загружены",
		zap.String("source", string(source)),
		zap.Int("count", catalog.Len()))
	return catalog, source
}

func (c *NanoAIClient) loadCatalog(ctx context.Context, cachePath string) (*Catalog, CatalogSource, error) {
	raw, err := os.ReadFile(cachePath)
	switch {
	case err == nil:
		c.logger.Info("загружаем голоса из файла кеша", zap.String("cache_file", cachePath))
		catalog, err := ParseCatalog(raw)
		return catalog, SourceCache, err

	case errors.Is(err, fs.ErrNotExist):
		c.logger.Info("файл кеша не найден, загружаем голоса из API", zap.String("url", c.VoiceListURL()))
		catalog, err := c.fetchAndCache(ctx, cachePath)
		return catalog, SourceNetwork, err

	default:
		return nil, SourceCache, fmt.Errorf("ошибка чтения файла кеша: %w", err)
	}
}

// RefreshCatalog принудительно загружает список из сети, игнорируя кеш.
// При ошибке файл кеша не меняется.
func (c *NanoAIClient) RefreshCatalog(ctx context.Context, cachePath string) (*Catalog, error) {
	catalog, err := c.fetchAndCache(ctx, cachePath)
	if err != nil {
		return nil, err
	}
	c.logger.Info("список голосов обновлен", zap.Int("count", catalog.Len()))
	return catalog, nil
}

func (c *NanoAIClient) fetchAndCache(ctx context.Context, cachePath string) (*Catalog, error) {
	raw, err := c.FetchVoiceList(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки списка голосов: %w", err)
	}

	catalog, err := ParseCatalog(raw)
	if err != nil {
		return nil, err
	}
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("API вернул пустой список голосов")
	}

	if cachePath != "" {
		if err := c.writeCache(cachePath, raw); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// writeCache пишет ответ вендора как есть через временный файл
func (c *NanoAIClient) writeCache(path string, data []byte) error {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории кеша: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".voices-*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла кеша: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла кеша: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка сохранения файла кеша: %w", err)
	}

	c.logger.Info("список голосов сохранен в кеш", zap.String("cache_file", path))
	return nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// quoteText кодирует текст как urllib.parse.quote: пробел в %20, слэш без изменений
func quoteText(text string) string {
	escaped := url.QueryEscape(text)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%2F", "/")
}

// preview обрезает текст для логов
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
