package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nano-tts/internal/api"
	"nano-tts/internal/bot"
	"nano-tts/internal/config"
	"nano-tts/internal/metrics"
	"nano-tts/internal/scheduler"
	"nano-tts/internal/tts"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск приложения NanoAI TTS",
		zap.String("env", cfg.App.Env),
		zap.String("vendor", cfg.TTS.BaseURL))

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Инициализация метрик
	metricsSystem := metrics.New(logger, metrics.NewRegistry())
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Инициализация TTS сервиса
	client := tts.NewNanoAIClient(logger, cfg.TTS.BaseURL, cfg.TTS.APITimeout, nil)
	ttsService := tts.NewService(ctx, client, cfg.TTS.CacheFile, logger,
		tts.WithRecorder(metricsSystem),
		tts.WithDefaultVoice(cfg.TTS.DefaultVoice),
		tts.WithLongTextOptions(tts.LongTextOptions{
			MaxLength:   cfg.TTS.LongMaxLength,
			ChunkSize:   cfg.TTS.ChunkSize,
			Concurrency: cfg.TTS.Concurrency,
			Clean:       true,
		}))

	// Инициализация HTTP API
	apiServer := api.NewServer(ttsService, api.Options{
		MaxTextLength: cfg.TTS.MaxTextLength,
		DefaultVoice:  cfg.TTS.DefaultVoice,
		APIKey:        cfg.HTTP.APIKey,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
	}, logger,
		api.WithRequestRecorder(metricsSystem),
		api.WithProbe(metricsHandler))

	// Планировщик обновления списка голосов
	if cfg.TTS.RefreshInterval > 0 {
		refreshScheduler := scheduler.NewScheduler(logger)
		refreshScheduler.AddJob(scheduler.NewVoiceRefreshJob(ttsService, logger))
		go refreshScheduler.Start(ctx, cfg.TTS.RefreshInterval)
	} else {
		logger.Info("периодическое обновление голосов отключено")
	}

	// Перечитывание кеша после внешнего обновления (cmd/refresh)
	if cfg.TTS.WatchCache {
		go func() {
			if err := ttsService.WatchCache(ctx); err != nil {
				logger.Warn("наблюдение за кешем голосов недоступно", zap.Error(err))
			}
		}()
	}

	// Запуск Telegram бота
	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.TelegramEnabled() {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal("ошибка инициализации Telegram бота", zap.Error(err))
		}

		logger.Info("Telegram бот инициализирован",
			zap.String("username", botAPI.Self.UserName),
			zap.Int64("id", botAPI.Self.ID))

		handler := bot.NewHandler(botAPI, ttsService, cfg.TTS.LongMaxLength, logger, metricsSystem)

		// Очистка неактивных чатов раз в час
		cleanupScheduler := scheduler.NewScheduler(logger)
		cleanupScheduler.AddJob(scheduler.JobFunc(handler.Cleanup))
		go cleanupScheduler.Start(ctx, time.Hour)

		go handleUpdates(ctx, botAPI, handler, logger)
	} else {
		logger.Info("Telegram бот отключен")
	}

	// Запуск HTTP сервера
	serverDone := make(chan struct{})
	go func() {
		startHTTPServer(ctx, cfg.App.Addr(), apiServer, logger)
		close(serverDone)
	}()

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://%s", cfg.App.Addr())),
		zap.Int("voices", ttsService.Count()),
	)

	// Ожидание сигнала завершения
	select {
	case <-sigChan:
		logger.Info("получен сигнал завершения, начинаем graceful shutdown")
	case <-serverDone:
		logger.Error("HTTP сервер остановился")
	}

	// Останавливаем получение обновлений
	if botAPI != nil {
		botAPI.StopReceivingUpdates()
	}

	cancel()
	<-serverDone

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	if cfg.App.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = cfg.App.GetLogLevel()
	zapConfig.OutputPaths = []string{"stdout", "logs/app.log"}
	zapConfig.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return zapConfig.Build()
}

// handleUpdates обрабатывает обновления от Telegram
func handleUpdates(ctx context.Context, botAPI *tgbotapi.BotAPI, handler *bot.Handler, logger *zap.Logger) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				logger.Info("канал обновлений закрыт")
				return
			}

			// Пропускаем пустые обновления
			if update.Message == nil && update.CallbackQuery == nil {
				continue
			}

			// Обрабатываем обновление в горутине
			go func(update tgbotapi.Update) {
				if err := handler.HandleUpdate(ctx, update); err != nil {
					// Определяем chat_id для логирования
					var chatID int64
					if update.Message != nil {
						chatID = update.Message.Chat.ID
					} else if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
						chatID = update.CallbackQuery.Message.Chat.ID
					}

					logger.Error("ошибка обработки обновления",
						zap.Int64("chat_id", chatID),
						zap.Error(err))
				}
			}(update)

		case <-ctx.Done():
			logger.Info("остановка обработки обновлений")
			return
		}
	}
}

// startHTTPServer запускает HTTP API и останавливает его при отмене ctx
func startHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	// Ожидание сигнала завершения или ошибки запуска
	select {
	case <-ctx.Done():
	case err, ok := <-errChan:
		if ok {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
			return
		}
	}

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("HTTP сервер остановлен")
}
