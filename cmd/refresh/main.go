package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nano-tts/internal/config"
	"nano-tts/internal/tts"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cacheFile string
	dryRun    bool
	verbose   bool

	rootCmd = &cobra.Command{
		Use:          "refresh",
		Short:        "Обновить кеш голосов NanoAI",
		Long:         "Загружает список голосов у вендора и атомарно перезаписывает файл кеша.\nЗапущенный сервер перечитает кеш сам, если включен TTS_WATCH_CACHE.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         execute,
	}
)

func init() {
	rootCmd.Flags().StringVar(&cacheFile, "cache", "", "Путь к файлу кеша голосов (по умолчанию TTS_CACHE_FILE)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Загрузить список голосов без записи в кеш")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Вывести все голоса")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func execute(cmd *cobra.Command, _ []string) error {
	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	path := cfg.TTS.CacheFile
	if cacheFile != "" {
		path = cacheFile
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := tts.NewNanoAIClient(logger, cfg.TTS.BaseURL, cfg.TTS.APITimeout, nil)

	var catalog *tts.Catalog
	if dryRun {
		catalog, err = fetchOnly(ctx, client)
	} else {
		catalog, err = client.RefreshCatalog(ctx, path)
	}
	if err != nil {
		logger.Error("Ошибка обновления списка голосов", zap.Error(err))
		return err
	}

	if verbose {
		for _, v := range catalog.Voices() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", v.ID, v.Name)
		}
	}

	fields := []zap.Field{
		zap.Int("count", catalog.Len()),
		zap.String("cache_file", path),
		zap.Bool("dry_run", dryRun),
	}
	if info, err := os.Stat(path); err == nil && !dryRun {
		fields = append(fields, zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	logger.Info("Список голосов обновлен", fields...)
	return nil
}

// fetchOnly загружает и разбирает список без записи файла
func fetchOnly(ctx context.Context, client *tts.NanoAIClient) (*tts.Catalog, error) {
	raw, err := client.FetchVoiceList(ctx)
	if err != nil {
		return nil, err
	}
	return tts.ParseCatalog(raw)
}
