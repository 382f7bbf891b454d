package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CatalogReloader перезагружает каталог голосов
type CatalogReloader interface {
	Reload(ctx context.Context, force bool) (int, error)
}

// VoiceRefreshJob периодически обновляет список голосов из сети.
// При ошибке сервис продолжает работать с текущим каталогом.
type VoiceRefreshJob struct {
	reloader CatalogReloader
	logger   *zap.Logger
}

// NewVoiceRefreshJob создает задачу обновления голосов
func NewVoiceRefreshJob(reloader CatalogReloader, logger *zap.Logger) *VoiceRefreshJob {
	return &VoiceRefreshJob{
		reloader: reloader,
		logger:   logger,
	}
}

// Run запускает принудительное обновление
func (j *VoiceRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("запуск задачи обновления списка голосов")

	count, err := j.reloader.Reload(ctx, true)
	if err != nil {
		return fmt.Errorf("ошибка обновления списка голосов: %w", err)
	}

	j.logger.Info("список голосов обновлен планировщиком", zap.Int("count", count))
	return nil
}
