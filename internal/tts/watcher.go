package tts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// cacheReloadDelay склеивает серию событий от одной записи файла
const cacheReloadDelay = 200 * time.Millisecond

// WatchCache перечитывает кеш голосов, когда файл меняется на диске
// (например, после запуска cmd/refresh). Блокируется до отмены ctx.
func (s *Service) WatchCache(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	path, err := filepath.Abs(s.cachePath)
	if err != nil {
		return fmt.Errorf("ошибка определения пути кеша: %w", err)
	}

	// Следим за каталогом: кеш пишется через временный файл и rename
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("ошибка подписки на каталог %s: %w", dir, err)
	}

	s.logger.Info("наблюдение за кешем голосов", zap.String("cache_file", path))

	timer := time.NewTimer(cacheReloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.logger.Debug("кеш голосов изменен", zap.String("event", event.Op.String()))
			timer.Reset(cacheReloadDelay)

		case <-timer.C:
			count, err := s.Reload(ctx, false)
			if err != nil {
				s.logger.Warn("ошибка перечитывания кеша", zap.Error(err))
				continue
			}
			s.logger.Info("кеш голосов перечитан", zap.Int("count", count))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Debug("ошибка fsnotify", zap.String("dir", dir), zap.Error(err))
		}
	}
}
