package tts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatchCacheReloadsOnWrite(t *testing.T) {
	_, srv := newFakeVendor(t)
	cache := filepath.Join(t.TempDir(), "robots.json")
	require.NoError(t, os.WriteFile(cache,
		[]byte(`{"data":{"list":[{"tag":"A1","title":"Alice","icon":"http://x/a.png"}]}}`), 0644))

	client := NewNanoAIClient(zap.NewNop(), srv.URL, time.Second, nil)
	svc := NewService(context.Background(), client, cache, zap.NewNop())
	require.Equal(t, 1, svc.Count())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.WatchCache(ctx) }()

	// Интервал опроса больше задержки склейки событий
	assert.Eventually(t, func() bool {
		if err := os.WriteFile(cache, []byte(sampleVoiceList), 0644); err != nil {
			return false
		}
		return svc.Count() == 2
	}, 5*time.Second, 3*cacheReloadDelay/2)

	assert.True(t, svc.HasVoice("B2"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchCache не завершился после отмены контекста")
	}
}

func TestWatchCacheMissingDirectory(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "missing", "robots.json")
	svc := NewService(context.Background(), &stubBackend{catalog: catalogOf("A1"), source: SourceCache}, cache, zap.NewNop())

	err := svc.WatchCache(context.Background())
	assert.Error(t, err)
}
