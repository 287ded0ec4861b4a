package storage

import (
	"sync"
	"testing"
	"time"

	"FeedNotifier/internal/infrastructure/miniflux"
)

func TestMemoryCursorStartsUnset(t *testing.T) {
	t.Parallel()

	if _, ok := NewMemoryCursor().Load().Time(); ok {
		t.Fatalf("new cursor must start unset")
	}
}

func TestMemoryCursorConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewMemoryCursor()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Store(miniflux.WatermarkAt(base.Add(time.Duration(i) * time.Second)))
			_ = c.Load()
		}(i)
	}
	wg.Wait()

	if _, ok := c.Load().Time(); !ok {
		t.Fatalf("expected a stored watermark")
	}
}
