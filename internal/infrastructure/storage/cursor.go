package storage

import (
	"sync"

	"FeedNotifier/internal/infrastructure/miniflux"
)

// MemoryCursor keeps the fetch watermark in process memory.
type MemoryCursor struct {
	mu        sync.RWMutex
	watermark miniflux.Watermark
}

var _ miniflux.CursorStore = (*MemoryCursor)(nil)

// NewMemoryCursor starts with an unset watermark.
func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{}
}

// Load returns the current watermark.
func (c *MemoryCursor) Load() miniflux.Watermark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watermark
}

// Store replaces the watermark.
func (c *MemoryCursor) Store(w miniflux.Watermark) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watermark = w
}
