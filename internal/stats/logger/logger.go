// Package logger provides a zap-based stats collector that logs events.
package logger

import (
	"go.uber.org/zap"

	"github.com/quillback/memocache/internal/stats"
)

// Collector implements stats.Collector by logging events via zap.
type Collector struct {
	logger *zap.Logger
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a logger-based collector. If logger is nil, a no-op logger
// is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

func (c *Collector) Hit() {
	c.logger.Debug("cache hit")
}

func (c *Collector) Miss() {
	c.logger.Debug("cache miss")
}

func (c *Collector) Eviction(count int) {
	c.logger.Debug("cache eviction", zap.Int("entries", count))
}

func (c *Collector) Size(entries int) {
	c.logger.Debug("cache size", zap.Int("entries", entries))
}
