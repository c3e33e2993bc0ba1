package storage

import (
	"sync"

	"framecheck/internal/config"
	"framecheck/internal/logger"
	"framecheck/internal/model"
)

// DefaultBadFrameLimit is how many bad frames are retained when the config does not say.
// It is also the upper bound for a configured limit.
const DefaultBadFrameLimit = config.MaxBadFramesLimit

// BadFrameCollector keeps the most recent bad frames in insertion order.
// When full, the oldest record is evicted before a new one is appended.
type BadFrameCollector struct {
	records []model.BadFrameRecord
	limit   int
	mu      sync.Mutex
	logger  *logger.Logger
}

// NewBadFrameCollector creates a collector bounded by config.MaxBadFrames, never above DefaultBadFrameLimit.
func NewBadFrameCollector(config *config.Config, logger *logger.Logger) *BadFrameCollector {
	limit := DefaultBadFrameLimit
	if config != nil && config.MaxBadFrames > 0 && config.MaxBadFrames < limit {
		limit = config.MaxBadFrames
	}
	return &BadFrameCollector{
		records: make([]model.BadFrameRecord, 0, limit),
		limit:   limit,
		logger:  logger,
	}
}

// AddBadFrame appends a record, evicting the oldest one if the collector is full.
func (c *BadFrameCollector) AddBadFrame(record model.BadFrameRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) >= c.limit {
		evicted := c.records[0]
		copy(c.records, c.records[1:])
		c.records = c.records[:len(c.records)-1]
		if c.logger != nil {
			c.logger.Info("Bad frame buffer full (%d), dropped oldest: %s", c.limit, evicted.Reason)
		}
	}
	c.records = append(c.records, record)
}

// GetBadFrames returns a copy of the records, oldest first.
func (c *BadFrameCollector) GetBadFrames() []model.BadFrameRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.BadFrameRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Reset drops all records.
func (c *BadFrameCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = c.records[:0]
}

func (c *BadFrameCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *BadFrameCollector) Limit() int {
	return c.limit
}
