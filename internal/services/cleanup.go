package services

import (
	"context"
	"sync"
	"time"

	"github.com/phimkappa/phimkappa/internal/cache"
	"github.com/phimkappa/phimkappa/internal/constants"
	"github.com/phimkappa/phimkappa/pkg/logger"
)

// CleanupService periodically removes expired resolutions from stores
// that do not expire entries on their own.
type CleanupService struct {
	sweeper  cache.Sweeper
	logger   logger.Logger
	interval time.Duration
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupService creates a cleanup service for sweeper.
func NewCleanupService(sweeper cache.Sweeper, log logger.Logger) *CleanupService {
	return &CleanupService{
		sweeper:  sweeper,
		logger:   log,
		interval: constants.CacheSweepInterval,
		stopChan: make(chan struct{}),
	}
}

// SetInterval sets how often cleanup runs
func (c *CleanupService) SetInterval(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = duration
}

// Start begins the cleanup service
func (c *CleanupService) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	interval := c.interval
	c.mu.Unlock()

	c.logger.Infof("[Cleanup] starting cache sweep with interval: %v", interval)

	c.performCleanup()

	go c.cleanupLoop(ctx, interval)

	return nil
}

// Stop stops the cleanup service
func (c *CleanupService) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	c.running = false
	close(c.stopChan)
	c.logger.Infof("[Cleanup] cache sweep stopped")
}

func (c *CleanupService) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.performCleanup()
		}
	}
}

func (c *CleanupService) performCleanup() int {
	removed, err := c.sweeper.Sweep()
	if err != nil {
		c.logger.Errorf("[Cleanup] cache sweep failed: %v", err)
		return removed
	}
	if removed > 0 {
		c.logger.Infof("[Cleanup] removed %d expired resolutions", removed)
	} else {
		c.logger.Debugf("[Cleanup] no expired resolutions")
	}
	return removed
}

// CleanupNow performs an immediate sweep and returns the number of removed entries.
func (c *CleanupService) CleanupNow() int {
	return c.performCleanup()
}
