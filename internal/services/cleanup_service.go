package services

import (
	"context"
	"sync"
	"time"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// Sweeper removes rows left behind by optional cascade steps that failed.
type Sweeper interface {
	SweepOrphanedDependents(ctx context.Context) (db.SweepReport, error)
}

// CleanupService periodically sweeps orphaned secondary rows
type CleanupService struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(sweeper Sweeper, interval time.Duration) *CleanupService {
	return &CleanupService{
		sweeper:  sweeper,
		interval: interval,
		timeout:  2 * time.Minute,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep right away and then one per interval until Stop.
func (c *CleanupService) Start() {
	logging.LogKV(logging.LevelInfo, "starting cleanup service", logging.Fields{"interval": c.interval.String()})

	ticker := time.NewTicker(c.interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()

		c.runCleanup()
		for {
			select {
			case <-ticker.C:
				c.runCleanup()
			case <-c.stopChan:
				logging.LogKV(logging.LevelInfo, "cleanup service stopped", nil)
				return
			}
		}
	}()
}

// Stop stops the cleanup service and waits for a running sweep to finish
func (c *CleanupService) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	<-c.done
}

func (c *CleanupService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	report, err := c.sweeper.SweepOrphanedDependents(ctx)
	if err != nil {
		logging.LogKV(logging.LevelWarn, "periodic orphan sweep incomplete", logging.Fields{
			"removed": report.Total(),
			"error":   err,
		})
		return
	}
	logging.LogKV(logging.LevelInfo, "periodic orphan sweep completed", logging.Fields{"removed": report.Total()})
}
