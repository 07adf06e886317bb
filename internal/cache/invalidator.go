package cache

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// Deleter removes a single cache key.
type Deleter interface {
	Delete(ctx context.Context, key string) (bool, error)
}

// Invalidator drops the keys of a committed deletion. Keys are independent
// and deleted concurrently; failures are logged and left to expire by TTL.
type Invalidator struct {
	client      Deleter
	parallelism int
}

// NewInvalidator creates an invalidator. A nil client turns it into a no-op.
func NewInvalidator(client Deleter) *Invalidator {
	return &Invalidator{client: client, parallelism: 8}
}

// Invalidate deletes KeysFor(scope) and returns how many keys existed.
func (i *Invalidator) Invalidate(ctx context.Context, scope models.Scope) int {
	keys := KeysFor(scope)
	if i.client == nil {
		logging.LogKV(logging.LevelInfo, "cache invalidation skipped", logging.Fields{
			"root":   scope.Root.String(),
			"reason": "no cache client",
			"keys":   len(keys),
		})
		return 0
	}

	var dropped, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.parallelism)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			ok, err := i.client.Delete(gctx, key)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				logging.LogKV(logging.LevelWarn, "cache key invalidation failed", logging.Fields{
					"root":  scope.Root.String(),
					"key":   key,
					"error": err,
				})
				return nil
			}
			if ok {
				atomic.AddInt64(&dropped, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.LogKV(logging.LevelInfo, "cache invalidated", logging.Fields{
		"root":    scope.Root.String(),
		"keys":    len(keys),
		"dropped": dropped,
		"failed":  failed,
	})
	return int(dropped)
}
