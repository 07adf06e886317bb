package media

import (
	"context"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// Pruner deletes image files ahead of a catalog deletion. Failures are
// logged and never stop the remaining files from being tried.
type Pruner struct {
	store Store
}

// NewPruner creates a pruner over store
func NewPruner(store Store) *Pruner {
	return &Pruner{store: store}
}

// Prune removes every path it can resolve and returns how many files were
// actually removed.
func (p *Pruner) Prune(ctx context.Context, paths []string) int {
	removed := 0
	seen := make(map[string]struct{}, len(paths))

	for _, raw := range paths {
		key, ok := p.store.Resolve(raw)
		if !ok {
			logging.LogKV(logging.LevelInfo, "image path skipped", logging.Fields{
				"backend": p.store.Name(),
				"path":    raw,
			})
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		ok, err := p.store.Remove(ctx, key)
		if err != nil {
			logging.LogKV(logging.LevelWarn, "image prune failed", logging.Fields{
				"backend": p.store.Name(),
				"key":     key,
				"error":   err,
			})
			continue
		}
		if ok {
			removed++
		}
	}
	return removed
}
