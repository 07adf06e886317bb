package cascade

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// ImageCollector gathers the stored image paths of a subtree. It never writes.
type ImageCollector struct {
	reader Reader
}

// NewImageCollector creates a collector reading through r
func NewImageCollector(r Reader) *ImageCollector {
	return &ImageCollector{reader: r}
}

// CollectScope returns the deduplicated image paths of variant base images and
// image media urls owned by the scope's products and variants, sorted. Paths
// that rows outside the scope still reference are left out so surviving
// entities keep their images.
func (c *ImageCollector) CollectScope(ctx context.Context, scope *models.Scope) ([]string, error) {
	if len(scope.ProductIDs) == 0 && len(scope.VariantIDs) == 0 {
		return []string{}, nil
	}

	base, err := c.reader.VariantImagePaths(ctx, scope.VariantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to collect variant images: %w", err)
	}
	media, err := c.reader.MediaURLPaths(ctx, scope.ProductIDs, scope.VariantIDs, models.MediaTypeImage)
	if err != nil {
		return nil, fmt.Errorf("failed to collect media images: %w", err)
	}

	seen := make(map[string]struct{}, len(base)+len(media))
	paths := make([]string, 0, len(base)+len(media))
	for _, p := range append(base, media...) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return paths, nil
	}

	shared, err := c.reader.PathsReferencedOutside(ctx, paths, scope.ProductIDs, scope.VariantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check shared images: %w", err)
	}
	if len(shared) > 0 {
		inUse := make(map[string]struct{}, len(shared))
		for _, p := range shared {
			inUse[p] = struct{}{}
		}
		owned := paths[:0]
		for _, p := range paths {
			if _, ok := inUse[p]; !ok {
				owned = append(owned, p)
			}
		}
		paths = owned
	}
	sort.Strings(paths)
	return paths, nil
}
