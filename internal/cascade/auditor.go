package cascade

import (
	"context"
	"fmt"
)

// OwnershipQuerier answers the brand-sharing questions asked during a
// category deletion. It must see the products that are about to be deleted.
type OwnershipQuerier interface {
	DistinctBrandIDs(ctx context.Context, productIDs []int) ([]int, error)
	// BrandsReferencedOutside returns the subset of brandIDs that some product
	// of a category other than categoryID still references.
	BrandsReferencedOutside(ctx context.Context, brandIDs []int, categoryID int) ([]int, error)
}

// ExclusiveBrands returns the candidates that no product outside categoryID
// references. It is only meaningful before the category's own products are
// deleted: afterwards every candidate would look unreferenced.
func ExclusiveBrands(ctx context.Context, q OwnershipQuerier, candidates []int, categoryID int) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	external, err := q.BrandsReferencedOutside(ctx, candidates, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit brand ownership: %w", err)
	}
	shared := make(map[int]struct{}, len(external))
	for _, id := range external {
		shared[id] = struct{}{}
	}

	var exclusive []int
	for _, id := range candidates {
		if _, ok := shared[id]; !ok {
			exclusive = append(exclusive, id)
		}
	}
	return exclusive, nil
}
