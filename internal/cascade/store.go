package cascade

import (
	"context"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// Reader is the read-only view of the catalog used before the transaction opens.
type Reader interface {
	Exists(ctx context.Context, ref models.Ref) (bool, error)
	ProductIDsByCategory(ctx context.Context, categoryID int) ([]int, error)
	ProductIDsByBrand(ctx context.Context, brandID int) ([]int, error)
	// VariantIDsByProducts maps each product id to its variant ids.
	VariantIDsByProducts(ctx context.Context, productIDs []int) (map[int][]int, error)
	ProductIDOfVariant(ctx context.Context, variantID int) (int, error)
	BrandIDOfProduct(ctx context.Context, productID int) (*int, error)
	VariantImagePaths(ctx context.Context, variantIDs []int) ([]string, error)
	// MediaURLPaths returns urls of the given media type for media owned by
	// any of the products or variants.
	MediaURLPaths(ctx context.Context, productIDs, variantIDs []int, mediaType string) ([]string, error)
	// PathsReferencedOutside returns the subset of paths still used as a base
	// image or media url by a variant or media row outside the given products
	// and variants.
	PathsReferencedOutside(ctx context.Context, paths []string, productIDs, variantIDs []int) ([]string, error)
}

// Tx is the write side of the catalog, valid only inside Store.WithTx.
// Delete methods return the number of affected rows.
type Tx interface {
	OwnershipQuerier

	ExclusiveAttributeValueIDs(ctx context.Context, variantID int) ([]int, error)
	DeleteVariantAttributeLinks(ctx context.Context, variantID int) (int64, error)
	DeleteUnreferencedAttributeValues(ctx context.Context, ids []int) (int64, error)

	// DeleteMediaURLs and DeleteMedia operate on media owned by a product or a variant.
	DeleteMediaURLs(ctx context.Context, owner models.Ref) (int64, error)
	DeleteMedia(ctx context.Context, owner models.Ref) (int64, error)

	DeleteVariant(ctx context.Context, id int) (int64, error)
	DeleteProduct(ctx context.Context, id int) (int64, error)
	DeleteBrand(ctx context.Context, id int) (int64, error)
	DetachChildCategories(ctx context.Context, id int) (int64, error)
	DeleteCategory(ctx context.Context, id int) (int64, error)

	// DeleteSecondary removes rows of a soft-referencing table that point at
	// any of the products or variants.
	DeleteSecondary(ctx context.Context, table models.SecondaryTable, productIDs, variantIDs []int) (int64, error)

	// Nested runs fn in a savepoint. An error from fn rolls back only the
	// work done inside fn.
	Nested(ctx context.Context, fn func(Tx) error) error
}

// Store opens atomic transactions over the catalog.
type Store interface {
	Reader
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
