package cache

import (
	"fmt"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// Aggregate keys read by the storefront and the admin dashboard.
const (
	KeyCategories     = "catalog:categories"
	KeyBrands         = "catalog:brands"
	KeyProducts       = "catalog:products"
	KeyAttributes     = "catalog:attributes"
	KeyDashboardStats = "catalog:dashboard:stats"
)

func CategoryKey(id int) string        { return fmt.Sprintf("catalog:category:%d", id) }
func BrandKey(id int) string           { return fmt.Sprintf("catalog:brand:%d", id) }
func ProductKey(id int) string         { return fmt.Sprintf("catalog:product:%d", id) }
func ProductVariantsKey(id int) string { return fmt.Sprintf("catalog:product:%d:variants", id) }
func VariantKey(id int) string         { return fmt.Sprintf("catalog:variant:%d", id) }

// KeysFor returns the exact keys to drop after scope was deleted. A variant
// deletion only touches its own key and its product's keys.
func KeysFor(scope models.Scope) []string {
	var keys []string
	add := func(k ...string) { keys = append(keys, k...) }
	products := func() {
		for _, id := range scope.ProductIDs {
			add(ProductKey(id), ProductVariantsKey(id))
		}
		for _, id := range scope.VariantIDs {
			add(VariantKey(id))
		}
	}

	switch scope.Root.Type {
	case models.EntityVariant:
		add(VariantKey(scope.Root.ID))
		if scope.ParentProductID != 0 {
			add(ProductKey(scope.ParentProductID), ProductVariantsKey(scope.ParentProductID))
		}
	case models.EntityProduct:
		add(KeyProducts)
		products()
		add(KeyAttributes, KeyDashboardStats)
	case models.EntityBrand:
		add(KeyBrands, BrandKey(scope.Root.ID), KeyProducts)
		products()
		add(KeyAttributes, KeyDashboardStats)
	case models.EntityCategory:
		add(KeyCategories, CategoryKey(scope.Root.ID), KeyBrands)
		for _, id := range scope.BrandIDs {
			add(BrandKey(id))
		}
		add(KeyProducts)
		products()
		add(KeyAttributes, KeyDashboardStats)
	}
	return dedupe(keys)
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
