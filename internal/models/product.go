package models

import (
	"fmt"
	"time"
)

// EntityType names a catalog entity that can be the root of a cascade deletion
type EntityType string

const (
	EntityCategory EntityType = "category"
	EntityBrand    EntityType = "brand"
	EntityProduct  EntityType = "product"
	EntityVariant  EntityType = "variant"
)

// Valid reports whether t is one of the four deletable root types
func (t EntityType) Valid() bool {
	switch t {
	case EntityCategory, EntityBrand, EntityProduct, EntityVariant:
		return true
	}
	return false
}

// Ref identifies a single catalog entity
type Ref struct {
	Type EntityType `json:"type"`
	ID   int        `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// MediaTypeImage is the product_media_urls.media_type value for pictures
const MediaTypeImage = "image"

// Category represents a product category
// Backed by table `categories`
type Category struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Slug           string    `json:"slug" db:"slug"`
	TargetAudience *string   `json:"target_audience,omitempty" db:"target_audience"`
	ParentID       *int      `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Brand represents a manufacturer brand; products of many categories may share one
// Backed by table `brands`
type Brand struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product represents a product in the catalog
// Backed by table `products`
type Product struct {
	ID         int       `json:"id" db:"id"`
	CategoryID int       `json:"category_id" db:"category_id"`
	BrandID    *int      `json:"brand_id,omitempty" db:"brand_id"`
	Name       string    `json:"name" db:"name"`
	Slug       string    `json:"slug" db:"slug"`
	BasePrice  float64   `json:"base_price" db:"base_price"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ProductVariant is a purchasable SKU of a product
// Backed by table `product_variants`
type ProductVariant struct {
	ID            int     `json:"id" db:"id"`
	ProductID     int     `json:"product_id" db:"product_id"`
	SKU           string  `json:"sku" db:"sku"`
	Price         float64 `json:"price" db:"price"`
	StockQuantity int     `json:"stock_quantity" db:"stock_quantity"`
	BaseImageURL  *string `json:"base_image_url,omitempty" db:"base_image_url"`
}

// AttributeValue is a concrete value of an attribute, e.g. Color=Red
// Backed by table `attribute_values`
type AttributeValue struct {
	ID          int    `json:"id" db:"id"`
	AttributeID int    `json:"attribute_id" db:"attribute_id"`
	Value       string `json:"value" db:"value"`
}

// VariantAttributeValue links a variant to one of its attribute values
// Backed by table `variant_attribute_values`
type VariantAttributeValue struct {
	VariantID        int `json:"variant_id" db:"variant_id"`
	AttributeValueID int `json:"attribute_value_id" db:"attribute_value_id"`
}

// ProductMedia is a container of media urls owned by a product or a variant
// Backed by table `product_media`
type ProductMedia struct {
	ID        int  `json:"id" db:"id"`
	ProductID *int `json:"product_id,omitempty" db:"product_id"`
	VariantID *int `json:"variant_id,omitempty" db:"variant_id"`
}

// ProductMediaURL is one stored file of a media container
// Backed by table `product_media_urls`
type ProductMediaURL struct {
	ID             int    `json:"id" db:"id"`
	ProductMediaID int    `json:"product_media_id" db:"product_media_id"`
	URL            string `json:"url" db:"url"`
	MediaType      string `json:"media_type" db:"media_type"`
}

// SecondaryTable is a table whose rows softly reference products or variants.
// Rows left behind after a deletion are tolerated and swept later.
type SecondaryTable string

const (
	TableCartItems      SecondaryTable = "cart_items"
	TableWishlistItems  SecondaryTable = "wishlist_items"
	TableOrderItems     SecondaryTable = "order_items"
	TableStockAlerts    SecondaryTable = "stock_alerts"
	TableProductReviews SecondaryTable = "product_reviews"
	TableDiscountRules  SecondaryTable = "discount_rules"
	TableCoupons        SecondaryTable = "coupons"
)

// VariantSecondaryTables lists secondary tables in the order used for variant deletion
var VariantSecondaryTables = []SecondaryTable{
	TableCartItems,
	TableWishlistItems,
	TableOrderItems,
	TableStockAlerts,
	TableProductReviews,
	TableDiscountRules,
	TableCoupons,
}

// ProductSecondaryTables lists secondary tables in the order used for product, brand and category deletion
var ProductSecondaryTables = []SecondaryTable{
	TableProductReviews,
	TableCartItems,
	TableCoupons,
	TableDiscountRules,
	TableOrderItems,
	TableStockAlerts,
	TableWishlistItems,
}

// Scope is the set of entities removed by one cascade deletion
type Scope struct {
	Root Ref `json:"root"`
	// ParentProductID is the owning product when Root is a variant
	ParentProductID   int           `json:"parent_product_id,omitempty"`
	ProductIDs        []int         `json:"product_ids"`
	VariantIDs        []int         `json:"variant_ids"`
	VariantsByProduct map[int][]int `json:"-"`
	// BrandIDs is filled while the transaction runs: the brand itself for a
	// brand root, the exclusively-owned brands for a category root.
	BrandIDs []int `json:"brand_ids"`
}
