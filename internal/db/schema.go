package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// EnsureSchema creates the catalog tables. Safe to call at startup; idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("nil pool")
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			target_audience TEXT,
			parent_id INTEGER REFERENCES categories(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS brands (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			category_id INTEGER NOT NULL REFERENCES categories(id),
			brand_id INTEGER REFERENCES brands(id),
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			base_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand_id);`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			id SERIAL PRIMARY KEY,
			product_id INTEGER NOT NULL REFERENCES products(id),
			sku TEXT NOT NULL,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			stock_quantity INTEGER NOT NULL DEFAULT 0,
			base_image_url TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants(product_id);`,
		`CREATE TABLE IF NOT EXISTS attributes (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS attribute_values (
			id SERIAL PRIMARY KEY,
			attribute_id INTEGER NOT NULL REFERENCES attributes(id),
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS variant_attribute_values (
			variant_id INTEGER NOT NULL REFERENCES product_variants(id),
			attribute_value_id INTEGER NOT NULL REFERENCES attribute_values(id),
			PRIMARY KEY (variant_id, attribute_value_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_vav_value ON variant_attribute_values(attribute_value_id);`,
		`CREATE TABLE IF NOT EXISTS product_media (
			id SERIAL PRIMARY KEY,
			product_id INTEGER REFERENCES products(id),
			variant_id INTEGER REFERENCES product_variants(id)
		);`,
		`CREATE TABLE IF NOT EXISTS product_media_urls (
			id SERIAL PRIMARY KEY,
			product_media_id INTEGER NOT NULL REFERENCES product_media(id),
			url TEXT NOT NULL,
			media_type TEXT NOT NULL DEFAULT 'image'
		);`,
	}
	for _, table := range models.VariantSecondaryTables {
		name := pgx.Identifier{string(table)}.Sanitize()
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			product_id INTEGER,
			variant_id INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, name))
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range stmts {
		if _, err := tx.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	logging.LogKV(logging.LevelInfo, "catalog schema ensured", logging.Fields{"statements": len(stmts)})
	return nil
}
