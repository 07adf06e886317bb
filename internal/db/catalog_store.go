package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/cascade"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var entityTables = map[models.EntityType]string{
	models.EntityCategory: "categories",
	models.EntityBrand:    "brands",
	models.EntityProduct:  "products",
	models.EntityVariant:  "product_variants",
}

// CatalogStore is the PostgreSQL implementation of cascade.Store.
type CatalogStore struct {
	db *Database
}

// NewCatalogStore creates a store over db
func NewCatalogStore(db *Database) *CatalogStore {
	return &CatalogStore{db: db}
}

var _ cascade.Store = (*CatalogStore)(nil)

func (s *CatalogStore) Exists(ctx context.Context, ref models.Ref) (bool, error) {
	table, ok := entityTables[ref.Type]
	if !ok {
		return false, fmt.Errorf("%w: %q", cascade.ErrInvalidRoot, ref.Type)
	}
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, pgx.Identifier{table}.Sanitize())
	var exists bool
	if err := s.db.Pool.QueryRow(ctx, query, ref.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", ref, err)
	}
	return exists, nil
}

func (s *CatalogStore) ProductIDsByCategory(ctx context.Context, categoryID int) ([]int, error) {
	return queryInts(ctx, s.db.Pool, `SELECT id FROM products WHERE category_id = $1 ORDER BY id`, categoryID)
}

func (s *CatalogStore) ProductIDsByBrand(ctx context.Context, brandID int) ([]int, error) {
	return queryInts(ctx, s.db.Pool, `SELECT id FROM products WHERE brand_id = $1 ORDER BY id`, brandID)
}

func (s *CatalogStore) VariantIDsByProducts(ctx context.Context, productIDs []int) (map[int][]int, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT product_id, id FROM product_variants WHERE product_id = ANY($1::int[]) ORDER BY product_id, id`,
		productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]int)
	for rows.Next() {
		var productID, variantID int
		if err := rows.Scan(&productID, &variantID); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		out[productID] = append(out[productID], variantID)
	}
	return out, rows.Err()
}

func (s *CatalogStore) ProductIDOfVariant(ctx context.Context, variantID int) (int, error) {
	var productID int
	err := s.db.Pool.QueryRow(ctx, `SELECT product_id FROM product_variants WHERE id = $1`, variantID).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &cascade.NotFoundError{Root: models.Ref{Type: models.EntityVariant, ID: variantID}}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get product of variant %d: %w", variantID, err)
	}
	return productID, nil
}

func (s *CatalogStore) BrandIDOfProduct(ctx context.Context, productID int) (*int, error) {
	var brandID *int
	err := s.db.Pool.QueryRow(ctx, `SELECT brand_id FROM products WHERE id = $1`, productID).Scan(&brandID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &cascade.NotFoundError{Root: models.Ref{Type: models.EntityProduct, ID: productID}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand of product %d: %w", productID, err)
	}
	return brandID, nil
}

func (s *CatalogStore) VariantImagePaths(ctx context.Context, variantIDs []int) ([]string, error) {
	return queryStrings(ctx, s.db.Pool, `
		SELECT base_image_url FROM product_variants
		WHERE id = ANY($1::int[]) AND base_image_url IS NOT NULL AND base_image_url <> ''`,
		variantIDs)
}

func (s *CatalogStore) MediaURLPaths(ctx context.Context, productIDs, variantIDs []int, mediaType string) ([]string, error) {
	return queryStrings(ctx, s.db.Pool, `
		SELECT u.url
		FROM product_media_urls u
		JOIN product_media m ON m.id = u.product_media_id
		WHERE u.media_type = $3
		  AND (m.product_id = ANY($1::int[]) OR m.variant_id = ANY($2::int[]))`,
		productIDs, variantIDs, mediaType)
}

func (s *CatalogStore) PathsReferencedOutside(ctx context.Context, paths []string, productIDs, variantIDs []int) ([]string, error) {
	return queryStrings(ctx, s.db.Pool, `
		SELECT p FROM unnest($1::text[]) AS p
		WHERE EXISTS (
			SELECT 1 FROM product_variants v
			WHERE btrim(v.base_image_url) = p
			  AND NOT COALESCE(v.id = ANY($3::int[]), false)
		) OR EXISTS (
			SELECT 1 FROM product_media_urls u
			JOIN product_media m ON m.id = u.product_media_id
			WHERE btrim(u.url) = p
			  AND NOT COALESCE(m.product_id = ANY($2::int[]), false)
			  AND NOT COALESCE(m.variant_id = ANY($3::int[]), false)
		)`,
		paths, productIDs, variantIDs)
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *CatalogStore) WithTx(ctx context.Context, fn func(cascade.Tx) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pgTx implements cascade.Tx over a pgx transaction or savepoint.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Nested(ctx context.Context, fn func(cascade.Tx) error) error {
	return pgx.BeginFunc(ctx, t.tx, func(sub pgx.Tx) error {
		return fn(&pgTx{tx: sub})
	})
}

func (t *pgTx) DistinctBrandIDs(ctx context.Context, productIDs []int) ([]int, error) {
	return queryInts(ctx, t.tx, `
		SELECT DISTINCT brand_id FROM products
		WHERE id = ANY($1::int[]) AND brand_id IS NOT NULL
		ORDER BY brand_id`, productIDs)
}

func (t *pgTx) BrandsReferencedOutside(ctx context.Context, brandIDs []int, categoryID int) ([]int, error) {
	return queryInts(ctx, t.tx, `
		SELECT DISTINCT brand_id FROM products
		WHERE brand_id = ANY($1::int[]) AND category_id <> $2
		ORDER BY brand_id`, brandIDs, categoryID)
}

func (t *pgTx) ExclusiveAttributeValueIDs(ctx context.Context, variantID int) ([]int, error) {
	return queryInts(ctx, t.tx, `
		SELECT vav.attribute_value_id
		FROM variant_attribute_values vav
		WHERE vav.variant_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM variant_attribute_values other
			WHERE other.attribute_value_id = vav.attribute_value_id
			  AND other.variant_id <> $1
		  )
		ORDER BY vav.attribute_value_id`, variantID)
}

func (t *pgTx) DeleteVariantAttributeLinks(ctx context.Context, variantID int) (int64, error) {
	return exec(ctx, t.tx, `DELETE FROM variant_attribute_values WHERE variant_id = $1`, variantID)
}

func (t *pgTx) DeleteUnreferencedAttributeValues(ctx context.Context, ids []int) (int64, error) {
	return exec(ctx, t.tx, `
		DELETE FROM attribute_values av
		WHERE av.id = ANY($1::int[])
		  AND NOT EXISTS (SELECT 1 FROM variant_attribute_values vav WHERE vav.attribute_value_id = av.id)`, ids)
}

func ownerColumn(owner models.Ref) (string, error) {
	switch owner.Type {
	case models.EntityProduct:
		return "product_id", nil
	case models.EntityVariant:
		return "variant_id", nil
	}
	return "", fmt.Errorf("media cannot be owned by %s", owner.Type)
}

func (t *pgTx) DeleteMediaURLs(ctx context.Context, owner models.Ref) (int64, error) {
	col, err := ownerColumn(owner)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		DELETE FROM product_media_urls
		WHERE product_media_id IN (SELECT id FROM product_media WHERE %s = $1)`, pgx.Identifier{col}.Sanitize())
	return exec(ctx, t.tx, query, owner.ID)
}

func (t *pgTx) DeleteMedia(ctx context.Context, owner models.Ref) (int64, error) {
	col, err := ownerColumn(owner)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM product_media WHERE %s = $1`, pgx.Identifier{col}.Sanitize())
	return exec(ctx, t.tx, query, owner.ID)
}

func (t *pgTx) DeleteVariant(ctx context.Context, id int) (int64, error) {
	return exec(ctx, t.tx, `DELETE FROM product_variants WHERE id = $1`, id)
}

func (t *pgTx) DeleteProduct(ctx context.Context, id int) (int64, error) {
	return exec(ctx, t.tx, `DELETE FROM products WHERE id = $1`, id)
}

func (t *pgTx) DeleteBrand(ctx context.Context, id int) (int64, error) {
	return exec(ctx, t.tx, `DELETE FROM brands WHERE id = $1`, id)
}

func (t *pgTx) DetachChildCategories(ctx context.Context, id int) (int64, error) {
	return exec(ctx, t.tx, `UPDATE categories SET parent_id = NULL WHERE parent_id = $1`, id)
}

func (t *pgTx) DeleteCategory(ctx context.Context, id int) (int64, error) {
	return exec(ctx, t.tx, `DELETE FROM categories WHERE id = $1`, id)
}

func (t *pgTx) DeleteSecondary(ctx context.Context, table models.SecondaryTable, productIDs, variantIDs []int) (int64, error) {
	if !isSecondaryTable(table) {
		return 0, fmt.Errorf("unknown secondary table %q", table)
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE product_id = ANY($1::int[]) OR variant_id = ANY($2::int[])`,
		pgx.Identifier{string(table)}.Sanitize())
	return exec(ctx, t.tx, query, productIDs, variantIDs)
}

func isSecondaryTable(table models.SecondaryTable) bool {
	for _, t := range models.VariantSecondaryTables {
		if t == table {
			return true
		}
	}
	return false
}

func exec(ctx context.Context, q querier, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, describe(err)
	}
	return tag.RowsAffected(), nil
}

func queryInts(ctx context.Context, q querier, sql string, args ...any) ([]int, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, describe(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, describe(err)
	}
	return ids, nil
}

func queryStrings(ctx context.Context, q querier, sql string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, describe(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, describe(err)
	}
	return out, nil
}

// describe adds the SQLSTATE and constraint of a PostgreSQL error.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ConstraintName != "" {
			return fmt.Errorf("%s (sqlstate %s, constraint %s): %w", pgErr.Message, pgErr.Code, pgErr.ConstraintName, err)
		}
		return fmt.Errorf("%s (sqlstate %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}
