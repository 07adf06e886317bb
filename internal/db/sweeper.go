package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// SweepReport counts the rows removed per secondary table.
type SweepReport map[models.SecondaryTable]int64

// Total returns the number of rows removed across all tables.
func (r SweepReport) Total() int64 {
	var n int64
	for _, v := range r {
		n += v
	}
	return n
}

// SweepOrphanedDependents removes secondary rows whose product or variant no
// longer exists. They are left behind when an optional cascade step fails.
// A failing table is logged and the sweep moves on to the next one.
func (db *Database) SweepOrphanedDependents(ctx context.Context) (SweepReport, error) {
	report := make(SweepReport, len(models.VariantSecondaryTables))
	var errs []error

	for _, table := range models.VariantSecondaryTables {
		query := fmt.Sprintf(`
			DELETE FROM %s t
			WHERE (t.product_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM products p WHERE p.id = t.product_id))
			   OR (t.variant_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM product_variants v WHERE v.id = t.variant_id))`,
			pgx.Identifier{string(table)}.Sanitize())

		n, err := exec(ctx, db.Pool, query)
		if err != nil {
			logging.LogKV(logging.LevelWarn, "orphan sweep failed", logging.Fields{"table": string(table), "error": err})
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
			continue
		}
		report[table] = n
	}

	logging.LogKV(logging.LevelInfo, "orphan sweep finished", logging.Fields{
		"removed": report.Total(),
		"failed":  len(errs),
	})
	return report, errors.Join(errs...)
}
