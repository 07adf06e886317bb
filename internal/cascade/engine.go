// Package cascade deletes catalog entities together with everything that
// depends on them.
//
// A deletion runs in this order: collect the subtree's image paths, prune the
// files, build the plan, run it in one transaction, then on commit invalidate
// cache keys and publish a notification. Pruned files are not restored when
// the transaction rolls back; storage stays idempotent so a retried request
// treats already-missing files as done.
package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// State is a stage of one deletion request.
type State string

const (
	StateCollectingImages  State = "COLLECTING_IMAGES"
	StatePruningFiles      State = "PRUNING_FILES"
	StateBuildingPlan      State = "BUILDING_PLAN"
	StateInTransaction     State = "IN_TRANSACTION"
	StateCommitted         State = "COMMITTED"
	StateRolledBack        State = "ROLLED_BACK"
	StateInvalidatingCache State = "INVALIDATING_CACHE"
)

// Pruner removes stored files and never fails; it returns how many it removed.
type Pruner interface {
	Prune(ctx context.Context, paths []string) int
}

// Invalidator drops cache keys derived from a committed deletion and returns
// how many keys it deleted.
type Invalidator interface {
	Invalidate(ctx context.Context, scope models.Scope) int
}

// Notifier announces a committed deletion to other services.
type Notifier interface {
	NotifyDeleted(ctx context.Context, opID string, scope models.Scope) error
}

// Result describes one deletion request.
type Result struct {
	OpID             string            `json:"op_id"`
	Root             models.Ref        `json:"root"`
	State            State             `json:"state"`
	States           []State           `json:"states"`
	ImagesFound      int               `json:"images_found"`
	ImagesPruned     int               `json:"images_pruned"`
	MandatorySteps   int               `json:"mandatory_steps"`
	OptionalFailures []OptionalFailure `json:"optional_failures,omitempty"`
	CacheKeysDropped int               `json:"cache_keys_dropped"`
	Scope            *models.Scope     `json:"scope,omitempty"`
	Duration         time.Duration     `json:"duration_ns"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.States = append(r.States, s)
}

// Engine is the caller-facing entry point of cascade deletion.
type Engine struct {
	store       Store
	collector   *ImageCollector
	resolver    *Resolver
	coordinator *Coordinator
	pruner      Pruner
	invalidator Invalidator
	notifier    Notifier
}

// Option configures an Engine
type Option func(*Engine)

// WithInvalidator sets the post-commit cache invalidator.
func WithInvalidator(inv Invalidator) Option {
	return func(e *Engine) { e.invalidator = inv }
}

// WithNotifier sets the post-commit deletion notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// NewEngine creates an engine over store that prunes files with pruner.
func NewEngine(store Store, pruner Pruner, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		collector:   NewImageCollector(store),
		resolver:    NewResolver(),
		coordinator: NewCoordinator(store),
		pruner:      pruner,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeleteCategory removes a category, its products and the brands only it used.
func (e *Engine) DeleteCategory(ctx context.Context, id int) (*Result, error) {
	return e.Delete(ctx, models.Ref{Type: models.EntityCategory, ID: id})
}

// DeleteBrand removes a brand and all of its products.
func (e *Engine) DeleteBrand(ctx context.Context, id int) (*Result, error) {
	return e.Delete(ctx, models.Ref{Type: models.EntityBrand, ID: id})
}

// DeleteProduct removes a product and all of its variants and media.
func (e *Engine) DeleteProduct(ctx context.Context, id int) (*Result, error) {
	return e.Delete(ctx, models.Ref{Type: models.EntityProduct, ID: id})
}

// DeleteVariant removes a single variant.
func (e *Engine) DeleteVariant(ctx context.Context, id int) (*Result, error) {
	return e.Delete(ctx, models.Ref{Type: models.EntityVariant, ID: id})
}

// Delete runs the full cascade for root. Only *NotFoundError and *StepError
// (plus read failures before any side effect) are returned; prune, optional
// step, cache and notification failures are logged and absorbed.
func (e *Engine) Delete(ctx context.Context, root models.Ref) (*Result, error) {
	start := time.Now()
	res := &Result{OpID: logging.NewOpID(), Root: root}
	defer func() { res.Duration = time.Since(start) }()

	if !root.Type.Valid() || root.ID <= 0 {
		return res, fmt.Errorf("%w: %s", ErrInvalidRoot, root)
	}

	exists, err := e.store.Exists(ctx, root)
	if err != nil {
		return res, fmt.Errorf("failed to look up %s: %w", root, err)
	}
	if !exists {
		return res, &NotFoundError{Root: root}
	}

	logging.LogKV(logging.LevelInfo, "cascade delete started", logging.Fields{
		"op_id": res.OpID,
		"root":  root.String(),
	})

	res.enter(StateCollectingImages)
	scope, err := Discover(ctx, e.store, root)
	if err != nil {
		return res, err
	}
	res.Scope = scope
	paths, err := e.collector.CollectScope(ctx, scope)
	if err != nil {
		return res, err
	}
	res.ImagesFound = len(paths)

	res.enter(StatePruningFiles)
	if e.pruner != nil {
		res.ImagesPruned = e.pruner.Prune(ctx, paths)
	}

	res.enter(StateBuildingPlan)
	plan, err := e.resolver.Resolve(scope)
	if err != nil {
		return res, err
	}
	if root.Type == models.EntityProduct {
		e.flagRetainedBrand(ctx, res.OpID, root.ID)
	}

	res.enter(StateInTransaction)
	outcome, err := e.coordinator.Execute(ctx, res.OpID, plan)
	if err != nil {
		res.enter(StateRolledBack)
		return res, err
	}
	res.enter(StateCommitted)
	res.MandatorySteps = outcome.MandatorySteps
	res.OptionalFailures = outcome.OptionalFailures

	logging.LogKV(logging.LevelInfo, "cascade committed", logging.Fields{
		"op_id":             res.OpID,
		"root":              root.String(),
		"products":          len(scope.ProductIDs),
		"variants":          len(scope.VariantIDs),
		"brands":            len(scope.BrandIDs),
		"images_pruned":     res.ImagesPruned,
		"mandatory_steps":   res.MandatorySteps,
		"optional_failures": len(res.OptionalFailures),
	})

	res.enter(StateInvalidatingCache)
	if e.invalidator != nil {
		res.CacheKeysDropped = e.invalidator.Invalidate(ctx, *scope)
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyDeleted(ctx, res.OpID, *scope); err != nil {
			logging.LogKV(logging.LevelWarn, "deletion notification failed", logging.Fields{
				"op_id": res.OpID,
				"root":  root.String(),
				"error": err,
			})
		}
	}
	return res, nil
}

// flagRetainedBrand logs that a product deletion leaves its brand in place
// without checking whether the brand became unreferenced.
func (e *Engine) flagRetainedBrand(ctx context.Context, opID string, productID int) {
	brandID, err := e.store.BrandIDOfProduct(ctx, productID)
	if err != nil || brandID == nil {
		return
	}
	logging.LogKV(logging.LevelInfo, "brand retained after product deletion", logging.Fields{
		"op_id":              opID,
		"product_id":         productID,
		"brand_id":           *brandID,
		"brand_orphan_check": "not_performed",
	})
}
