package cascade

import (
	"context"
	"fmt"
	"sort"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// StepKind tells the coordinator whether a failing step aborts the plan.
type StepKind int

const (
	Mandatory StepKind = iota
	Optional
)

func (k StepKind) String() string {
	if k == Optional {
		return "optional"
	}
	return "mandatory"
}

// Step is one deletion executed inside the plan's transaction.
type Step struct {
	Name string
	Kind StepKind
	Run  func(ctx context.Context, tx Tx) error
}

// Plan is the ordered cascade for one root entity. Mandatory steps run in
// order, children before parents; optional steps run after all of them.
type Plan struct {
	Root      models.Ref
	Scope     *models.Scope
	Mandatory []Step
	Optional  []Step
}

// StepNames lists mandatory then optional step names, in execution order.
func (p *Plan) StepNames() []string {
	names := make([]string, 0, len(p.Mandatory)+len(p.Optional))
	for _, s := range p.Mandatory {
		names = append(names, s.Name)
	}
	for _, s := range p.Optional {
		names = append(names, s.Name)
	}
	return names
}

// Discover enumerates the products and variants under root. It is read-only.
func Discover(ctx context.Context, r Reader, root models.Ref) (*models.Scope, error) {
	scope := &models.Scope{Root: root, VariantsByProduct: map[int][]int{}}

	switch root.Type {
	case models.EntityVariant:
		productID, err := r.ProductIDOfVariant(ctx, root.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product of %s: %w", root, err)
		}
		scope.ParentProductID = productID
		scope.VariantIDs = []int{root.ID}
		return scope, nil
	case models.EntityProduct:
		scope.ProductIDs = []int{root.ID}
	case models.EntityBrand:
		ids, err := r.ProductIDsByBrand(ctx, root.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load products of %s: %w", root, err)
		}
		scope.ProductIDs = ids
	case models.EntityCategory:
		ids, err := r.ProductIDsByCategory(ctx, root.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load products of %s: %w", root, err)
		}
		scope.ProductIDs = ids
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoot, root.Type)
	}

	if len(scope.ProductIDs) == 0 {
		return scope, nil
	}
	byProduct, err := r.VariantIDsByProducts(ctx, scope.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants of %s: %w", root, err)
	}
	for _, pid := range scope.ProductIDs {
		vids := append([]int(nil), byProduct[pid]...)
		sort.Ints(vids)
		scope.VariantsByProduct[pid] = vids
		scope.VariantIDs = append(scope.VariantIDs, vids...)
	}
	return scope, nil
}

// Resolver turns a discovered scope into a cascade plan.
type Resolver struct{}

// NewResolver creates a new resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve builds the plan for scope.Root. The scope is retained by the plan;
// the category audit step records exclusively-owned brands into it.
func (r *Resolver) Resolve(scope *models.Scope) (*Plan, error) {
	root := scope.Root
	plan := &Plan{Root: root, Scope: scope}

	switch root.Type {
	case models.EntityVariant:
		plan.Mandatory = variantSteps(root.ID)
		plan.Optional = secondarySteps(root, models.VariantSecondaryTables, nil, []int{root.ID})

	case models.EntityProduct:
		plan.Mandatory = productSteps(root.ID, scope.VariantsByProduct[root.ID])
		plan.Optional = secondarySteps(root, models.ProductSecondaryTables, scope.ProductIDs, scope.VariantIDs)

	case models.EntityBrand:
		for _, pid := range scope.ProductIDs {
			plan.Mandatory = append(plan.Mandatory, productSteps(pid, scope.VariantsByProduct[pid])...)
		}
		plan.Mandatory = append(plan.Mandatory, Step{
			Name: fmt.Sprintf("%s: row", root),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				if err := expectRows(tx.DeleteBrand(ctx, root.ID)); err != nil {
					return err
				}
				scope.BrandIDs = []int{root.ID}
				return nil
			},
		})
		plan.Optional = secondarySteps(root, models.ProductSecondaryTables, scope.ProductIDs, scope.VariantIDs)

	case models.EntityCategory:
		plan.Mandatory = categorySteps(scope)
		plan.Optional = secondarySteps(root, models.ProductSecondaryTables, scope.ProductIDs, scope.VariantIDs)

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoot, root.Type)
	}

	return plan, nil
}

// variantSteps removes a variant and everything it owns. Exclusive attribute
// values are identified while the variant's links still exist and deleted
// once the links are gone.
func variantSteps(variantID int) []Step {
	ref := models.Ref{Type: models.EntityVariant, ID: variantID}
	var exclusive []int

	return []Step{
		{
			Name: fmt.Sprintf("%s: exclusive attribute values", ref),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				ids, err := tx.ExclusiveAttributeValueIDs(ctx, variantID)
				if err != nil {
					return err
				}
				exclusive = ids
				return nil
			},
		},
		{
			Name: fmt.Sprintf("%s: variant attribute links", ref),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				_, err := tx.DeleteVariantAttributeLinks(ctx, variantID)
				return err
			},
		},
		{
			Name: fmt.Sprintf("%s: orphaned attribute values", ref),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				if len(exclusive) == 0 {
					return nil
				}
				_, err := tx.DeleteUnreferencedAttributeValues(ctx, exclusive)
				return err
			},
		},
		mediaURLStep(ref),
		mediaStep(ref),
		{
			Name: fmt.Sprintf("%s: row", ref),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				return expectRows(tx.DeleteVariant(ctx, variantID))
			},
		},
	}
}

// productSteps removes every variant of the product, the product's own media
// and finally the product row.
func productSteps(productID int, variantIDs []int) []Step {
	ref := models.Ref{Type: models.EntityProduct, ID: productID}
	var steps []Step
	for _, vid := range variantIDs {
		steps = append(steps, variantSteps(vid)...)
	}
	return append(steps,
		mediaURLStep(ref),
		mediaStep(ref),
		Step{
			Name: fmt.Sprintf("%s: row", ref),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				return expectRows(tx.DeleteProduct(ctx, productID))
			},
		},
	)
}

// categorySteps audits brand ownership before any product is touched, then
// removes the products, the exclusively-owned brands and the category.
func categorySteps(scope *models.Scope) []Step {
	root := scope.Root
	var owned []int

	steps := []Step{{
		Name: fmt.Sprintf("%s: brand ownership audit", root),
		Kind: Mandatory,
		Run: func(ctx context.Context, tx Tx) error {
			candidates, err := tx.DistinctBrandIDs(ctx, scope.ProductIDs)
			if err != nil {
				return err
			}
			owned, err = ExclusiveBrands(ctx, tx, candidates, root.ID)
			return err
		},
	}}

	for _, pid := range scope.ProductIDs {
		steps = append(steps, productSteps(pid, scope.VariantsByProduct[pid])...)
	}

	return append(steps,
		Step{
			Name: fmt.Sprintf("%s: exclusively-owned brands", root),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				for _, bid := range owned {
					if err := expectRows(tx.DeleteBrand(ctx, bid)); err != nil {
						return fmt.Errorf("brand#%d: %w", bid, err)
					}
				}
				scope.BrandIDs = append([]int(nil), owned...)
				return nil
			},
		},
		Step{
			Name: fmt.Sprintf("%s: detach subcategories", root),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				_, err := tx.DetachChildCategories(ctx, root.ID)
				return err
			},
		},
		Step{
			Name: fmt.Sprintf("%s: row", root),
			Kind: Mandatory,
			Run: func(ctx context.Context, tx Tx) error {
				return expectRows(tx.DeleteCategory(ctx, root.ID))
			},
		},
	)
}

func mediaURLStep(owner models.Ref) Step {
	return Step{
		Name: fmt.Sprintf("%s: media urls", owner),
		Kind: Mandatory,
		Run: func(ctx context.Context, tx Tx) error {
			_, err := tx.DeleteMediaURLs(ctx, owner)
			return err
		},
	}
}

func mediaStep(owner models.Ref) Step {
	return Step{
		Name: fmt.Sprintf("%s: media", owner),
		Kind: Mandatory,
		Run: func(ctx context.Context, tx Tx) error {
			_, err := tx.DeleteMedia(ctx, owner)
			return err
		},
	}
}

// secondarySteps builds one best-effort step per soft-referencing table.
func secondarySteps(root models.Ref, tables []models.SecondaryTable, productIDs, variantIDs []int) []Step {
	if len(productIDs) == 0 && len(variantIDs) == 0 {
		return nil
	}
	steps := make([]Step, 0, len(tables))
	for _, table := range tables {
		table := table
		steps = append(steps, Step{
			Name: fmt.Sprintf("%s: %s", root, table),
			Kind: Optional,
			Run: func(ctx context.Context, tx Tx) error {
				_, err := tx.DeleteSecondary(ctx, table, productIDs, variantIDs)
				return err
			},
		})
	}
	return steps
}

func expectRows(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowVanished
	}
	return nil
}
