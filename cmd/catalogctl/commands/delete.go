package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/app"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/cascade"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

var (
	// Delete flags
	dryRun bool
)

// deleteCmd groups the per-entity delete commands
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Cascade-delete a catalog entity",
	Long: `Delete a catalog entity together with everything that depends on it.

Examples:
  catalogctl delete product 42              # Delete product 42, its variants and media
  catalogctl delete category 7 --dry-run    # Show the plan and images without deleting
  catalogctl delete variant 9 --json        # Print the result as JSON`,
}

func newDeleteEntityCmd(entity models.EntityType) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <id>", entity),
		Short: fmt.Sprintf("Delete a %s and its dependents", entity),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid %s id %q", entity, args[0])
			}
			root := models.Ref{Type: entity, ID: id}
			if dryRun {
				return runDeletePlan(cmd.Context(), root)
			}
			return runDelete(cmd.Context(), root)
		},
	}
}

func runDelete(ctx context.Context, root models.Ref) error {
	a, err := app.New(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Engine.Delete(ctx, root)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Deleted\t%s\n", res.Root)
	fmt.Fprintf(w, "Operation\t%s\n", res.OpID)
	fmt.Fprintf(w, "Products\t%d\n", len(res.Scope.ProductIDs))
	fmt.Fprintf(w, "Variants\t%d\n", len(res.Scope.VariantIDs))
	fmt.Fprintf(w, "Brands\t%v\n", res.Scope.BrandIDs)
	fmt.Fprintf(w, "Images pruned\t%d/%d\n", res.ImagesPruned, res.ImagesFound)
	fmt.Fprintf(w, "Cache keys dropped\t%d\n", res.CacheKeysDropped)
	fmt.Fprintf(w, "Duration\t%s\n", res.Duration)
	for _, f := range res.OptionalFailures {
		fmt.Fprintf(w, "Skipped\t%s: %s\n", f.Step, f.Reason)
	}
	return w.Flush()
}

type planReport struct {
	Root   models.Ref    `json:"root"`
	Scope  *models.Scope `json:"scope"`
	Steps  []string      `json:"steps"`
	Images []string      `json:"images"`
}

func runDeletePlan(ctx context.Context, root models.Ref) error {
	database, err := connect(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	store := db.NewCatalogStore(database)
	exists, err := store.Exists(ctx, root)
	if err != nil {
		return err
	}
	if !exists {
		return &cascade.NotFoundError{Root: root}
	}

	scope, err := cascade.Discover(ctx, store, root)
	if err != nil {
		return err
	}
	images, err := cascade.NewImageCollector(store).CollectScope(ctx, scope)
	if err != nil {
		return err
	}
	plan, err := cascade.NewResolver().Resolve(scope)
	if err != nil {
		return err
	}

	report := planReport{Root: root, Scope: scope, Steps: plan.StepNames(), Images: images}
	if jsonOutput {
		return printJSON(report)
	}
	fmt.Printf("Plan for %s (%d products, %d variants)\n", root, len(scope.ProductIDs), len(scope.VariantIDs))
	for i, s := range plan.Mandatory {
		fmt.Printf("  %3d. %s\n", i+1, s.Name)
	}
	for _, s := range plan.Optional {
		fmt.Printf("     ~ %s\n", s.Name)
	}
	fmt.Printf("Images (%d)\n", len(images))
	for _, p := range images {
		fmt.Printf("     %s\n", p)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	for _, entity := range []models.EntityType{
		models.EntityCategory, models.EntityBrand, models.EntityProduct, models.EntityVariant,
	} {
		deleteCmd.AddCommand(newDeleteEntityCmd(entity))
	}
	deleteCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print the plan and image paths without deleting anything")
}
