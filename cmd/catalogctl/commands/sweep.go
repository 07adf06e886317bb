package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// sweepCmd removes orphaned secondary rows
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove rows that reference deleted products or variants",
	Long: `Remove cart, wishlist, order, alert, review, discount and coupon rows whose
product or variant no longer exists. These are left behind when a best-effort
cleanup step of a deletion failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		report, sweepErr := database.SweepOrphanedDependents(cmd.Context())
		if jsonOutput {
			if err := printJSON(report); err != nil {
				return err
			}
			return sweepErr
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tREMOVED")
		for _, table := range models.VariantSecondaryTables {
			fmt.Fprintf(w, "%s\t%d\n", table, report[table])
		}
		fmt.Fprintf(w, "total\t%d\n", report.Total())
		if err := w.Flush(); err != nil {
			return err
		}
		return sweepErr
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
