package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
)

// migrateCmd creates the catalog schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables if they are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.EnsureSchema(cmd.Context(), database.Pool); err != nil {
			return err
		}
		fmt.Println("Catalog schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
