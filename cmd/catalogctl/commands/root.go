package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/config"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
)

var (
	// Global flags
	dbURL      string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Catalog administration tool",
	Long: `catalogctl runs catalog maintenance against the catalog database.

Commands:
  delete   - Cascade-delete a category, brand, product or variant
  sweep    - Remove cart, order and review rows pointing at deleted products
  migrate  - Create the catalog tables if they are missing

Settings are read from the environment (and .env) like the service does.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
}

// Execute runs the root command. SIGINT cancels a running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func loadConfig() config.Config {
	cfg := config.Load()
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	return cfg
}

func connect(ctx context.Context) (*db.Database, error) {
	return db.NewDatabaseWithRetry(ctx, loadConfig().Database, 3, time.Second)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
