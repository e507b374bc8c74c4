package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/internal/config"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long:  `Apply or roll back the embedded PostgreSQL migrations.`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, err := migrationURL()
		if err != nil {
			return err
		}

		if err := common.RunMigrations(databaseURL); err != nil {
			return err
		}
		return printVersion(cmd, databaseURL)
	},
}

// migrateDownCmd rolls migrations back
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		all, _ := cmd.Flags().GetBool("all")
		if all {
			steps = 0
		} else if steps <= 0 {
			return fmt.Errorf("--steps must be positive, or use --all")
		}

		databaseURL, err := migrationURL()
		if err != nil {
			return err
		}

		if err := common.RollbackMigrations(databaseURL, steps); err != nil {
			return err
		}
		return printVersion(cmd, databaseURL)
	},
}

// migrationURL builds the golang-migrate URL from the configured database
func migrationURL() (string, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Store != config.StorePostgres {
		return "", fmt.Errorf("migrations need the postgres store, configured store is %q", cfg.Store)
	}

	dbConfig, err := cfg.ParseDatabaseConfig()
	if err != nil {
		return "", err
	}
	return dbConfig.MigrationURL(), nil
}

func printVersion(cmd *cobra.Command, databaseURL string) error {
	version, dirty, err := common.MigrationVersion(databaseURL)
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateDownCmd.Flags().Bool("all", false, "Roll back every migration")
}
