package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for ytshorts.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE_URL]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with database, storage and provider settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var databaseURL string
		if len(args) > 0 {
			databaseURL = args[0]
		}

		if err := config.InitConfig(databaseURL); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Created configuration file: %s\n", configPath)
		cmd.Println("Please edit the database_url in this file to match your PostgreSQL database,")
		cmd.Println("then run 'ytshorts migrate up'.")

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration file path and effective settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Configuration file: %s\n\n", configPath)

		// Load and display current config
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cmd.Printf("STORE: %s\n", cfg.Store)
		cmd.Printf("DATABASE_URL: %s\n", redactURL(cfg))
		cmd.Printf("STORAGE_DIR: %s\n", cfg.StorageDir)
		cmd.Printf("LOG_LEVEL: %s\n", cfg.LogLevel)
		cmd.Printf("HTTP_ADDR: %s\n", cfg.HTTPAddr)
		if cfg.AMQPURL != "" {
			cmd.Printf("AMQP_URL: set (queue %s)\n", cfg.TelemetryQueue)
		} else {
			cmd.Println("AMQP_URL: not set, telemetry consumer disabled")
		}
		cmd.Printf("WHISPER_MODEL: %s\n", cfg.WhisperModel)
		cmd.Printf("TIMEOUTS: analysis %s, render %s, finalize %s\n",
			cfg.Timeouts.Analysis, cfg.Timeouts.Render, cfg.Timeouts.Finalize)
		cmd.Printf("SWEEP_INTERVAL: %s\n", cfg.SweepInterval)

		return nil
	},
}

// redactURL hides the database password
func redactURL(cfg *config.Config) string {
	dbConfig, err := cfg.ParseDatabaseConfig()
	if err != nil {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s?sslmode=%s",
		dbConfig.User, dbConfig.Host, dbConfig.Port, dbConfig.DBName, dbConfig.SSLMode)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
