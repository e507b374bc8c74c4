package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytshorts",
	Short: "Turn long-form videos into short-form clips",
	Long: `ytshorts analyses an uploaded video into scored segments, lets you edit
the clip timeline, renders a preview with a presentation template and
finalizes it once approved.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		return logging.Init(level, !jsonLogs)
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON instead of console text")
}
