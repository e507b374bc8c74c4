package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Track performance of published videos",
	Long: `Record telemetry snapshots for published videos and report per-video,
account-level and per-template performance. A published video is identified
by the ID of its completed job.`,
}

// metricsGetCmd shows one video's metrics
var metricsGetCmd = &cobra.Command{
	Use:   "get [VIDEO_ID]",
	Short: "Show metrics for a published video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, services *app.Services) error {
			m, err := services.Metrics.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get metrics: %w", err)
			}
			return printJSON(cmd, m)
		})
	},
}

// metricsIngestCmd records one snapshot
var metricsIngestCmd = &cobra.Command{
	Use:   "ingest [VIDEO_ID]",
	Short: "Record a telemetry snapshot",
	Long: `Record a telemetry snapshot either from flags or from a JSON file given with
--file (the same document the telemetry queue carries). Snapshots not newer
than the stored one are rejected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := snapshotFromFlags(cmd, args)
		if err != nil {
			return err
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			m, err := services.Metrics.Ingest(ctx, snapshot)
			if err != nil {
				return fmt.Errorf("failed to ingest snapshot: %w", err)
			}
			cmd.Println("Snapshot recorded successfully")
			return printJSON(cmd, m)
		})
	},
}

// metricsSummaryCmd aggregates several videos
var metricsSummaryCmd = &cobra.Command{
	Use:   "summary [VIDEO_ID...]",
	Short: "Summarize metrics across videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, services *app.Services) error {
			summary, err := services.Metrics.AccountSummary(ctx, args)
			if err != nil {
				return fmt.Errorf("failed to summarize metrics: %w", err)
			}
			return printJSON(cmd, summary)
		})
	},
}

// metricsReportCmd reports on a date range
var metricsReportCmd = &cobra.Command{
	Use:   "report [VIDEO_ID...]",
	Short: "Report performance over a date range",
	Long: `Summarize videos whose metrics were last updated in [--from, --to) and list
the best five by engagement rate. Without VIDEO_IDs every published video is
considered. Dates are YYYY-MM-DD or RFC3339; the range defaults to the last
30 days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := reportRange(cmd, time.Now().UTC())
		if err != nil {
			return err
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			report, err := services.Metrics.Report(ctx, args, from, to)
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}
			return printJSON(cmd, report)
		})
	},
}

// reportRange reads --from and --to, defaulting to the 30 days before now
func reportRange(cmd *cobra.Command, now time.Time) (time.Time, time.Time, error) {
	to := now
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = at
	}
	from := to.AddDate(0, 0, -30)
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		from = at
	}
	return from, to, nil
}

func parseDate(raw string) (time.Time, error) {
	if at, err := time.Parse(time.DateOnly, raw); err == nil {
		return at, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// metricsTemplatesCmd ranks templates by engagement
var metricsTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Rank templates by engagement for a content type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawType, _ := cmd.Flags().GetString("type")
		contentType, err := model.ParseContentType(rawType)
		if err != nil {
			return err
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			ranking, err := services.Metrics.RankTemplates(ctx, contentType)
			if err != nil {
				return fmt.Errorf("failed to rank templates: %w", err)
			}

			if len(ranking) == 0 {
				cmd.Printf("No templates suit %s content\n", contentType)
				return nil
			}
			for i, tp := range ranking {
				cmd.Printf("%d. %-10s videos %-4d engagement %.4f\n", i+1, tp.TemplateID, tp.Videos, tp.AvgEngagementRate)
			}
			return nil
		})
	},
}

// snapshotFromFlags reads --file when given, otherwise builds the snapshot from flags
func snapshotFromFlags(cmd *cobra.Command, args []string) (model.TelemetrySnapshot, error) {
	var snapshot model.TelemetrySnapshot

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return snapshot, fmt.Errorf("failed to read snapshot file: %w", err)
		}
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return snapshot, fmt.Errorf("failed to parse snapshot file: %w", err)
		}
		if len(args) == 1 {
			snapshot.VideoID = args[0]
		}
		return snapshot, nil
	}

	if len(args) == 0 {
		return snapshot, fmt.Errorf("VIDEO_ID is required without --file")
	}

	snapshot.VideoID = args[0]
	snapshot.Views, _ = cmd.Flags().GetInt64("views")
	snapshot.Likes, _ = cmd.Flags().GetInt64("likes")
	snapshot.Comments, _ = cmd.Flags().GetInt64("comments")
	snapshot.Shares, _ = cmd.Flags().GetInt64("shares")
	snapshot.Impressions, _ = cmd.Flags().GetInt64("impressions")
	snapshot.Clicks, _ = cmd.Flags().GetInt64("clicks")
	snapshot.AverageWatchTime, _ = cmd.Flags().GetFloat64("watch-time")
	snapshot.VideoDuration, _ = cmd.Flags().GetFloat64("video-duration")

	snapshot.ObservedAt = time.Now().UTC()
	if raw, _ := cmd.Flags().GetString("observed-at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return snapshot, fmt.Errorf("invalid --observed-at: %w", err)
		}
		snapshot.ObservedAt = at
	}
	return snapshot, nil
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.AddCommand(metricsGetCmd)
	metricsCmd.AddCommand(metricsIngestCmd)
	metricsCmd.AddCommand(metricsSummaryCmd)
	metricsCmd.AddCommand(metricsTemplatesCmd)
	metricsCmd.AddCommand(metricsReportCmd)

	flags := metricsIngestCmd.Flags()
	flags.String("file", "", "JSON snapshot file")
	flags.Int64("views", 0, "Total views")
	flags.Int64("likes", 0, "Total likes")
	flags.Int64("comments", 0, "Total comments")
	flags.Int64("shares", 0, "Total shares")
	flags.Int64("impressions", 0, "Total impressions")
	flags.Int64("clicks", 0, "Total clicks")
	flags.Float64("watch-time", 0, "Average watch time in seconds")
	flags.Float64("video-duration", 0, "Video duration in seconds")
	flags.String("observed-at", "", "Observation time (RFC3339), defaults to now")

	metricsReportCmd.Flags().String("from", "", "Start of the range, inclusive (YYYY-MM-DD or RFC3339)")
	metricsReportCmd.Flags().String("to", "", "End of the range, exclusive (YYYY-MM-DD or RFC3339), defaults to now")

	metricsTemplatesCmd.Flags().String("type", "", "Content type to rank templates for")
	metricsTemplatesCmd.MarkFlagRequired("type")
}
