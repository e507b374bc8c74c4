package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/content"
)

// contentCmd represents the content command
var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage uploaded videos",
	Long:  `Upload long-form videos, analyse them into scored segments and remove them.`,
}

// contentCreateCmd uploads a new video
var contentCreateCmd = &cobra.Command{
	Use:   "create [SOURCE_PATH]",
	Short: "Upload a video file",
	Long: `Copy a local video file into media storage and register it. The duration
is probed with ffprobe unless --duration is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		rawType, _ := cmd.Flags().GetString("type")
		rawAspect, _ := cmd.Flags().GetString("aspect-ratio")
		duration, _ := cmd.Flags().GetFloat64("duration")
		preferred, _ := cmd.Flags().GetInt("preferred-duration")

		contentType, err := model.ParseContentType(rawType)
		if err != nil {
			return err
		}

		req := content.CreateRequest{
			Title:           title,
			ContentType:     contentType,
			SourcePath:      args[0],
			DurationSeconds: duration,
		}
		if description != "" {
			req.Description = &description
		}
		if rawAspect != "" {
			if req.AspectRatio, err = model.ParseAspectRatio(rawAspect); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("preferred-duration") {
			req.PreferredDuration = &preferred
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			c, err := services.Contents.Create(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create content: %w", err)
			}
			cmd.Printf("Content created successfully: %s\n", c.ID)
			return printContent(cmd, c)
		})
	},
}

// contentGetCmd shows one upload and its latest analysis
var contentGetCmd = &cobra.Command{
	Use:   "get [CONTENT_ID]",
	Short: "Show a video and its analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		return withServices(func(ctx context.Context, services *app.Services) error {
			c, err := services.Contents.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get content: %w", err)
			}

			result, err := services.Contents.AnalysisOf(ctx, c.ID)
			if err != nil && !errors.Is(err, errors.CodeNotFound) {
				return fmt.Errorf("failed to get analysis: %w", err)
			}

			if format == "json" {
				return printJSON(cmd, struct {
					Content  *model.ContentUpload         `json:"content"`
					Analysis *model.ContentAnalysisResult `json:"analysis,omitempty"`
				}{c, result})
			}

			if err := printContent(cmd, c); err != nil {
				return err
			}
			if result != nil {
				printAnalysis(cmd, result)
			}
			return nil
		})
	},
}

// contentListCmd lists uploads
var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded videos, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		return withServices(func(ctx context.Context, services *app.Services) error {
			contents, err := services.Contents.List(ctx, limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list contents: %w", err)
			}

			if len(contents) == 0 {
				cmd.Println("No contents found")
				return nil
			}

			for _, c := range contents {
				analyzed := "no"
				if c.AnalyzedAt != nil {
					analyzed = c.AnalyzedAt.Format("2006-01-02 15:04:05")
				}
				cmd.Printf("%s  %-13s %7.1fs  analyzed: %-19s  %s\n",
					c.ID, c.ContentType, c.DurationSeconds, analyzed, c.Title)
			}
			return nil
		})
	},
}

// contentDeleteCmd removes an upload and everything derived from it
var contentDeleteCmd = &cobra.Command{
	Use:   "delete [CONTENT_ID]",
	Short: "Delete a video with its segments, jobs and media",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentID := args[0]
		force, _ := cmd.Flags().GetBool("force")

		if !force && !confirm(cmd, fmt.Sprintf("Are you sure you want to delete content %s?", contentID)) {
			cmd.Println("Deletion cancelled")
			return nil
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			if err := services.Contents.Delete(ctx, contentID); err != nil {
				return fmt.Errorf("failed to delete content: %w", err)
			}
			cmd.Printf("Content %s deleted successfully\n", contentID)
			return nil
		})
	},
}

// contentAnalyzeCmd runs the analysis provider
var contentAnalyzeCmd = &cobra.Command{
	Use:   "analyze [CONTENT_ID]",
	Short: "Transcribe and segment a video",
	Long: `Run the analysis provider on a video, score the resulting segments and
replace the stored segment set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		return withServices(func(ctx context.Context, services *app.Services) error {
			start := time.Now()
			result, err := services.Contents.Analyze(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to analyze content: %w", err)
			}

			if format == "json" {
				return printJSON(cmd, result)
			}
			cmd.Printf("Analysis finished in %s\n", time.Since(start).Round(time.Millisecond))
			printAnalysis(cmd, result)
			return nil
		})
	},
}

func printContent(cmd *cobra.Command, c *model.ContentUpload) error {
	cmd.Printf("ID: %s\n", c.ID)
	cmd.Printf("Title: %s\n", c.Title)
	if c.Description != nil {
		cmd.Printf("Description: %s\n", *c.Description)
	}
	cmd.Printf("Type: %s\n", c.ContentType)
	cmd.Printf("Duration: %.1fs\n", c.DurationSeconds)
	cmd.Printf("Aspect Ratio: %s\n", c.PreferredAspectRatio)
	if c.PreferredDuration != nil {
		cmd.Printf("Preferred Duration: %ds\n", *c.PreferredDuration)
	}
	cmd.Printf("Source: %s\n", c.SourceRef)
	cmd.Printf("Created At: %s\n", c.CreatedAt.Format(time.RFC3339))
	return nil
}

func printAnalysis(cmd *cobra.Command, result *model.ContentAnalysisResult) {
	cmd.Println("\nAnalysis:")
	cmd.Printf("Keywords: %s\n", strings.Join(result.Keywords, ", "))
	cmd.Printf("Summary: %s\n", result.Summary)
	cmd.Printf("Recommended Templates: %s\n", strings.Join(result.RecommendedTemplateIDs, ", "))
	cmd.Printf("Predicted Engagement: %.2f\n", result.EngagementPrediction)
	cmd.Printf("\nSegments (%d):\n", len(result.Segments))
	printSegments(cmd, result.Segments)
}

func init() {
	rootCmd.AddCommand(contentCmd)
	contentCmd.AddCommand(contentCreateCmd)
	contentCmd.AddCommand(contentGetCmd)
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentDeleteCmd)
	contentCmd.AddCommand(contentAnalyzeCmd)

	contentCreateCmd.Flags().String("title", "", "Video title")
	contentCreateCmd.Flags().String("description", "", "Video description")
	contentCreateCmd.Flags().String("type", "", "Content type (educational, promotional, entertainment, tutorial, interview, presentation)")
	contentCreateCmd.Flags().String("aspect-ratio", "", "Preferred aspect ratio (9:16, 1:1, 16:9)")
	contentCreateCmd.Flags().Float64("duration", 0, "Duration in seconds; probed from the file when omitted")
	contentCreateCmd.Flags().Int("preferred-duration", 0, "Preferred clip length in seconds (15-60)")
	contentCreateCmd.MarkFlagRequired("title")
	contentCreateCmd.MarkFlagRequired("type")

	contentGetCmd.Flags().String("format", "text", "Output format (text, json)")
	contentAnalyzeCmd.Flags().String("format", "text", "Output format (text, json)")

	contentListCmd.Flags().Int("limit", 20, "Maximum number of contents to list")
	contentListCmd.Flags().Int("offset", 0, "Number of contents to skip")

	contentDeleteCmd.Flags().Bool("force", false, "Force deletion without confirmation")
}
