package job

import (
	"context"
	"fmt"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/orchestrator"
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create job command
func NewCreateCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [CONTENT_ID]",
		Short: "Create a processing job and run it to review",
		Long: `Create a processing job for the selected segments of a content item.
The command runs analysis and rendering and returns once the job reaches
review or fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID := args[0]

			templateID, _ := cmd.Flags().GetString("template")
			segmentIDs, _ := cmd.Flags().GetStringSlice("segments")
			allowMismatch, _ := cmd.Flags().GetBool("allow-template-mismatch")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if templateID == "" {
				return fmt.Errorf("--template is required")
			}
			if len(segmentIDs) == 0 {
				return fmt.Errorf("--segments is required")
			}

			req := model.VideoProcessingRequest{
				ContentID:          contentID,
				SelectedSegmentIDs: segmentIDs,
				TemplateID:         templateID,
			}

			if dryRun {
				cmd.Println("=== DRY RUN MODE ===")
				cmd.Printf("Content ID: %s\n", req.ContentID)
				cmd.Printf("Template: %s\n", req.TemplateID)
				cmd.Printf("Segments: %v\n", req.SelectedSegmentIDs)
				cmd.Println("No job was created.")
				return nil
			}

			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			job, err := jobService.CreateRequest(ctx, req, orchestrator.Options{AllowTemplateMismatch: allowMismatch})
			if err != nil {
				return fmt.Errorf("failed to create job: %w", err)
			}
			cmd.Printf("Job %s created, processing...\n", job.ID)

			jobService.Wait()

			job, err = jobService.Get(ctx, job.ID)
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}
			return printJobs(cmd, job)
		},
	}

	cmd.Flags().String("template", "", "Template ID to render with")
	cmd.Flags().StringSlice("segments", nil, "Comma-separated segment IDs to include, in order")
	cmd.Flags().Bool("allow-template-mismatch", false, "Accept a template not suited to the content type")
	cmd.Flags().Bool("dry-run", false, "Show the request without creating a job")
	addFormatFlag(cmd)

	return cmd
}
