package job

import (
	"context"
	"fmt"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get job command
func NewGetCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [JOB_ID]",
		Short: "Get a processing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			job, err := jobService.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}
			return printJobs(cmd, job)
		},
	}

	addFormatFlag(cmd)

	return cmd
}

// NewListCommand creates the list jobs command
func NewListCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processing jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, _ := cmd.Flags().GetString("content")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			var jobs []*model.VideoProcessingResult
			if contentID != "" {
				jobs, err = jobService.ListByContent(ctx, contentID)
			} else {
				jobs, err = jobService.List(ctx, limit, offset)
			}
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			if len(jobs) == 0 {
				cmd.Println("No jobs found")
				return nil
			}
			return printJobs(cmd, jobs...)
		},
	}

	cmd.Flags().String("content", "", "Only list jobs for this content ID")
	cmd.Flags().Int("limit", 20, "Maximum number of jobs to list")
	cmd.Flags().Int("offset", 0, "Number of jobs to skip")
	addFormatFlag(cmd)

	return cmd
}
