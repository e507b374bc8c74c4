package job

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewApproveCommand creates the approve job command
func NewApproveCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve [JOB_ID]",
		Short: "Approve a job in review and render the final artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			job, err := jobService.Approve(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to approve job: %w", err)
			}
			cmd.Println("Job approved successfully")
			return printJobs(cmd, job)
		},
	}

	addFormatFlag(cmd)

	return cmd
}

// NewRerenderCommand creates the rerender job command
func NewRerenderCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rerender [JOB_ID]",
		Short: "Render a new preview for a job in review",
		Long: `Render a new preview with the current segment bounds. The previous preview
is kept in the job's history. --segments replaces the selected segments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segmentIDs, _ := cmd.Flags().GetStringSlice("segments")

			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			job, err := jobService.Rerender(ctx, args[0], segmentIDs)
			if err != nil {
				return fmt.Errorf("failed to rerender job: %w", err)
			}

			jobService.Wait()

			job, err = jobService.Get(ctx, job.ID)
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}
			return printJobs(cmd, job)
		},
	}

	cmd.Flags().StringSlice("segments", nil, "Comma-separated segment IDs replacing the current selection")
	addFormatFlag(cmd)

	return cmd
}

// NewCancelCommand creates the cancel job command
func NewCancelCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel [JOB_ID]",
		Short: "Cancel a job that has not finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			if !force {
				cmd.Printf("Are you sure you want to cancel job %s? (y/N): ", args[0])
				var response string
				fmt.Fscanln(cmd.InOrStdin(), &response)

				if response != "y" && response != "Y" && response != "yes" {
					cmd.Println("Cancellation aborted")
					return nil
				}
			}

			jobService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			job, err := jobService.Cancel(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to cancel job: %w", err)
			}
			cmd.Printf("Job %s cancelled\n", job.ID)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Cancel without confirmation")

	return cmd
}
