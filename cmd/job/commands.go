package job

import (
	"context"
	"fmt"
	"time"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/orchestrator"
	"github.com/spf13/cobra"
)

// JobService is the part of the orchestrator the job commands drive
type JobService interface {
	CreateRequest(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error)
	Get(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error)
	ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error)
	Approve(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	Rerender(ctx context.Context, id string, segmentIDs []string) (*model.VideoProcessingResult, error)
	Cancel(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	// Wait blocks until background pipeline work has settled
	Wait()
}

// NewJobCommand creates the main job command
func NewJobCommand(service JobService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage processing jobs",
		Long:  `Create processing jobs, follow them to review, then approve, re-render or cancel them`,
	}

	cmd.AddCommand(NewCreateCommand(service))
	cmd.AddCommand(NewGetCommand(service))
	cmd.AddCommand(NewListCommand(service))
	cmd.AddCommand(NewApproveCommand(service))
	cmd.AddCommand(NewRerenderCommand(service))
	cmd.AddCommand(NewCancelCommand(service))

	return cmd
}

// resolveService uses the provided service if available (for testing), otherwise creates the real one
func resolveService(service JobService) (JobService, func(), error) {
	if service != nil {
		return service, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	services, cleanup, err := app.NewServiceFactory().CreateServices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create job service: %w", err)
	}
	return services.Orchestrator, cleanup, nil
}

// printJobs renders jobs with the --format flag
func printJobs(cmd *cobra.Command, jobs ...*model.VideoProcessingResult) error {
	format, _ := cmd.Flags().GetString("format")
	formatter, err := GetFormatter(format)
	if err != nil {
		return err
	}

	output, err := formatter.Format(jobs)
	if err != nil {
		return err
	}
	cmd.Print(output)
	if format == "json" {
		cmd.Println()
	}
	return nil
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", "text", "Output format (text, json)")
}
