package processing

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines persistence for processing jobs
type Repository interface {
	// Create inserts a new job. It fails with CONFLICT when the content already
	// has a job in a non-terminal state.
	Create(ctx context.Context, job *model.VideoProcessingResult) error
	GetByID(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error)
	ListByStatus(ctx context.Context, statuses ...model.ProcessingStatus) ([]*model.VideoProcessingResult, error)
	List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error)
	// Transition applies update only if the job is still in update.From.
	// A job that has moved on yields CONFLICT and is left untouched.
	Transition(ctx context.Context, id string, update model.StatusUpdate) (*model.VideoProcessingResult, error)
	Delete(ctx context.Context, id string) error
}
