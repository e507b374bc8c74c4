package content

import (
	"context"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines operations for ContentUpload persistence
type Repository interface {
	Create(ctx context.Context, content *model.ContentUpload) error
	GetByID(ctx context.Context, id string) (*model.ContentUpload, error)
	List(ctx context.Context, limit, offset int) ([]*model.ContentUpload, error)
	// MarkAnalyzed records derived analysis state; the only mutation after creation
	MarkAnalyzed(ctx context.Context, id string, at time.Time) error
	// Delete removes the content and, by cascade, its segments, analyses and jobs
	Delete(ctx context.Context, id string) error
}
