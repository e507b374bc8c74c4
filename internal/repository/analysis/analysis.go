package analysis

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines operations for ContentAnalysisResult persistence.
// One result is kept per content; saving supersedes the previous one.
type Repository interface {
	Save(ctx context.Context, result *model.ContentAnalysisResult) error
	GetByContent(ctx context.Context, contentID string) (*model.ContentAnalysisResult, error)
	Delete(ctx context.Context, contentID string) error
}
