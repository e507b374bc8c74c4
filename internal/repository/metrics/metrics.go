package metrics

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines persistence for per-video performance metrics
type Repository interface {
	Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error)
	// Upsert stores m unless the stored row is at least as recent, in which case
	// it returns CONFLICT.
	Upsert(ctx context.Context, m *model.PerformanceMetrics) error
	// List returns metrics for the given videos ordered by video id. Unknown ids are skipped.
	List(ctx context.Context, videoIDs []string) ([]*model.PerformanceMetrics, error)
}
