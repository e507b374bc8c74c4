package segment

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines operations for VideoSegment persistence
type Repository interface {
	// ReplaceAll swaps the whole segment set of a content item in one step.
	// It reports false and writes nothing when the stored set already equals segments.
	ReplaceAll(ctx context.Context, contentID string, segments []model.VideoSegment) (bool, error)
	ListByContent(ctx context.Context, contentID string) ([]model.VideoSegment, error)
	GetByID(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error)
	// Insert appends a segment after the last position of its content
	Insert(ctx context.Context, segment *model.VideoSegment) error
	UpdateBounds(ctx context.Context, contentID, segmentID string, start, end float64) (*model.VideoSegment, error)
	ToggleSelected(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error)
	// Rescore hands the current set to score while holding it locked and writes
	// back only the importance and engagement scores score returns, matched by
	// segment ID. Selection and bounds are never written.
	Rescore(ctx context.Context, contentID string, score func([]model.VideoSegment) []model.VideoSegment) ([]model.VideoSegment, error)
	DeleteByContent(ctx context.Context, contentID string) error
}
