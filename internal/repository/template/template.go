package template

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Repository defines operations for VideoTemplate reference data
type Repository interface {
	Upsert(ctx context.Context, template *model.VideoTemplate) error
	GetByID(ctx context.Context, id string) (*model.VideoTemplate, error)
	// List returns every template ordered by id
	List(ctx context.Context) ([]*model.VideoTemplate, error)
	Delete(ctx context.Context, id string) error
}
