package template

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `id, name, description, aspect_ratio, suitable_content_types, preview_ref, caption_style, overlay_color`

// templateRepository implements Repository using PostgreSQL
type templateRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &templateRepository{
		pool: pool,
	}
}

// Upsert inserts or replaces a template
func (r *templateRepository) Upsert(ctx context.Context, template *model.VideoTemplate) error {
	style, err := json.Marshal(template.CaptionStyle)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode caption style")
	}

	types := make([]string, len(template.SuitableContentTypes))
	for i, t := range template.SuitableContentTypes {
		types[i] = string(t)
	}

	sql := `INSERT INTO video_templates
		(id, name, description, aspect_ratio, suitable_content_types, preview_ref, caption_style, overlay_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			aspect_ratio = EXCLUDED.aspect_ratio,
			suitable_content_types = EXCLUDED.suitable_content_types,
			preview_ref = EXCLUDED.preview_ref,
			caption_style = EXCLUDED.caption_style,
			overlay_color = EXCLUDED.overlay_color`

	_, err = r.pool.Exec(ctx, sql,
		template.ID,
		template.Name,
		template.Description,
		string(template.AspectRatio),
		types,
		template.PreviewRef,
		style,
		template.OverlayColor,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to upsert template")
	}
	return nil
}

// GetByID retrieves a template by its ID
func (r *templateRepository) GetByID(ctx context.Context, id string) (*model.VideoTemplate, error) {
	sql := `SELECT ` + selectColumns + ` FROM video_templates WHERE id = $1`

	template, err := scanTemplate(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "template not found: %s", id)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get template")
	}
	return template, nil
}

// List retrieves all templates ordered by id
func (r *templateRepository) List(ctx context.Context) ([]*model.VideoTemplate, error) {
	sql := `SELECT ` + selectColumns + ` FROM video_templates ORDER BY id`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list templates")
	}
	defer rows.Close()

	var templates []*model.VideoTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan template")
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate templates")
	}

	return templates, nil
}

// Delete removes a template
func (r *templateRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM video_templates WHERE id = $1", id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete template")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "template not found: %s", id)
	}
	return nil
}

func scanTemplate(row pgx.Row) (*model.VideoTemplate, error) {
	var (
		template    model.VideoTemplate
		aspectRatio string
		types       []string
		style       []byte
	)
	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&aspectRatio,
		&types,
		&template.PreviewRef,
		&style,
		&template.OverlayColor,
	)
	if err != nil {
		return nil, err
	}

	template.AspectRatio = model.AspectRatio(aspectRatio)
	template.SuitableContentTypes = make([]model.ContentType, len(types))
	for i, t := range types {
		template.SuitableContentTypes[i] = model.ContentType(t)
	}
	if len(style) > 0 {
		if err := json.Unmarshal(style, &template.CaptionStyle); err != nil {
			return nil, err
		}
	}
	return &template, nil
}
