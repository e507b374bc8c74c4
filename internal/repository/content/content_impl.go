package content

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `id, title, description, content_type, duration_seconds, source_ref,
	preferred_aspect_ratio, preferred_duration, analyzed_at, created_at, updated_at`

// contentRepository implements Repository using PostgreSQL
type contentRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &contentRepository{
		pool: pool,
	}
}

// Create inserts a new content record
func (r *contentRepository) Create(ctx context.Context, content *model.ContentUpload) error {
	sql := `INSERT INTO contents
		(id, title, description, content_type, duration_seconds, source_ref,
		 preferred_aspect_ratio, preferred_duration, analyzed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, sql,
		content.ID,
		content.Title,
		content.Description,
		string(content.ContentType),
		content.DurationSeconds,
		content.SourceRef,
		string(content.PreferredAspectRatio),
		content.PreferredDuration,
		content.AnalyzedAt,
		content.CreatedAt,
		content.UpdatedAt,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to create content")
	}
	return nil
}

// GetByID retrieves a content record by its ID
func (r *contentRepository) GetByID(ctx context.Context, id string) (*model.ContentUpload, error) {
	sql := `SELECT ` + selectColumns + ` FROM contents WHERE id = $1`

	content, err := scanContent(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get content")
	}
	return content, nil
}

// List retrieves content records, newest first
func (r *contentRepository) List(ctx context.Context, limit, offset int) ([]*model.ContentUpload, error) {
	sql := `SELECT ` + selectColumns + ` FROM contents
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list contents")
	}
	defer rows.Close()

	var contents []*model.ContentUpload
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan content")
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate contents")
	}

	return contents, nil
}

// MarkAnalyzed sets analyzed_at and advances updated_at
func (r *contentRepository) MarkAnalyzed(ctx context.Context, id string, at time.Time) error {
	sql := `UPDATE contents SET analyzed_at = $2, updated_at = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, sql, id, at)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to mark content analyzed")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
	}
	return nil
}

// Delete removes a content record
func (r *contentRepository) Delete(ctx context.Context, id string) error {
	sql := "DELETE FROM contents WHERE id = $1"

	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete content")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
	}
	return nil
}

func scanContent(row pgx.Row) (*model.ContentUpload, error) {
	var (
		content     model.ContentUpload
		contentType string
		aspectRatio string
	)
	err := row.Scan(
		&content.ID,
		&content.Title,
		&content.Description,
		&contentType,
		&content.DurationSeconds,
		&content.SourceRef,
		&aspectRatio,
		&content.PreferredDuration,
		&content.AnalyzedAt,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	content.ContentType = model.ContentType(contentType)
	content.PreferredAspectRatio = model.AspectRatio(aspectRatio)
	return &content, nil
}
