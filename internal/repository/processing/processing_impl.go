package processing

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `id, content_id, template_id, segment_ids, brand_asset_ids, custom_settings, status,
	preview_ref, final_ref, render_job_ref, error_message, cancelled, warnings, preview_history,
	lease_expires_at, created_at, updated_at`

// processingRepository implements Repository using PostgreSQL
type processingRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &processingRepository{
		pool: pool,
	}
}

// Create inserts a job row. Admission is enforced by the partial unique index
// processing_results_one_active_per_content.
func (r *processingRepository) Create(ctx context.Context, job *model.VideoProcessingResult) error {
	settings, history, err := encodeJSON(job)
	if err != nil {
		return err
	}

	sql := `INSERT INTO processing_results
		(id, content_id, template_id, segment_ids, brand_asset_ids, custom_settings, status,
		 preview_ref, final_ref, render_job_ref, error_message, cancelled, warnings, preview_history,
		 lease_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.pool.Exec(ctx, sql,
		job.ID,
		job.ContentID,
		job.TemplateID,
		orEmpty(job.SegmentIDs),
		orEmpty(job.BrandAssetIDs),
		settings,
		string(job.Status),
		job.PreviewRef,
		job.FinalRef,
		job.RenderJobRef,
		job.ErrorMessage,
		job.Cancelled,
		orEmpty(job.Warnings),
		history,
		job.LeaseExpiresAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to create processing job")
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *processingRepository) GetByID(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	sql := `SELECT ` + selectColumns + ` FROM processing_results WHERE id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get processing job")
	}
	return job, nil
}

// ListByContent retrieves every job of a content item, oldest first
func (r *processingRepository) ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error) {
	sql := `SELECT ` + selectColumns + ` FROM processing_results WHERE content_id = $1 ORDER BY created_at, id`
	return r.query(ctx, "failed to list processing jobs by content", sql, contentID)
}

// ListByStatus retrieves jobs in any of the given states
func (r *processingRepository) ListByStatus(ctx context.Context, statuses ...model.ProcessingStatus) ([]*model.VideoProcessingResult, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	sql := `SELECT ` + selectColumns + ` FROM processing_results WHERE status = ANY($1) ORDER BY created_at, id`
	return r.query(ctx, "failed to list processing jobs by status", sql, raw)
}

// List retrieves jobs, newest first
func (r *processingRepository) List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error) {
	sql := `SELECT ` + selectColumns + ` FROM processing_results ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	return r.query(ctx, "failed to list processing jobs", sql, limit, offset)
}

// Transition locks the job row, checks the expected prior status and writes the new state
func (r *processingRepository) Transition(ctx context.Context, id string, update model.StatusUpdate) (*model.VideoProcessingResult, error) {
	if err := update.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid status update")
	}

	var updated model.VideoProcessingResult
	err := common.WithTx(ctx, r.pool, "failed to transition processing job", func(tx pgx.Tx) error {
		sql := `SELECT ` + selectColumns + ` FROM processing_results WHERE id = $1 FOR UPDATE`
		current, err := scanJob(tx.QueryRow(ctx, sql, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
			}
			return common.HandlePostgreSQLError(err, "failed to lock processing job")
		}

		if current.Status != update.From {
			return apperrors.Newf(apperrors.CodeConflict,
				"stale transition for job %s: status is %s, expected %s", id, current.Status, update.From)
		}

		updated = update.Apply(*current)
		_, history, err := encodeJSON(&updated)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE processing_results SET
			segment_ids = $2, status = $3, preview_ref = $4, final_ref = $5, render_job_ref = $6,
			error_message = $7, cancelled = $8, preview_history = $9, lease_expires_at = $10, updated_at = $11
			WHERE id = $1`,
			id,
			orEmpty(updated.SegmentIDs),
			string(updated.Status),
			updated.PreviewRef,
			updated.FinalRef,
			updated.RenderJobRef,
			updated.ErrorMessage,
			updated.Cancelled,
			history,
			updated.LeaseExpiresAt,
			updated.UpdatedAt,
		)
		if err != nil {
			return common.HandlePostgreSQLError(err, "failed to update processing job")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a job
func (r *processingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM processing_results WHERE id = $1", id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete processing job")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
	}
	return nil
}

func (r *processingRepository) query(ctx context.Context, operation, sql string, args ...any) ([]*model.VideoProcessingResult, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, operation)
	}
	defer rows.Close()

	var jobs []*model.VideoProcessingResult
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan processing job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, operation)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*model.VideoProcessingResult, error) {
	var (
		job      model.VideoProcessingResult
		status   string
		settings []byte
		history  []byte
	)
	err := row.Scan(
		&job.ID,
		&job.ContentID,
		&job.TemplateID,
		&job.SegmentIDs,
		&job.BrandAssetIDs,
		&settings,
		&status,
		&job.PreviewRef,
		&job.FinalRef,
		&job.RenderJobRef,
		&job.ErrorMessage,
		&job.Cancelled,
		&job.Warnings,
		&history,
		&job.LeaseExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = model.ProcessingStatus(status)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &job.CustomSettings); err != nil {
			return nil, err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &job.PreviewHistory); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

func encodeJSON(job *model.VideoProcessingResult) (settings, history []byte, err error) {
	customSettings := job.CustomSettings
	if customSettings == nil {
		customSettings = map[string]any{}
	}
	settings, err = json.Marshal(customSettings)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "custom settings are not JSON encodable")
	}

	previewHistory := job.PreviewHistory
	if previewHistory == nil {
		previewHistory = []model.ArchivedPreview{}
	}
	history, err = json.Marshal(previewHistory)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode preview history")
	}
	return settings, history, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
