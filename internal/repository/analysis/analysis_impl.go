package analysis

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// analysisRepository implements Repository using PostgreSQL
type analysisRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &analysisRepository{
		pool: pool,
	}
}

// Save stores the result, replacing any earlier analysis of the same content
func (r *analysisRepository) Save(ctx context.Context, result *model.ContentAnalysisResult) error {
	segments, err := json.Marshal(result.Segments)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode analysis segments")
	}

	sql := `INSERT INTO content_analyses
		(content_id, segments, keywords, summary, recommended_template_ids, engagement_prediction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_id) DO UPDATE SET
			segments = EXCLUDED.segments,
			keywords = EXCLUDED.keywords,
			summary = EXCLUDED.summary,
			recommended_template_ids = EXCLUDED.recommended_template_ids,
			engagement_prediction = EXCLUDED.engagement_prediction,
			created_at = EXCLUDED.created_at`

	_, err = r.pool.Exec(ctx, sql,
		result.ContentID,
		segments,
		orEmpty(result.Keywords),
		result.Summary,
		orEmpty(result.RecommendedTemplateIDs),
		result.EngagementPrediction,
		result.CreatedAt,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to save content analysis")
	}
	return nil
}

// GetByContent retrieves the current analysis of a content item
func (r *analysisRepository) GetByContent(ctx context.Context, contentID string) (*model.ContentAnalysisResult, error) {
	sql := `SELECT content_id, segments, keywords, summary, recommended_template_ids, engagement_prediction, created_at
		FROM content_analyses WHERE content_id = $1`

	var (
		result   model.ContentAnalysisResult
		segments []byte
	)
	err := r.pool.QueryRow(ctx, sql, contentID).Scan(
		&result.ContentID,
		&segments,
		&result.Keywords,
		&result.Summary,
		&result.RecommendedTemplateIDs,
		&result.EngagementPrediction,
		&result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "no analysis for content: %s", contentID)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get content analysis")
	}

	if err := json.Unmarshal(segments, &result.Segments); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to decode analysis segments")
	}
	return &result, nil
}

// Delete removes the analysis of a content item
func (r *analysisRepository) Delete(ctx context.Context, contentID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM content_analyses WHERE content_id = $1", contentID)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete content analysis")
	}
	return nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
