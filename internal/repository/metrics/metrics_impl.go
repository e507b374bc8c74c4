package metrics

import (
	"context"
	"errors"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `video_id, views, likes, comments, shares, impressions, clicks,
	average_watch_time, video_duration, completion_rate, engagement_rate, click_through_rate, updated_at`

type metricsRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &metricsRepository{
		pool: pool,
	}
}

// Get retrieves metrics for one video
func (r *metricsRepository) Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error) {
	sql := `SELECT ` + selectColumns + ` FROM performance_metrics WHERE video_id = $1`

	m, err := scanMetrics(r.pool.QueryRow(ctx, sql, videoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "metrics not found for video: %s", videoID)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get metrics")
	}
	return m, nil
}

// Upsert writes metrics if they are newer than what is stored
func (r *metricsRepository) Upsert(ctx context.Context, m *model.PerformanceMetrics) error {
	sql := `INSERT INTO performance_metrics
		(video_id, views, likes, comments, shares, impressions, clicks,
		 average_watch_time, video_duration, completion_rate, engagement_rate, click_through_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (video_id) DO UPDATE SET
			views = EXCLUDED.views,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			average_watch_time = EXCLUDED.average_watch_time,
			video_duration = EXCLUDED.video_duration,
			completion_rate = EXCLUDED.completion_rate,
			engagement_rate = EXCLUDED.engagement_rate,
			click_through_rate = EXCLUDED.click_through_rate,
			updated_at = EXCLUDED.updated_at
		WHERE performance_metrics.updated_at < EXCLUDED.updated_at`

	tag, err := r.pool.Exec(ctx, sql,
		m.VideoID,
		m.Views,
		m.Likes,
		m.Comments,
		m.Shares,
		m.Impressions,
		m.Clicks,
		m.AverageWatchTime,
		m.VideoDuration,
		m.CompletionRate,
		m.EngagementRate,
		m.ClickThroughRate,
		m.UpdatedAt,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to upsert metrics")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.CodeConflict, "stale snapshot for video %s", m.VideoID)
	}
	return nil
}

// List retrieves metrics for several videos
func (r *metricsRepository) List(ctx context.Context, videoIDs []string) ([]*model.PerformanceMetrics, error) {
	sql := `SELECT ` + selectColumns + ` FROM performance_metrics WHERE video_id = ANY($1) ORDER BY video_id`

	rows, err := r.pool.Query(ctx, sql, videoIDs)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list metrics")
	}
	defer rows.Close()

	var out []*model.PerformanceMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan metrics")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate metrics")
	}
	return out, nil
}

func scanMetrics(row pgx.Row) (*model.PerformanceMetrics, error) {
	var m model.PerformanceMetrics
	err := row.Scan(
		&m.VideoID,
		&m.Views,
		&m.Likes,
		&m.Comments,
		&m.Shares,
		&m.Impressions,
		&m.Clicks,
		&m.AverageWatchTime,
		&m.VideoDuration,
		&m.CompletionRate,
		&m.EngagementRate,
		&m.ClickThroughRate,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
