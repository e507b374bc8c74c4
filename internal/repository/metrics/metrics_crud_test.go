package metrics

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRepository_Upsert(t *testing.T) {
	at := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	m := &model.PerformanceMetrics{
		VideoID:          "v1",
		Views:            1000,
		Likes:            80,
		Comments:         10,
		Shares:           10,
		AverageWatchTime: 30,
		VideoDuration:    45,
		CompletionRate:   30.0 / 45.0,
		EngagementRate:   0.1,
		UpdatedAt:        at,
	}

	tests := []struct {
		name     string
		affected int64
		wantCode string
	}{
		{name: "newer snapshot stored", affected: 1},
		{name: "stale snapshot rejected", affected: 0, wantCode: apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec("INSERT INTO performance_metrics").
				WithArgs("v1", int64(1000), int64(80), int64(10), int64(10), int64(0), int64(0),
					30.0, 45.0, 30.0/45.0, 0.1, (*float64)(nil), at).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))

			err = NewRepository(mock).Upsert(context.Background(), m)
			if tt.wantCode != "" {
				assert.True(t, apperrors.Is(err, tt.wantCode))
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMetricsRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	ctr := 0.05
	columns := []string{"video_id", "views", "likes", "comments", "shares", "impressions", "clicks",
		"average_watch_time", "video_duration", "completion_rate", "engagement_rate", "click_through_rate", "updated_at"}
	mock.ExpectQuery("FROM performance_metrics WHERE video_id").WithArgs("v1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("v1", int64(10), int64(1), int64(0), int64(0), int64(20), int64(1), 5.0, 10.0, 0.5, 0.1, &ctr, at))
	mock.ExpectQuery("FROM performance_metrics WHERE video_id").WithArgs("v2").
		WillReturnRows(pgxmock.NewRows(columns))

	repo := NewRepository(mock)
	got, err := repo.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Views)
	require.NotNil(t, got.ClickThroughRate)
	assert.InDelta(t, 0.05, *got.ClickThroughRate, 1e-9)

	_, err = repo.Get(context.Background(), "v2")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
