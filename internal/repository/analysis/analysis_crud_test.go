package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRepository_SaveAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	result := &model.ContentAnalysisResult{
		ContentID: "c1",
		Segments: []model.VideoSegment{
			{ID: "seg-1", ContentID: "c1", StartTime: 0, EndTime: 60, Transcript: "intro", Keywords: []string{"intro"}},
		},
		Keywords:               []string{"intro"},
		Summary:                "intro",
		RecommendedTemplateIDs: []string{"template1"},
		EngagementPrediction:   0.6,
		CreatedAt:              now,
	}
	encoded, err := json.Marshal(result.Segments)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO content_analyses").
		WithArgs("c1", encoded, []string{"intro"}, "intro", []string{"template1"}, 0.6, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM content_analyses WHERE content_id").WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"content_id", "segments", "keywords", "summary", "recommended_template_ids", "engagement_prediction", "created_at"}).
			AddRow("c1", encoded, []string{"intro"}, "intro", []string{"template1"}, 0.6, now))
	mock.ExpectQuery("FROM content_analyses WHERE content_id").WithArgs("c2").WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, result))

	got, err := repo.GetByContent(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, result, got)

	_, err = repo.GetByContent(ctx, "c2")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
