//go:build integration

package processing

import (
	"context"
	"testing"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProcessingRepository_Integration runs admission and compare-and-set against real PostgreSQL
func TestProcessingRepository_Integration(t *testing.T) {
	pool := common.SetupTestDB(t)
	repo := NewRepository(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, content.NewRepository(pool).Create(ctx, &model.ContentUpload{
		ID:                   "c1",
		Title:                "Go concurrency",
		ContentType:          model.ContentTypeTutorial,
		DurationSeconds:      300,
		SourceRef:            "sources/c1.mp4",
		PreferredAspectRatio: model.AspectRatioPortrait,
		CreatedAt:            now,
		UpdatedAt:            now,
	}))
	require.NoError(t, template.NewRepository(pool).Upsert(ctx, &model.VideoTemplate{
		ID:                   "template1",
		Name:                 "TikTok Explainer",
		AspectRatio:          model.AspectRatioPortrait,
		SuitableContentTypes: []model.ContentType{model.ContentTypeTutorial},
	}))

	newJob := func(id string) *model.VideoProcessingResult {
		return &model.VideoProcessingResult{
			ID:         id,
			ContentID:  "c1",
			TemplateID: "template1",
			SegmentIDs: []string{"seg-1"},
			Status:     model.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	t.Run("one active job per content", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newJob("job-1")))

		err := repo.Create(ctx, newJob("job-2"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeConflict))
	})

	t.Run("compare-and-set transitions", func(t *testing.T) {
		job, err := repo.Transition(ctx, "job-1", model.StatusUpdate{
			From: model.StatusPending,
			To:   model.StatusAnalyzing,
			At:   now.Add(time.Second),
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzing, job.Status)

		_, err = repo.Transition(ctx, "job-1", model.StatusUpdate{
			From: model.StatusPending,
			To:   model.StatusAnalyzing,
			At:   now.Add(2 * time.Second),
		})
		assert.True(t, errors.Is(err, errors.CodeConflict))

		stored, err := repo.GetByID(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAnalyzing, stored.Status)
	})

	t.Run("preview history survives a rerender", func(t *testing.T) {
		_, err := repo.Transition(ctx, "job-1", model.StatusUpdate{From: model.StatusAnalyzing, To: model.StatusProcessing, At: now})
		require.NoError(t, err)
		_, err = repo.Transition(ctx, "job-1", model.StatusUpdate{
			From:         model.StatusProcessing,
			To:           model.StatusReview,
			At:           now,
			PreviewRef:   model.Ptr("previews/p1.mp4"),
			RenderJobRef: model.Ptr("renders/r1.json"),
		})
		require.NoError(t, err)

		job, err := repo.Transition(ctx, "job-1", model.StatusUpdate{
			From:           model.StatusReview,
			To:             model.StatusProcessing,
			At:             now,
			ArchivePreview: true,
			SegmentIDs:     []string{"seg-1", "seg-2"},
		})
		require.NoError(t, err)
		assert.Nil(t, job.PreviewRef)

		stored, err := repo.GetByID(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"seg-1", "seg-2"}, stored.SegmentIDs)
		require.Len(t, stored.PreviewHistory, 1)
		assert.Equal(t, "previews/p1.mp4", stored.PreviewHistory[0].PreviewRef)
	})

	t.Run("terminal job frees the content", func(t *testing.T) {
		job, err := repo.Transition(ctx, "job-1", model.StatusUpdate{
			From:         model.StatusProcessing,
			To:           model.StatusFailed,
			At:           now,
			ErrorMessage: model.Ptr(model.ErrorCancelled),
			Cancelled:    true,
		})
		require.NoError(t, err)
		assert.True(t, job.Cancelled)

		require.NoError(t, repo.Create(ctx, newJob("job-2")))

		active, err := repo.ListByStatus(ctx, model.StatusPending)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "job-2", active[0].ID)
	})
}
