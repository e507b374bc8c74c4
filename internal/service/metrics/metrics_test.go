package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/memory"
	"github.com/Taichi-iskw/yt-shorts/internal/service/template"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (MetricsService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, template.Seed(context.Background(), store.Templates()))
	return NewMetricsService(store.Metrics(), store.Jobs(), template.NewTemplateService(store.Templates()), zerolog.Nop()), store
}

func TestMerge(t *testing.T) {
	current := model.PerformanceMetrics{VideoID: "v1", Views: 100, Likes: 10, VideoDuration: 40, UpdatedAt: t0}

	m := Merge(current, model.TelemetrySnapshot{
		VideoID: "v1", Views: 90, Likes: 20, Comments: 5, Shares: 5,
		Impressions: 1000, Clicks: 50, AverageWatchTime: 30, ObservedAt: t0.Add(time.Hour),
	})

	assert.Equal(t, int64(100), m.Views, "counters never go down")
	assert.Equal(t, int64(20), m.Likes)
	assert.Equal(t, 40.0, m.VideoDuration, "duration kept when the snapshot omits it")
	assert.Equal(t, 0.75, m.CompletionRate)
	assert.Equal(t, 0.3, m.EngagementRate)
	require.NotNil(t, m.ClickThroughRate)
	assert.Equal(t, 0.05, *m.ClickThroughRate)
	assert.Equal(t, t0.Add(time.Hour), m.UpdatedAt)

	overlong := Merge(current, model.TelemetrySnapshot{VideoID: "v1", AverageWatchTime: 80, VideoDuration: 40, ObservedAt: t0})
	assert.Equal(t, 1.0, overlong.CompletionRate)
	assert.Nil(t, overlong.ClickThroughRate)
}

func TestMetricsService_Ingest(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	first, err := s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v1", Views: 200, Likes: 20, AverageWatchTime: 15, VideoDuration: 30, ObservedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, first.CompletionRate)
	assert.Equal(t, 0.1, first.EngagementRate)

	_, err = s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v1", Views: 500, ObservedAt: t0})
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err), "same timestamp is stale")
	_, err = s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v1", Views: 500, ObservedAt: t0.Add(-time.Minute)})
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))

	second, err := s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v1", Views: 150, Likes: 40, AverageWatchTime: 24, ObservedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(200), second.Views)
	assert.Equal(t, 0.2, second.EngagementRate)
	assert.Equal(t, 0.8, second.CompletionRate)

	stored, err := s.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestMetricsService_IngestValidation(t *testing.T) {
	s, _ := newService(t)

	tests := []struct {
		name     string
		snapshot model.TelemetrySnapshot
	}{
		{name: "missing video", snapshot: model.TelemetrySnapshot{ObservedAt: t0}},
		{name: "missing time", snapshot: model.TelemetrySnapshot{VideoID: "v1"}},
		{name: "negative counter", snapshot: model.TelemetrySnapshot{VideoID: "v1", Views: -1, ObservedAt: t0}},
		{name: "negative watch time", snapshot: model.TelemetrySnapshot{VideoID: "v1", AverageWatchTime: -3, ObservedAt: t0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Ingest(context.Background(), tt.snapshot)
			assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
		})
	}
}

func TestMetricsService_AccountSummary(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	empty, err := s.AccountSummary(ctx, []string{"v1"})
	require.NoError(t, err)
	assert.Equal(t, &model.AccountSummary{}, empty)

	_, err = s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v1", Views: 100, Likes: 10, AverageWatchTime: 10, VideoDuration: 20, ObservedAt: t0})
	require.NoError(t, err)
	_, err = s.Ingest(ctx, model.TelemetrySnapshot{VideoID: "v2", Views: 300, Likes: 90, AverageWatchTime: 20, VideoDuration: 20, ObservedAt: t0})
	require.NoError(t, err)

	summary, err := s.AccountSummary(ctx, []string{"v1", "v2", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Videos)
	assert.Equal(t, int64(400), summary.TotalViews)
	assert.Equal(t, int64(100), summary.TotalLikes)
	assert.Equal(t, 200.0, summary.AvgViews)
	assert.InDelta(t, 0.2, summary.AvgEngagementRate, 1e-9)
	assert.InDelta(t, 0.75, summary.AvgCompletionRate, 1e-9)
}

func TestMetricsService_RankTemplates(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.Contents().Create(ctx, &model.ContentUpload{ID: "c1", Title: "c1", ContentType: model.ContentTypeTutorial, DurationSeconds: 300, CreatedAt: t0, UpdatedAt: t0}))

	for i, job := range []struct {
		id, template string
		status       model.ProcessingStatus
	}{
		{"job-a", "template1", model.StatusCompleted},
		{"job-b", "template4", model.StatusCompleted},
		{"job-c", "template4", model.StatusCompleted},
		{"job-d", "template1", model.StatusFailed},
	} {
		require.NoError(t, store.Jobs().Create(ctx, &model.VideoProcessingResult{
			ID: job.id, ContentID: "c1", TemplateID: job.template, Status: job.status,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute), UpdatedAt: t0,
		}))
	}

	for id, likes := range map[string]int64{"job-a": 10, "job-b": 30, "job-c": 50, "job-d": 100} {
		_, err := s.Ingest(ctx, model.TelemetrySnapshot{VideoID: id, Views: 100, Likes: likes, ObservedAt: t0})
		require.NoError(t, err)
	}

	ranked, err := s.RankTemplates(ctx, model.ContentTypeTutorial)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "template4", ranked[0].TemplateID)
	assert.Equal(t, 2, ranked[0].Videos)
	assert.InDelta(t, 0.4, ranked[0].AvgEngagementRate, 1e-9)
	assert.Equal(t, model.TemplatePerformance{TemplateID: "template1", Videos: 1, AvgEngagementRate: 0.1}, ranked[1])

	_, err = s.RankTemplates(ctx, "vlog")
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
}

func TestMetricsService_Report(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.Contents().Create(ctx, &model.ContentUpload{ID: "c1", Title: "c1", ContentType: model.ContentTypeTutorial, DurationSeconds: 300, CreatedAt: t0, UpdatedAt: t0}))

	for i, id := range []string{"job-a", "job-b", "job-c", "job-d"} {
		status := model.StatusCompleted
		if id == "job-d" {
			status = model.StatusFailed
		}
		require.NoError(t, store.Jobs().Create(ctx, &model.VideoProcessingResult{
			ID: id, ContentID: "c1", TemplateID: "template1", Status: status,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute), UpdatedAt: t0,
		}))
	}

	snapshots := []model.TelemetrySnapshot{
		{VideoID: "job-a", Views: 100, Likes: 10, ObservedAt: t0.Add(time.Hour)},
		{VideoID: "job-b", Views: 200, Likes: 60, ObservedAt: t0.Add(24 * time.Hour)},
		// outside the window
		{VideoID: "job-c", Views: 500, Likes: 400, ObservedAt: t0.Add(-time.Hour)},
		// never published
		{VideoID: "job-d", Views: 900, Likes: 900, ObservedAt: t0.Add(time.Hour)},
	}
	for _, snapshot := range snapshots {
		_, err := s.Ingest(ctx, snapshot)
		require.NoError(t, err)
	}

	from, to := t0, t0.Add(7*24*time.Hour)
	report, err := s.Report(ctx, nil, from, to)
	require.NoError(t, err)
	assert.Equal(t, from, report.From)
	assert.Equal(t, to, report.To)
	assert.Equal(t, 2, report.Summary.Videos)
	assert.Equal(t, int64(300), report.Summary.TotalViews)
	require.Len(t, report.TopVideos, 2)
	assert.Equal(t, "job-b", report.TopVideos[0].VideoID)
	assert.Equal(t, "job-a", report.TopVideos[1].VideoID)

	// explicit ids include unpublished videos but keep the window
	report, err = s.Report(ctx, []string{"job-c", "job-d"}, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Videos)
	require.Len(t, report.TopVideos, 1)
	assert.Equal(t, "job-d", report.TopVideos[0].VideoID)

	// the end is exclusive
	report, err = s.Report(ctx, nil, from, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Videos)
	assert.Empty(t, report.TopVideos)

	_, err = s.Report(ctx, nil, to, from)
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
}
