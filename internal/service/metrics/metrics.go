// Package metrics folds published-video telemetry into per-video performance
// metrics and ranks templates by how their videos perform. The id of a
// published video is the id of the completed job that rendered it.
package metrics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	metricsrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/metrics"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/processing"
	"github.com/Taichi-iskw/yt-shorts/internal/service/template"
	"github.com/rs/zerolog"
)

// MetricsService aggregates telemetry snapshots
type MetricsService interface {
	// Ingest merges a snapshot into the stored metrics. Counters only grow and
	// a snapshot not newer than the stored one is rejected with CONFLICT.
	Ingest(ctx context.Context, snapshot model.TelemetrySnapshot) (*model.PerformanceMetrics, error)
	Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error)
	AccountSummary(ctx context.Context, videoIDs []string) (*model.AccountSummary, error)
	// Report summarizes the videos last updated in [from, to) and lists the best
	// by engagement rate. No videoIDs means every published video.
	Report(ctx context.Context, videoIDs []string, from, to time.Time) (*model.PerformanceReport, error)
	// RankTemplates orders templates suitable for ct by the mean engagement
	// rate of their published videos, best first, ties by id
	RankTemplates(ctx context.Context, ct model.ContentType) ([]model.TemplatePerformance, error)
}

const reportTopVideos = 5

type metricsService struct {
	repo      metricsrepo.Repository
	jobs      processing.Repository
	templates template.TemplateService
	logger    zerolog.Logger
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(repo metricsrepo.Repository, jobs processing.Repository, templates template.TemplateService, logger zerolog.Logger) MetricsService {
	return &metricsService{
		repo:      repo,
		jobs:      jobs,
		templates: templates,
		logger:    logger.With().Str("component", "metrics").Logger(),
	}
}

func (s *metricsService) Ingest(ctx context.Context, snapshot model.TelemetrySnapshot) (*model.PerformanceMetrics, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, snapshot.VideoID)
	switch {
	case errors.Is(err, errors.CodeNotFound):
		current = &model.PerformanceMetrics{VideoID: snapshot.VideoID}
	case err != nil:
		return nil, err
	case !snapshot.ObservedAt.After(current.UpdatedAt):
		return nil, errors.Newf(errors.CodeConflict, "stale snapshot for video %s: observed %s, stored %s",
			snapshot.VideoID, snapshot.ObservedAt.Format(time.RFC3339), current.UpdatedAt.Format(time.RFC3339))
	}

	merged := Merge(*current, snapshot)
	if err := s.repo.Upsert(ctx, &merged); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("video_id", merged.VideoID).
		Int64("views", merged.Views).
		Float64("engagement_rate", merged.EngagementRate).
		Msg("telemetry ingested")
	return &merged, nil
}

func validateSnapshot(s model.TelemetrySnapshot) error {
	if strings.TrimSpace(s.VideoID) == "" {
		return errors.New(errors.CodeInvalidArg, "video id is required")
	}
	if s.ObservedAt.IsZero() {
		return errors.New(errors.CodeInvalidArg, "observation time is required")
	}
	if s.Views < 0 || s.Likes < 0 || s.Comments < 0 || s.Shares < 0 || s.Impressions < 0 || s.Clicks < 0 {
		return errors.Newf(errors.CodeInvalidArg, "snapshot for video %s has negative counters", s.VideoID)
	}
	for _, v := range []float64{s.AverageWatchTime, s.VideoDuration} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.Newf(errors.CodeInvalidArg, "snapshot for video %s has invalid watch time or duration", s.VideoID)
		}
	}
	return nil
}

// Merge applies a snapshot to stored metrics. Counters take the maximum of
// both readings, watch time follows the snapshot and rates are recomputed.
func Merge(current model.PerformanceMetrics, s model.TelemetrySnapshot) model.PerformanceMetrics {
	m := current
	m.Views = max(m.Views, s.Views)
	m.Likes = max(m.Likes, s.Likes)
	m.Comments = max(m.Comments, s.Comments)
	m.Shares = max(m.Shares, s.Shares)
	m.Impressions = max(m.Impressions, s.Impressions)
	m.Clicks = max(m.Clicks, s.Clicks)
	m.AverageWatchTime = s.AverageWatchTime
	if s.VideoDuration > 0 {
		m.VideoDuration = s.VideoDuration
	}

	m.CompletionRate = 0
	if m.VideoDuration > 0 {
		m.CompletionRate = math.Min(math.Max(m.AverageWatchTime/m.VideoDuration, 0), 1)
	}
	m.EngagementRate = 0
	if m.Views > 0 {
		m.EngagementRate = float64(m.Likes+m.Comments+m.Shares) / float64(m.Views)
	}
	m.ClickThroughRate = nil
	if m.Impressions > 0 {
		ctr := float64(m.Clicks) / float64(m.Impressions)
		m.ClickThroughRate = &ctr
	}
	m.UpdatedAt = s.ObservedAt.UTC()
	return m
}

func (s *metricsService) Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error) {
	return s.repo.Get(ctx, videoID)
}

func (s *metricsService) AccountSummary(ctx context.Context, videoIDs []string) (*model.AccountSummary, error) {
	all, err := s.repo.List(ctx, videoIDs)
	if err != nil {
		return nil, err
	}
	summary := summarize(all)
	return &summary, nil
}

func summarize(all []*model.PerformanceMetrics) model.AccountSummary {
	summary := model.AccountSummary{Videos: len(all)}
	if len(all) == 0 {
		return summary
	}

	var engagement, completion float64
	for _, m := range all {
		summary.TotalViews += m.Views
		summary.TotalLikes += m.Likes
		summary.TotalComments += m.Comments
		summary.TotalShares += m.Shares
		engagement += m.EngagementRate
		completion += m.CompletionRate
	}
	n := float64(len(all))
	summary.AvgViews = float64(summary.TotalViews) / n
	summary.AvgEngagementRate = engagement / n
	summary.AvgCompletionRate = completion / n
	return summary
}

func (s *metricsService) Report(ctx context.Context, videoIDs []string, from, to time.Time) (*model.PerformanceReport, error) {
	if !to.After(from) {
		return nil, errors.Newf(errors.CodeInvalidArg, "report end %s must be after start %s",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	if len(videoIDs) == 0 {
		published, err := s.publishedVideos(ctx)
		if err != nil {
			return nil, err
		}
		for id := range published {
			videoIDs = append(videoIDs, id)
		}
	}

	all, err := s.repo.List(ctx, videoIDs)
	if err != nil {
		return nil, err
	}
	var inRange []*model.PerformanceMetrics
	for _, m := range all {
		if !m.UpdatedAt.Before(from) && m.UpdatedAt.Before(to) {
			inRange = append(inRange, m)
		}
	}

	report := &model.PerformanceReport{
		From:      from.UTC(),
		To:        to.UTC(),
		Summary:   summarize(inRange),
		TopVideos: []model.PerformanceMetrics{},
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		if inRange[i].EngagementRate != inRange[j].EngagementRate {
			return inRange[i].EngagementRate > inRange[j].EngagementRate
		}
		return inRange[i].VideoID < inRange[j].VideoID
	})
	for _, m := range inRange[:min(len(inRange), reportTopVideos)] {
		report.TopVideos = append(report.TopVideos, *m)
	}
	return report, nil
}

// publishedVideos maps the id of every published video to its template
func (s *metricsService) publishedVideos(ctx context.Context) (map[string]string, error) {
	completed, err := s.jobs.ListByStatus(ctx, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	templateOf := make(map[string]string, len(completed))
	for _, job := range completed {
		templateOf[job.ID] = job.TemplateID
	}
	return templateOf, nil
}

func (s *metricsService) RankTemplates(ctx context.Context, ct model.ContentType) ([]model.TemplatePerformance, error) {
	suitable, err := s.templates.Recommend(ctx, ct, nil)
	if err != nil {
		return nil, err
	}

	templateOf, err := s.publishedVideos(ctx)
	if err != nil {
		return nil, err
	}
	videoIDs := make([]string, 0, len(templateOf))
	for id := range templateOf {
		videoIDs = append(videoIDs, id)
	}

	published, err := s.repo.List(ctx, videoIDs)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, m := range published {
		id := templateOf[m.VideoID]
		sums[id] += m.EngagementRate
		counts[id]++
	}

	ranked := make([]model.TemplatePerformance, len(suitable))
	for i, t := range suitable {
		p := model.TemplatePerformance{TemplateID: t.ID, Videos: counts[t.ID]}
		if p.Videos > 0 {
			p.AvgEngagementRate = sums[t.ID] / float64(p.Videos)
		}
		ranked[i] = p
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].AvgEngagementRate != ranked[j].AvgEngagementRate {
			return ranked[i].AvgEngagementRate > ranked[j].AvgEngagementRate
		}
		return ranked[i].TemplateID < ranked[j].TemplateID
	})
	return ranked, nil
}
