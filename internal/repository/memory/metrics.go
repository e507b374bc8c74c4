package memory

import (
	"context"
	"sort"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type metricsStore struct {
	s *Store
}

func (r *metricsStore) Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.metrics[videoID]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "metrics not found for video: %s", videoID)
	}
	out := cloneMetrics(m)
	return &out, nil
}

func (r *metricsStore) Upsert(ctx context.Context, m *model.PerformanceMetrics) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.metrics[m.VideoID]; ok && !existing.UpdatedAt.Before(m.UpdatedAt) {
		return apperrors.Newf(apperrors.CodeConflict, "stale snapshot for video %s", m.VideoID)
	}
	r.s.metrics[m.VideoID] = cloneMetrics(*m)
	return nil
}

func (r *metricsStore) List(ctx context.Context, videoIDs []string) ([]*model.PerformanceMetrics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]bool, len(videoIDs))
	var out []*model.PerformanceMetrics
	for _, id := range videoIDs {
		m, ok := r.s.metrics[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		c := cloneMetrics(m)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}
