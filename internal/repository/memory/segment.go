package memory

import (
	"context"
	"slices"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type segmentStore struct {
	s *Store
}

func (r *segmentStore) ReplaceAll(ctx context.Context, contentID string, segments []model.VideoSegment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[contentID]; !ok {
		return false, apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", contentID)
	}
	for _, seg := range segments {
		if err := checkSegment(seg); err != nil {
			return false, err
		}
	}
	if model.SegmentsEqual(r.s.segments[contentID], segments) {
		return false, nil
	}

	replacement := cloneSegments(segments)
	slices.SortStableFunc(replacement, func(a, b model.VideoSegment) int {
		return a.Position - b.Position
	})
	r.s.segments[contentID] = replacement
	return true, nil
}

func (r *segmentStore) ListByContent(ctx context.Context, contentID string) ([]model.VideoSegment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return cloneSegments(r.s.segments[contentID]), nil
}

func (r *segmentStore) GetByID(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.s.indexOf(contentID, segmentID)
	if i < 0 {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "segment not found: %s", segmentID)
	}
	out := r.s.segments[contentID][i].Clone()
	return &out, nil
}

func (r *segmentStore) Insert(ctx context.Context, seg *model.VideoSegment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[seg.ContentID]; !ok {
		return apperrors.New(apperrors.CodeDependency, "referenced content does not exist")
	}
	if err := checkSegment(*seg); err != nil {
		return err
	}
	for _, segs := range r.s.segments {
		for _, existing := range segs {
			if existing.ID == seg.ID {
				return apperrors.New(apperrors.CodeConflict, "segment with this ID already exists")
			}
		}
	}

	current := r.s.segments[seg.ContentID]
	seg.Position = 0
	if n := len(current); n > 0 {
		seg.Position = current[n-1].Position + 1
	}
	r.s.segments[seg.ContentID] = append(current, seg.Clone())
	return nil
}

func (r *segmentStore) UpdateBounds(ctx context.Context, contentID, segmentID string, start, end float64) (*model.VideoSegment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.indexOf(contentID, segmentID)
	if i < 0 {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "segment not found: %s", segmentID)
	}
	seg := r.s.segments[contentID][i]
	seg.StartTime = start
	seg.EndTime = end
	if err := checkSegment(seg); err != nil {
		return nil, err
	}
	r.s.segments[contentID][i] = seg
	out := seg.Clone()
	return &out, nil
}

func (r *segmentStore) ToggleSelected(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.indexOf(contentID, segmentID)
	if i < 0 {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "segment not found: %s", segmentID)
	}
	r.s.segments[contentID][i].Selected = !r.s.segments[contentID][i].Selected
	out := r.s.segments[contentID][i].Clone()
	return &out, nil
}

func (r *segmentStore) Rescore(ctx context.Context, contentID string, score func([]model.VideoSegment) []model.VideoSegment) ([]model.VideoSegment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[contentID]; !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", contentID)
	}

	stored := r.s.segments[contentID]
	scored := score(cloneSegments(stored))
	updated := cloneSegments(stored)
	for _, seg := range scored {
		i := slices.IndexFunc(updated, func(s model.VideoSegment) bool { return s.ID == seg.ID })
		if i < 0 {
			continue
		}
		updated[i].ImportanceScore = seg.ImportanceScore
		updated[i].EngagementPrediction = seg.EngagementPrediction
		if err := checkSegment(updated[i]); err != nil {
			return nil, err
		}
	}

	r.s.segments[contentID] = updated
	return cloneSegments(updated), nil
}

func (r *segmentStore) DeleteByContent(ctx context.Context, contentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.segments, contentID)
	return nil
}

// indexOf must be called with the lock held
func (s *Store) indexOf(contentID, segmentID string) int {
	return slices.IndexFunc(s.segments[contentID], func(seg model.VideoSegment) bool {
		return seg.ID == segmentID
	})
}

// checkSegment mirrors the video_segments check constraints
func checkSegment(seg model.VideoSegment) error {
	if !(seg.StartTime >= 0 && seg.StartTime < seg.EndTime) {
		return apperrors.New(apperrors.CodeInvalidArg, "segment bounds must satisfy 0 <= start < end")
	}
	for _, score := range []float64{seg.ImportanceScore, seg.EngagementPrediction} {
		if score < 0 || score > 1 {
			return apperrors.New(apperrors.CodeInvalidArg, "scores must lie in [0,1]")
		}
	}
	return nil
}
