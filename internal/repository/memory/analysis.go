package memory

import (
	"context"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type analysisStore struct {
	s *Store
}

func (r *analysisStore) Save(ctx context.Context, result *model.ContentAnalysisResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[result.ContentID]; !ok {
		return apperrors.New(apperrors.CodeDependency, "referenced content does not exist")
	}
	r.s.analyses[result.ContentID] = cloneAnalysis(*result)
	return nil
}

func (r *analysisStore) GetByContent(ctx context.Context, contentID string) (*model.ContentAnalysisResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.analyses[contentID]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "analysis not found for content: %s", contentID)
	}
	out := cloneAnalysis(a)
	return &out, nil
}

func (r *analysisStore) Delete(ctx context.Context, contentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.analyses[contentID]; !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "analysis not found for content: %s", contentID)
	}
	delete(r.s.analyses, contentID)
	return nil
}
