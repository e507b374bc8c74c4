package memory

import (
	"context"
	"sort"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type templateStore struct {
	s *Store
}

func (r *templateStore) Upsert(ctx context.Context, t *model.VideoTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.templates[t.ID] = t.Clone()
	return nil
}

func (r *templateStore) GetByID(ctx context.Context, id string) (*model.VideoTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "template not found: %s", id)
	}
	out := t.Clone()
	return &out, nil
}

func (r *templateStore) List(ctx context.Context) ([]*model.VideoTemplate, error) {
	r.s.mu.RLock()
	out := make([]*model.VideoTemplate, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		c := t.Clone()
		out = append(out, &c)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *templateStore) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[id]; !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "template not found: %s", id)
	}
	delete(r.s.templates, id)
	return nil
}
