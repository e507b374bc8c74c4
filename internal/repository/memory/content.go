package memory

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type contentStore struct {
	s *Store
}

func (r *contentStore) Create(ctx context.Context, c *model.ContentUpload) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[c.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "content with this ID already exists")
	}
	r.s.contents[c.ID] = cloneContent(*c)
	return nil
}

func (r *contentStore) GetByID(ctx context.Context, id string) (*model.ContentUpload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.contents[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
	}
	out := cloneContent(c)
	return &out, nil
}

func (r *contentStore) List(ctx context.Context, limit, offset int) ([]*model.ContentUpload, error) {
	r.s.mu.RLock()
	all := make([]model.ContentUpload, 0, len(r.s.contents))
	for _, c := range r.s.contents {
		all = append(all, cloneContent(c))
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	var out []*model.ContentUpload
	for i := offset; i < len(all) && (limit <= 0 || len(out) < limit); i++ {
		out = append(out, &all[i])
	}
	return out, nil
}

func (r *contentStore) MarkAnalyzed(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contents[id]
	if !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
	}
	c.AnalyzedAt = &at
	c.UpdatedAt = at
	r.s.contents[id] = c
	return nil
}

// Delete cascades to segments, analyses and jobs like the foreign keys do in PostgreSQL
func (r *contentStore) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contents[id]; !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", id)
	}
	delete(r.s.contents, id)
	delete(r.s.segments, id)
	delete(r.s.analyses, id)
	for jobID, job := range r.s.jobs {
		if job.ContentID == id {
			delete(r.s.jobs, jobID)
		}
	}
	return nil
}
