package memory

import (
	"context"
	"slices"
	"sort"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

type jobStore struct {
	s *Store
}

// Create checks references and admission under the write lock, so two
// concurrent submissions for one content cannot both pass.
func (r *jobStore) Create(ctx context.Context, job *model.VideoProcessingResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[job.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "processing job with this ID already exists")
	}
	if _, ok := r.s.contents[job.ContentID]; !ok {
		return apperrors.New(apperrors.CodeDependency, "referenced content does not exist")
	}
	if _, ok := r.s.templates[job.TemplateID]; !ok {
		return apperrors.New(apperrors.CodeDependency, "referenced template does not exist")
	}
	for _, existing := range r.s.jobs {
		if existing.ContentID == job.ContentID && !existing.Status.Terminal() {
			return apperrors.New(apperrors.CodeConflict, "content already has an active processing job")
		}
	}

	r.s.jobs[job.ID] = job.Clone()
	return nil
}

func (r *jobStore) GetByID(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	job, ok := r.s.jobs[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
	}
	out := job.Clone()
	return &out, nil
}

func (r *jobStore) ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error) {
	jobs := r.filter(func(job model.VideoProcessingResult) bool { return job.ContentID == contentID })
	sortOldestFirst(jobs)
	return jobs, nil
}

func (r *jobStore) ListByStatus(ctx context.Context, statuses ...model.ProcessingStatus) ([]*model.VideoProcessingResult, error) {
	jobs := r.filter(func(job model.VideoProcessingResult) bool { return slices.Contains(statuses, job.Status) })
	sortOldestFirst(jobs)
	return jobs, nil
}

func (r *jobStore) List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error) {
	jobs := r.filter(func(model.VideoProcessingResult) bool { return true })
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})

	if offset >= len(jobs) {
		return nil, nil
	}
	jobs = jobs[offset:]
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *jobStore) Transition(ctx context.Context, id string, update model.StatusUpdate) (*model.VideoProcessingResult, error) {
	if err := update.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid status update")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.jobs[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
	}
	if current.Status != update.From {
		return nil, apperrors.Newf(apperrors.CodeConflict,
			"stale transition for job %s: status is %s, expected %s", id, current.Status, update.From)
	}

	updated := update.Apply(current)
	r.s.jobs[id] = updated
	out := updated.Clone()
	return &out, nil
}

func (r *jobStore) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[id]; !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "processing job not found: %s", id)
	}
	delete(r.s.jobs, id)
	return nil
}

func (r *jobStore) filter(keep func(model.VideoProcessingResult) bool) []*model.VideoProcessingResult {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.VideoProcessingResult
	for _, job := range r.s.jobs {
		if keep(job) {
			c := job.Clone()
			out = append(out, &c)
		}
	}
	return out
}

func sortOldestFirst(jobs []*model.VideoProcessingResult) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}
