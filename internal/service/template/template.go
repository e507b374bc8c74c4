package template

import (
	"context"
	"sort"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	templaterepo "github.com/Taichi-iskw/yt-shorts/internal/repository/template"
)

// TemplateService matches content to presentation templates
type TemplateService interface {
	// Recommend returns templates suitable for ct, optionally restricted to one
	// aspect ratio, ordered by id. No match yields an empty slice.
	Recommend(ctx context.Context, ct model.ContentType, aspectRatio *model.AspectRatio) ([]model.VideoTemplate, error)
	// RecommendIDs returns up to limit suitable ids, falling back to all templates when none suit
	RecommendIDs(ctx context.Context, ct model.ContentType, limit int) ([]string, error)
	Get(ctx context.Context, id string) (*model.VideoTemplate, error)
	List(ctx context.Context) ([]model.VideoTemplate, error)
	// Compatible fetches a template and reports whether it suits ct
	Compatible(ctx context.Context, id string, ct model.ContentType) (*model.VideoTemplate, bool, error)
}

type templateService struct {
	repo templaterepo.Repository
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(repo templaterepo.Repository) TemplateService {
	return &templateService{repo: repo}
}

func (s *templateService) Recommend(ctx context.Context, ct model.ContentType, aspectRatio *model.AspectRatio) ([]model.VideoTemplate, error) {
	if !ct.Valid() {
		return nil, errors.Newf(errors.CodeInvalidArg, "unknown content type %q", ct)
	}
	if aspectRatio != nil && !aspectRatio.Valid() {
		return nil, errors.Newf(errors.CodeInvalidArg, "unknown aspect ratio %q", *aspectRatio)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Match(all, ct, aspectRatio), nil
}

func (s *templateService) RecommendIDs(ctx context.Context, ct model.ContentType, limit int) ([]string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := Match(all, ct, nil)
	if len(candidates) == 0 {
		candidates = all
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ids := make([]string, len(candidates))
	for i, t := range candidates {
		ids[i] = t.ID
	}
	return ids, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*model.VideoTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *templateService) List(ctx context.Context) ([]model.VideoTemplate, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.VideoTemplate, len(stored))
	for i, t := range stored {
		out[i] = t.Clone()
	}
	sortByID(out)
	return out, nil
}

func (s *templateService) Compatible(ctx context.Context, id string, ct model.ContentType) (*model.VideoTemplate, bool, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return t, t.Suits(ct), nil
}

// Match filters templates by content type and optional aspect ratio. The
// result is ordered by id whatever the input order.
func Match(templates []model.VideoTemplate, ct model.ContentType, aspectRatio *model.AspectRatio) []model.VideoTemplate {
	out := []model.VideoTemplate{}
	for _, t := range templates {
		if !t.Suits(ct) {
			continue
		}
		if aspectRatio != nil && t.AspectRatio != *aspectRatio {
			continue
		}
		out = append(out, t.Clone())
	}
	sortByID(out)
	return out
}

func sortByID(templates []model.VideoTemplate) {
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
}
