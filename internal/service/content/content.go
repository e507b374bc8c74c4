package content

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/analysis"
	contentrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/processing"
	"github.com/Taichi-iskw/yt-shorts/internal/service/provider"
	"github.com/Taichi-iskw/yt-shorts/internal/service/scoring"
	"github.com/Taichi-iskw/yt-shorts/internal/service/segment"
	"github.com/Taichi-iskw/yt-shorts/internal/service/template"
	"github.com/Taichi-iskw/yt-shorts/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	contentKeywordLimit  = 10
	segmentKeywordLimit  = 5
	recommendedTemplates = 3
)

// CreateRequest describes a new upload. SourcePath is a local media file that
// is copied into the object store.
type CreateRequest struct {
	Title             string
	Description       *string
	ContentType       model.ContentType
	SourcePath        string
	DurationSeconds   float64 // 0 probes the source file
	AspectRatio       model.AspectRatio
	PreferredDuration *int
}

// ContentService manages uploads and turns provider output into stored analysis
type ContentService interface {
	Create(ctx context.Context, req CreateRequest) (*model.ContentUpload, error)
	Get(ctx context.Context, id string) (*model.ContentUpload, error)
	List(ctx context.Context, limit, offset int) ([]*model.ContentUpload, error)
	// Delete removes the content, its derived rows and every stored object it owns
	Delete(ctx context.Context, id string) error
	// Analyze runs the analysis provider and ingests the result, replacing the segment set
	Analyze(ctx context.Context, id string) (*model.ContentAnalysisResult, error)
	// Ingest scores a raw provider result, fills missing keywords, summary and
	// template recommendations, then saves it. With replaceSegments the segment
	// set of the content is replaced by the analysed one.
	Ingest(ctx context.Context, id string, raw *model.ContentAnalysisResult, replaceSegments bool) (*model.ContentAnalysisResult, error)
	// AnalysisOf returns the latest saved analysis
	AnalysisOf(ctx context.Context, id string) (*model.ContentAnalysisResult, error)
}

type contentService struct {
	contentRepo     contentrepo.Repository
	analysisRepo    analysis.Repository
	jobRepo         processing.Repository
	segments        segment.SegmentService
	templates       template.TemplateService
	store           storage.ObjectStore
	analyzer        provider.Analyzer
	prober          provider.Prober
	engine          *scoring.Engine
	analysisTimeout time.Duration
	logger          zerolog.Logger
}

// NewContentService creates a new ContentService. A nil prober makes
// DurationSeconds mandatory on Create.
func NewContentService(
	contentRepo contentrepo.Repository,
	analysisRepo analysis.Repository,
	jobRepo processing.Repository,
	segments segment.SegmentService,
	templates template.TemplateService,
	store storage.ObjectStore,
	analyzer provider.Analyzer,
	prober provider.Prober,
	engine *scoring.Engine,
	analysisTimeout time.Duration,
	logger zerolog.Logger,
) ContentService {
	if engine == nil {
		engine = scoring.NewEngine(nil)
	}
	return &contentService{
		contentRepo:     contentRepo,
		analysisRepo:    analysisRepo,
		jobRepo:         jobRepo,
		segments:        segments,
		templates:       templates,
		store:           store,
		analyzer:        analyzer,
		prober:          prober,
		engine:          engine,
		analysisTimeout: analysisTimeout,
		logger:          logger.With().Str("component", "content").Logger(),
	}
}

func (s *contentService) Create(ctx context.Context, req CreateRequest) (*model.ContentUpload, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	sourceRef, err := s.store.Import(storage.KindSource, req.SourcePath)
	if err != nil {
		return nil, err
	}

	c, err := s.create(ctx, req, sourceRef)
	if err != nil {
		if delErr := s.store.Delete(sourceRef); delErr != nil {
			s.logger.Warn().Err(delErr).Str("ref", sourceRef).Msg("failed to remove imported source")
		}
		return nil, err
	}

	s.logger.Info().Str("content_id", c.ID).Float64("duration", c.DurationSeconds).Msg("content created")
	return c, nil
}

func (s *contentService) create(ctx context.Context, req CreateRequest, sourceRef string) (*model.ContentUpload, error) {
	duration := req.DurationSeconds
	if duration == 0 {
		if s.prober == nil {
			return nil, errors.New(errors.CodeInvalidArg, "duration is required when no prober is configured")
		}
		path, err := s.store.Resolve(sourceRef)
		if err != nil {
			return nil, err
		}
		duration, err = s.prober.Duration(ctx, path)
		if err != nil {
			return nil, err
		}
		if !(duration > 0) || math.IsInf(duration, 0) {
			return nil, errors.Newf(errors.CodeInvalidArg, "probed duration %.3f is not positive", duration)
		}
	}

	now := time.Now().UTC()
	c := &model.ContentUpload{
		ID:                   uuid.NewString(),
		Title:                req.Title,
		Description:          req.Description,
		ContentType:          req.ContentType,
		DurationSeconds:      duration,
		SourceRef:            sourceRef,
		PreferredAspectRatio: req.AspectRatio,
		PreferredDuration:    req.PreferredDuration,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.contentRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// validateCreate checks the request and applies defaults in place
func validateCreate(req *CreateRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return errors.New(errors.CodeInvalidArg, "title is required")
	}
	if !req.ContentType.Valid() {
		return errors.Newf(errors.CodeInvalidArg, "unknown content type %q", req.ContentType)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = model.AspectRatioPortrait
	}
	if !req.AspectRatio.Valid() {
		return errors.Newf(errors.CodeInvalidArg, "unknown aspect ratio %q", req.AspectRatio)
	}
	if d := req.PreferredDuration; d != nil && (*d < model.MinShortFormDuration || *d > model.MaxShortFormDuration) {
		return errors.Newf(errors.CodeInvalidArg, "preferred duration %ds is outside [%d,%d] seconds",
			*d, model.MinShortFormDuration, model.MaxShortFormDuration)
	}
	if math.IsNaN(req.DurationSeconds) || math.IsInf(req.DurationSeconds, 0) || req.DurationSeconds < 0 {
		return errors.New(errors.CodeInvalidArg, "duration must be a positive number of seconds")
	}
	if req.SourcePath == "" {
		return errors.New(errors.CodeInvalidArg, "source file is required")
	}
	return nil
}

func (s *contentService) Get(ctx context.Context, id string) (*model.ContentUpload, error) {
	return s.contentRepo.GetByID(ctx, id)
}

func (s *contentService) List(ctx context.Context, limit, offset int) ([]*model.ContentUpload, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.contentRepo.List(ctx, limit, offset)
}

func (s *contentService) Delete(ctx context.Context, id string) error {
	c, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	jobs, err := s.jobRepo.ListByContent(ctx, id)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if !job.Status.Terminal() {
			return errors.Newf(errors.CodeConflict, "content %s has an active job %s", id, job.ID)
		}
	}

	if err := s.contentRepo.Delete(ctx, id); err != nil {
		return err
	}

	refs := []string{c.SourceRef}
	for _, job := range jobs {
		refs = append(refs, jobRefs(job)...)
	}
	for _, ref := range refs {
		if err := s.store.Delete(ref); err != nil {
			s.logger.Warn().Err(err).Str("ref", ref).Msg("failed to remove stored object")
		}
	}
	return nil
}

func jobRefs(job *model.VideoProcessingResult) []string {
	var refs []string
	for _, ref := range []*string{job.PreviewRef, job.FinalRef, job.RenderJobRef} {
		if ref != nil && *ref != "" {
			refs = append(refs, *ref)
		}
	}
	for _, archived := range job.PreviewHistory {
		refs = append(refs, archived.PreviewRef)
	}
	return refs
}

func (s *contentService) Analyze(ctx context.Context, id string) (*model.ContentAnalysisResult, error) {
	if s.analyzer == nil {
		return nil, errors.New(errors.CodeInternal, "no analysis provider configured")
	}
	c, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := provider.Await(ctx, s.analysisTimeout, "analysis", func(ctx context.Context) (*model.ContentAnalysisResult, error) {
		return s.analyzer.Analyze(ctx, *c)
	})
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, id, raw, true)
}

func (s *contentService) Ingest(ctx context.Context, id string, raw *model.ContentAnalysisResult, replaceSegments bool) (*model.ContentAnalysisResult, error) {
	if raw == nil {
		return nil, errors.New(errors.CodeInvalidArg, "analysis result is empty")
	}
	c, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	transcripts := make([]string, 0, len(raw.Segments))
	for _, seg := range raw.Segments {
		transcripts = append(transcripts, seg.Transcript)
	}
	fullText := strings.Join(transcripts, " ")

	keywords := model.NormalizeKeywords(raw.Keywords)
	if len(keywords) == 0 {
		keywords = model.NormalizeKeywords(scoring.ExtractKeywords(fullText, contentKeywordLimit))
	}
	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		summary = scoring.Summarize(fullText)
	}

	segments := make([]model.VideoSegment, len(raw.Segments))
	for i, in := range raw.Segments {
		seg := in.Clone()
		seg.ContentID = id
		if seg.ID == "" {
			seg.ID = uuid.NewString()
		}
		if len(seg.Keywords) == 0 {
			seg.Keywords = scoring.ExtractKeywords(seg.Transcript, segmentKeywordLimit)
		}
		seg.Keywords = model.NormalizeKeywords(seg.Keywords)
		if err := seg.ValidateBounds(c.DurationSeconds); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidArg, "analysis returned an invalid segment")
		}
		segments[i] = seg
	}
	segments = s.engine.Apply(segments, scoring.ContentContext{
		ContentType:     c.ContentType,
		DurationSeconds: c.DurationSeconds,
		Keywords:        keywords,
	})

	if replaceSegments {
		if _, err := s.segments.UpsertSegments(ctx, id, segments); err != nil {
			return nil, err
		}
		if segments, err = s.segments.GetSegments(ctx, id); err != nil {
			return nil, err
		}
	} else {
		for i := range segments {
			segments[i].Position = i
		}
	}

	recommended, err := s.templates.RecommendIDs(ctx, c.ContentType, recommendedTemplates)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &model.ContentAnalysisResult{
		ContentID:              id,
		Segments:               segments,
		Keywords:               keywords,
		Summary:                summary,
		RecommendedTemplateIDs: recommended,
		EngagementPrediction:   scoring.PredictContentEngagement(segments, c.ContentType),
		CreatedAt:              now,
	}
	if err := s.analysisRepo.Save(ctx, result); err != nil {
		return nil, err
	}
	if err := s.contentRepo.MarkAnalyzed(ctx, id, now); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("content_id", id).
		Int("segments", len(segments)).
		Bool("replaced_segments", replaceSegments).
		Msg("analysis saved")
	return result, nil
}

func (s *contentService) AnalysisOf(ctx context.Context, id string) (*model.ContentAnalysisResult, error) {
	return s.analysisRepo.GetByContent(ctx, id)
}
