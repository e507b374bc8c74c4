package segment

import (
	"context"
	"math"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/analysis"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	segmentrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/segment"
	"github.com/Taichi-iskw/yt-shorts/internal/service/scoring"
	"github.com/google/uuid"
)

// SegmentService owns the segment set of every content item
type SegmentService interface {
	// UpsertSegments validates and atomically replaces the full set. Input order
	// becomes position order. Reports false when nothing changed.
	UpsertSegments(ctx context.Context, contentID string, segments []model.VideoSegment) (bool, error)
	GetSegments(ctx context.Context, contentID string) ([]model.VideoSegment, error)
	GetSegment(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error)
	ToggleSelection(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error)
	// CreateInstantClip appends a user-cut segment with empty transcript and zero scores
	CreateInstantClip(ctx context.Context, contentID string, start, end float64) (*model.VideoSegment, error)
	// UpdateBounds commits new geometry for one segment after validating it
	UpdateBounds(ctx context.Context, contentID, segmentID string, start, end float64) (*model.VideoSegment, error)
	// Rescore re-applies the scoring engine to the stored set
	Rescore(ctx context.Context, contentID string) ([]model.VideoSegment, error)
}

type segmentService struct {
	contentRepo  content.Repository
	segmentRepo  segmentrepo.Repository
	analysisRepo analysis.Repository
	engine       *scoring.Engine
}

// NewSegmentService creates a new SegmentService
func NewSegmentService(
	contentRepo content.Repository,
	segmentRepo segmentrepo.Repository,
	analysisRepo analysis.Repository,
	engine *scoring.Engine,
) SegmentService {
	if engine == nil {
		engine = scoring.NewEngine(nil)
	}
	return &segmentService{
		contentRepo:  contentRepo,
		segmentRepo:  segmentRepo,
		analysisRepo: analysisRepo,
		engine:       engine,
	}
}

func (s *segmentService) UpsertSegments(ctx context.Context, contentID string, segments []model.VideoSegment) (bool, error) {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return false, err
	}

	prepared, err := prepare(c, segments)
	if err != nil {
		return false, err
	}
	return s.segmentRepo.ReplaceAll(ctx, contentID, prepared)
}

func (s *segmentService) GetSegments(ctx context.Context, contentID string) ([]model.VideoSegment, error) {
	if _, err := s.contentRepo.GetByID(ctx, contentID); err != nil {
		return nil, err
	}
	return s.segmentRepo.ListByContent(ctx, contentID)
}

func (s *segmentService) GetSegment(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	return s.segmentRepo.GetByID(ctx, contentID, segmentID)
}

func (s *segmentService) ToggleSelection(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	return s.segmentRepo.ToggleSelected(ctx, contentID, segmentID)
}

func (s *segmentService) CreateInstantClip(ctx context.Context, contentID string, start, end float64) (*model.VideoSegment, error) {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	seg := &model.VideoSegment{
		ID:        uuid.NewString(),
		ContentID: contentID,
		StartTime: start,
		EndTime:   end,
		Keywords:  []string{},
	}
	if err := seg.ValidateBounds(c.DurationSeconds); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidArg, "invalid clip bounds")
	}
	if err := s.segmentRepo.Insert(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

func (s *segmentService) UpdateBounds(ctx context.Context, contentID, segmentID string, start, end float64) (*model.VideoSegment, error) {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	probe := model.VideoSegment{ID: segmentID, StartTime: start, EndTime: end}
	if err := probe.ValidateBounds(c.DurationSeconds); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidArg, "invalid segment bounds")
	}
	return s.segmentRepo.UpdateBounds(ctx, contentID, segmentID, start, end)
}

func (s *segmentService) Rescore(ctx context.Context, contentID string) ([]model.VideoSegment, error) {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	cc := scoring.ContentContext{ContentType: c.ContentType, DurationSeconds: c.DurationSeconds}
	if result, err := s.analysisRepo.GetByContent(ctx, contentID); err == nil {
		cc.Keywords = result.Keywords
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	// scored under the repository lock so concurrent edits are not reverted
	return s.segmentRepo.Rescore(ctx, contentID, func(current []model.VideoSegment) []model.VideoSegment {
		return s.engine.Apply(current, cc)
	})
}

// prepare checks invariants and normalizes ids, positions and keywords
func prepare(c *model.ContentUpload, segments []model.VideoSegment) ([]model.VideoSegment, error) {
	seen := make(map[string]bool, len(segments))
	out := make([]model.VideoSegment, len(segments))

	for i, in := range segments {
		seg := in.Clone()
		if seg.ContentID != "" && seg.ContentID != c.ID {
			return nil, errors.Newf(errors.CodeInvalidArg, "segment %s belongs to content %s, not %s", seg.ID, seg.ContentID, c.ID)
		}
		seg.ContentID = c.ID
		if seg.ID == "" {
			seg.ID = uuid.NewString()
		}
		if seen[seg.ID] {
			return nil, errors.Newf(errors.CodeInvalidArg, "duplicate segment id %s", seg.ID)
		}
		seen[seg.ID] = true

		seg.Position = i
		seg.Keywords = model.NormalizeKeywords(seg.Keywords)

		if err := seg.ValidateBounds(c.DurationSeconds); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidArg, "invalid segment bounds")
		}
		if !inUnit(seg.ImportanceScore) || !inUnit(seg.EngagementPrediction) {
			return nil, errors.Newf(errors.CodeInvalidArg, "segment %s scores must lie in [0,1]", seg.ID)
		}
		out[i] = seg
	}
	return out, nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
