// Package scoring rates segments for short-form suitability.
package scoring

import (
	"math"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// ContentContext carries the content-level signal available to a strategy
type ContentContext struct {
	ContentType     model.ContentType
	DurationSeconds float64
	Keywords        []string
}

// Score is a pair of normalized ratings
type Score struct {
	Importance float64
	Engagement float64
}

// Strategy computes a score. Implementations must be pure: identical inputs
// give identical outputs.
type Strategy interface {
	Score(segment model.VideoSegment, cc ContentContext) Score
}

// Engine applies a Strategy and guarantees both ratings lie in [0,1]
type Engine struct {
	strategy Strategy
}

// NewEngine creates an Engine; a nil strategy selects Heuristic
func NewEngine(strategy Strategy) *Engine {
	if strategy == nil {
		strategy = Heuristic{}
	}
	return &Engine{strategy: strategy}
}

// Score rates one segment
func (e *Engine) Score(segment model.VideoSegment, cc ContentContext) Score {
	s := e.strategy.Score(segment, cc)
	return Score{
		Importance: clamp01(s.Importance),
		Engagement: clamp01(s.Engagement),
	}
}

// Apply returns copies of segments with both scores filled in
func (e *Engine) Apply(segments []model.VideoSegment, cc ContentContext) []model.VideoSegment {
	out := make([]model.VideoSegment, len(segments))
	for i, seg := range segments {
		s := e.Score(seg, cc)
		out[i] = seg.Clone()
		out[i].ImportanceScore = s.Importance
		out[i].EngagementPrediction = s.Engagement
	}
	return out
}

// ContentTypeModifier scales engagement by how well a content type tends to travel as short-form
func ContentTypeModifier(ct model.ContentType) float64 {
	switch ct {
	case model.ContentTypeEducational:
		return 0.9
	case model.ContentTypePromotional:
		return 1.1
	case model.ContentTypeEntertainment:
		return 1.2
	case model.ContentTypeTutorial:
		return 0.95
	case model.ContentTypeInterview:
		return 0.85
	case model.ContentTypePresentation:
		return 0.8
	}
	return 1.0
}

// PredictContentEngagement is the mean segment engagement scaled by the
// content type modifier. Content without segments gets 0.5.
func PredictContentEngagement(segments []model.VideoSegment, ct model.ContentType) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	var sum float64
	for _, seg := range segments {
		sum += seg.EngagementPrediction
	}
	return clamp01(sum / float64(len(segments)) * ContentTypeModifier(ct))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
