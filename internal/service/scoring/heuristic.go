package scoring

import (
	"math"
	"strings"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// weights of the importance blend
const (
	keywordWeight  = 0.5
	densityWeight  = 0.3
	durationWeight = 0.2

	// words per second treated as fully dense speech
	saturatedDensity = 2.5
	// matched keywords at which keyword salience reaches ~63%
	keywordScale = 4.0
)

// Heuristic scores from transcript density, keyword matches and duration fit
type Heuristic struct{}

// Score implements Strategy
func (Heuristic) Score(segment model.VideoSegment, cc ContentContext) Score {
	words := tokenize(segment.Transcript)
	duration := segment.Duration()

	keywords := make(map[string]bool, len(cc.Keywords)+len(segment.Keywords))
	for _, k := range cc.Keywords {
		keywords[strings.ToLower(k)] = true
	}
	for _, k := range segment.Keywords {
		keywords[strings.ToLower(k)] = true
	}

	matched := 0
	for _, w := range words {
		if keywords[w] {
			matched++
		}
	}

	keywordScore := 1 - math.Exp(-float64(matched)/keywordScale)
	densityScore := 0.0
	if duration > 0 {
		densityScore = math.Min(float64(len(words))/duration/saturatedDensity, 1)
	}
	fit := durationFit(duration)

	importance := keywordWeight*keywordScore + densityWeight*densityScore + durationWeight*fit

	hook := 0.0
	if strings.ContainsAny(segment.Transcript, "?!") {
		hook = 1
	}
	engagement := (0.6*importance + 0.25*fit + 0.15*hook) * ContentTypeModifier(cc.ContentType)

	return Score{Importance: importance, Engagement: engagement}
}

// durationFit is 1 inside the short-form window and decays linearly outside it
func durationFit(d float64) float64 {
	switch {
	case d <= 0:
		return 0
	case d < model.MinShortFormDuration:
		return d / model.MinShortFormDuration
	case d <= model.MaxShortFormDuration:
		return 1
	default:
		return math.Max(0, 1-(d-model.MaxShortFormDuration)/model.MaxShortFormDuration)
	}
}
