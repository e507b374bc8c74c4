package model

import (
	"fmt"
	"time"
)

// ContentType classifies uploaded content for template matching and scoring
type ContentType string

const (
	ContentTypeEducational   ContentType = "educational"
	ContentTypePromotional   ContentType = "promotional"
	ContentTypeEntertainment ContentType = "entertainment"
	ContentTypeTutorial      ContentType = "tutorial"
	ContentTypeInterview     ContentType = "interview"
	ContentTypePresentation  ContentType = "presentation"
)

// ContentTypes lists every known content type in declaration order
var ContentTypes = []ContentType{
	ContentTypeEducational,
	ContentTypePromotional,
	ContentTypeEntertainment,
	ContentTypeTutorial,
	ContentTypeInterview,
	ContentTypePresentation,
}

// Valid reports whether t is a known content type
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeEducational, ContentTypePromotional, ContentTypeEntertainment,
		ContentTypeTutorial, ContentTypeInterview, ContentTypePresentation:
		return true
	}
	return false
}

// ParseContentType converts a raw string into a ContentType
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown content type %q", s)
	}
	return t, nil
}

// AspectRatio is the output frame shape of a rendered clip
type AspectRatio string

const (
	AspectRatioPortrait  AspectRatio = "9:16"
	AspectRatioSquare    AspectRatio = "1:1"
	AspectRatioLandscape AspectRatio = "16:9"
)

// Valid reports whether r is a supported aspect ratio
func (r AspectRatio) Valid() bool {
	switch r {
	case AspectRatioPortrait, AspectRatioSquare, AspectRatioLandscape:
		return true
	}
	return false
}

// Dimensions returns the output frame size in pixels
func (r AspectRatio) Dimensions() (width, height int) {
	switch r {
	case AspectRatioSquare:
		return 1080, 1080
	case AspectRatioLandscape:
		return 1920, 1080
	case AspectRatioPortrait:
		return 1080, 1920
	}
	return 1080, 1920
}

// ParseAspectRatio converts a raw string into an AspectRatio
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown aspect ratio %q", s)
	}
	return r, nil
}

// Short-form output bounds in seconds
const (
	MinShortFormDuration = 15
	MaxShortFormDuration = 60
)

// ContentUpload represents an uploaded long-form video
type ContentUpload struct {
	ID                   string      `json:"id" db:"id"`
	Title                string      `json:"title" db:"title"`
	Description          *string     `json:"description,omitempty" db:"description"`
	ContentType          ContentType `json:"content_type" db:"content_type"`
	DurationSeconds      float64     `json:"duration_seconds" db:"duration_seconds"`
	SourceRef            string      `json:"source_ref" db:"source_ref"`
	PreferredAspectRatio AspectRatio `json:"preferred_aspect_ratio" db:"preferred_aspect_ratio"`
	PreferredDuration    *int        `json:"preferred_duration,omitempty" db:"preferred_duration"` // seconds
	AnalyzedAt           *time.Time  `json:"analyzed_at,omitempty" db:"analyzed_at"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

// ContentAnalysisResult is the output of one successful analysis pass
type ContentAnalysisResult struct {
	ContentID              string         `json:"content_id" db:"content_id"`
	Segments               []VideoSegment `json:"segments"`
	Keywords               []string       `json:"keywords" db:"keywords"`
	Summary                string         `json:"summary" db:"summary"`
	RecommendedTemplateIDs []string       `json:"recommended_template_ids" db:"recommended_template_ids"`
	EngagementPrediction   float64        `json:"engagement_prediction" db:"engagement_prediction"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
}
