package model

import (
	"fmt"
	"math"
	"slices"
)

// VideoSegment is a time-bounded clip candidate within a content item
type VideoSegment struct {
	ID                   string   `json:"id" db:"id"`
	ContentID            string   `json:"content_id" db:"content_id"`
	Position             int      `json:"position" db:"position"`
	StartTime            float64  `json:"start_time" db:"start_time"` // seconds
	EndTime              float64  `json:"end_time" db:"end_time"`     // seconds
	Transcript           string   `json:"transcript" db:"transcript"`
	Keywords             []string `json:"keywords" db:"keywords"`
	ImportanceScore      float64  `json:"importance_score" db:"importance_score"`
	EngagementPrediction float64  `json:"engagement_prediction" db:"engagement_prediction"`
	Selected             bool     `json:"selected" db:"selected"`
}

// Duration returns the segment length in seconds
func (s VideoSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// ValidateBounds checks 0 <= start < end <= contentDuration
func (s VideoSegment) ValidateBounds(contentDuration float64) error {
	if math.IsNaN(s.StartTime) || math.IsNaN(s.EndTime) {
		return fmt.Errorf("segment %s has non-numeric bounds", s.ID)
	}
	if s.StartTime < 0 {
		return fmt.Errorf("segment %s starts before 0 (%.3f)", s.ID, s.StartTime)
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("segment %s start %.3f is not before end %.3f", s.ID, s.StartTime, s.EndTime)
	}
	if s.EndTime > contentDuration {
		return fmt.Errorf("segment %s ends at %.3f beyond content duration %.3f", s.ID, s.EndTime, contentDuration)
	}
	return nil
}

// Equal reports whether two segments carry identical stored state
func (s VideoSegment) Equal(o VideoSegment) bool {
	return s.ID == o.ID &&
		s.ContentID == o.ContentID &&
		s.Position == o.Position &&
		s.StartTime == o.StartTime &&
		s.EndTime == o.EndTime &&
		s.Transcript == o.Transcript &&
		slices.Equal(s.Keywords, o.Keywords) &&
		s.ImportanceScore == o.ImportanceScore &&
		s.EngagementPrediction == o.EngagementPrediction &&
		s.Selected == o.Selected
}

// Clone returns a deep copy
func (s VideoSegment) Clone() VideoSegment {
	s.Keywords = slices.Clone(s.Keywords)
	return s
}

// NormalizeKeywords drops empties, sorts and dedupes a keyword set
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SegmentsEqual compares two ordered segment sets
func SegmentsEqual(a, b []VideoSegment) bool {
	return slices.EqualFunc(a, b, VideoSegment.Equal)
}

// DragMode is the kind of interactive edit applied to a segment
type DragMode string

const (
	DragResizeStart DragMode = "resizing_start"
	DragResizeEnd   DragMode = "resizing_end"
	DragMove        DragMode = "moving"
)

// Valid reports whether m is a known drag mode
func (m DragMode) Valid() bool {
	switch m {
	case DragResizeStart, DragResizeEnd, DragMove:
		return true
	}
	return false
}

// ParseDragMode converts a raw string into a DragMode
func ParseDragMode(s string) (DragMode, error) {
	m := DragMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown drag mode %q", s)
	}
	return m, nil
}
