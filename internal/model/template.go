package model

import "slices"

// CaptionStyle controls how captions are burned into a rendered clip
type CaptionStyle struct {
	FontFamily      string `json:"font_family"`
	FontSize        int    `json:"font_size"`
	FontColor       string `json:"font_color"`
	BackgroundColor string `json:"background_color"`
	Position        string `json:"position"` // bottom, top, middle
}

// VideoTemplate is a reusable presentational configuration
type VideoTemplate struct {
	ID                   string        `json:"id" db:"id"`
	Name                 string        `json:"name" db:"name"`
	Description          string        `json:"description" db:"description"`
	AspectRatio          AspectRatio   `json:"aspect_ratio" db:"aspect_ratio"`
	SuitableContentTypes []ContentType `json:"suitable_content_types" db:"suitable_content_types"`
	PreviewRef           *string       `json:"preview_ref,omitempty" db:"preview_ref"`
	CaptionStyle         CaptionStyle  `json:"caption_style" db:"caption_style"`
	OverlayColor         *string       `json:"overlay_color,omitempty" db:"overlay_color"`
}

// Suits reports whether the template is suitable for content of type t
func (t VideoTemplate) Suits(ct ContentType) bool {
	return slices.Contains(t.SuitableContentTypes, ct)
}

// Clone returns a deep copy
func (t VideoTemplate) Clone() VideoTemplate {
	t.SuitableContentTypes = slices.Clone(t.SuitableContentTypes)
	t.PreviewRef = clonePtr(t.PreviewRef)
	t.OverlayColor = clonePtr(t.OverlayColor)
	return t
}
