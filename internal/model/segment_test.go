package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoSegment_ValidateBounds(t *testing.T) {
	tests := []struct {
		name    string
		segment VideoSegment
		wantErr bool
	}{
		{name: "inside content", segment: VideoSegment{ID: "s", StartTime: 0, EndTime: 60}},
		{name: "touches end", segment: VideoSegment{ID: "s", StartTime: 150, EndTime: 300}},
		{name: "negative start", segment: VideoSegment{ID: "s", StartTime: -1, EndTime: 10}, wantErr: true},
		{name: "zero length", segment: VideoSegment{ID: "s", StartTime: 10, EndTime: 10}, wantErr: true},
		{name: "inverted", segment: VideoSegment{ID: "s", StartTime: 20, EndTime: 10}, wantErr: true},
		{name: "past content end", segment: VideoSegment{ID: "s", StartTime: 200, EndTime: 301}, wantErr: true},
		{name: "nan start", segment: VideoSegment{ID: "s", StartTime: math.NaN(), EndTime: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.ValidateBounds(300)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeKeywords(t *testing.T) {
	assert.Equal(t, []string{"golang", "shorts"}, NormalizeKeywords([]string{"shorts", "", "golang", "shorts"}))
	assert.Equal(t, []string{}, NormalizeKeywords(nil))
}

func TestAspectRatio_Dimensions(t *testing.T) {
	w, h := AspectRatioPortrait.Dimensions()
	assert.Equal(t, [2]int{1080, 1920}, [2]int{w, h})
	w, h = AspectRatioSquare.Dimensions()
	assert.Equal(t, [2]int{1080, 1080}, [2]int{w, h})
	w, h = AspectRatioLandscape.Dimensions()
	assert.Equal(t, [2]int{1920, 1080}, [2]int{w, h})
}

func TestParseEnums(t *testing.T) {
	ct, err := ParseContentType("tutorial")
	assert.NoError(t, err)
	assert.Equal(t, ContentTypeTutorial, ct)

	_, err = ParseContentType("product")
	assert.Error(t, err)

	_, err = ParseAspectRatio("4:3")
	assert.Error(t, err)

	mode, err := ParseDragMode("moving")
	assert.NoError(t, err)
	assert.Equal(t, DragMove, mode)
}
