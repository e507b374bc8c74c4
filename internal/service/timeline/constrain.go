package timeline

import (
	"math"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// MinSegmentDuration is the shortest length a drag can leave a segment with, in seconds
const MinSegmentDuration = 1.0

// Constrain returns the bounds a drag to cursor produces. For DragMove the
// cursor is the requested new start and the segment length is preserved.
// Given 0 <= start < end <= duration, the result satisfies the same.
func Constrain(mode model.DragMode, start, end, cursor, duration float64) (float64, float64) {
	switch mode {
	case model.DragResizeStart:
		return clamp(cursor, 0, math.Max(end-MinSegmentDuration, 0)), end
	case model.DragResizeEnd:
		return start, clamp(cursor, math.Min(start+MinSegmentDuration, duration), duration)
	case model.DragMove:
		length := end - start
		newStart := clamp(cursor, 0, math.Max(duration-length, 0))
		return newStart, math.Min(newStart+length, duration)
	}
	return start, end
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
