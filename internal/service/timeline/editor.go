// Package timeline implements interactive segment editing. Each editor
// session owns its drag state, so sessions over different content never
// interfere, and only one session may be open per content item.
package timeline

import (
	"context"
	"math"
	"sync"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	"github.com/Taichi-iskw/yt-shorts/internal/service/segment"
)

// Drag is the segment currently being edited and how
type Drag struct {
	SegmentID string
	Mode      model.DragMode
}

// Session is one editor's view of one content item
type Session struct {
	ContentID string
	duration  float64

	mu      sync.Mutex
	active  *Drag
	closed  bool
	release func()
}

// ActiveDrag returns a copy of the active drag, or nil
func (s *Session) ActiveDrag() *Drag {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	d := *s.active
	return &d
}

// Close releases the content item for another session. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.active = nil
	s.release()
}

// Editor hands out sessions and applies drag operations through the segment service
type Editor struct {
	contents content.Repository
	segments segment.SegmentService

	mu   sync.Mutex
	open map[string]*Session
}

// NewEditor creates an Editor
func NewEditor(contents content.Repository, segments segment.SegmentService) *Editor {
	return &Editor{
		contents: contents,
		segments: segments,
		open:     make(map[string]*Session),
	}
}

// OpenSession starts editing contentID. CONFLICT if another session holds it.
func (e *Editor) OpenSession(ctx context.Context, contentID string) (*Session, error) {
	c, err := e.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.open[contentID]; ok {
		return nil, errors.Newf(errors.CodeConflict, "content %s already has an open editor session", contentID)
	}

	s := &Session{ContentID: contentID, duration: c.DurationSeconds}
	s.release = func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.open[contentID] == s {
			delete(e.open, contentID)
		}
	}
	e.open[contentID] = s
	return s, nil
}

// BeginDrag starts editing one segment. CONFLICT if the session already has an active drag.
func (e *Editor) BeginDrag(ctx context.Context, s *Session, segmentID string, mode model.DragMode) error {
	if !mode.Valid() {
		return errors.Newf(errors.CodeInvalidArg, "unknown drag mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.CodeInvalidArg, "editor session is closed")
	}
	if s.active != nil {
		return errors.Newf(errors.CodeConflict, "segment %s is already being dragged", s.active.SegmentID)
	}
	if _, err := e.segments.GetSegment(ctx, s.ContentID, segmentID); err != nil {
		return err
	}

	s.active = &Drag{SegmentID: segmentID, Mode: mode}
	return nil
}

// UpdateDrag moves the active segment toward cursor and commits the
// constrained bounds at once. Out-of-range cursors are clamped.
func (e *Editor) UpdateDrag(ctx context.Context, s *Session, cursor float64) (*model.VideoSegment, error) {
	if math.IsNaN(cursor) {
		return nil, errors.New(errors.CodeInvalidArg, "cursor position is not a number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.CodeInvalidArg, "editor session is closed")
	}
	if s.active == nil {
		return nil, errors.New(errors.CodeInvalidArg, "no active drag")
	}

	seg, err := e.segments.GetSegment(ctx, s.ContentID, s.active.SegmentID)
	if err != nil {
		return nil, err
	}

	start, end := Constrain(s.active.Mode, seg.StartTime, seg.EndTime, cursor, s.duration)
	if start == seg.StartTime && end == seg.EndTime {
		return seg, nil
	}
	return e.segments.UpdateBounds(ctx, s.ContentID, seg.ID, start, end)
}

// EndDrag clears the active drag and returns it. The last applied bounds stay committed.
func (e *Editor) EndDrag(s *Session) *Drag {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.active
	s.active = nil
	return d
}

// ToggleSelection flips a segment's selection within the session
func (e *Editor) ToggleSelection(ctx context.Context, s *Session, segmentID string) (*model.VideoSegment, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New(errors.CodeInvalidArg, "editor session is closed")
	}
	return e.segments.ToggleSelection(ctx, s.ContentID, segmentID)
}
