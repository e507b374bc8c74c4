// Package provider holds the contracts for the external analysis and render
// engines and the helpers the orchestrator uses to call them.
package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Analyzer produces a transcript-aligned segmentation for a content item.
// Scores, keywords and summary may be left empty; the content service fills them in.
type Analyzer interface {
	Analyze(ctx context.Context, content model.ContentUpload) (*model.ContentAnalysisResult, error)
}

// RenderJob is everything a renderer needs to cut one preview
type RenderJob struct {
	JobID          string
	SourceRef      string
	Segments       []model.VideoSegment // playback order
	Template       model.VideoTemplate
	CustomSettings map[string]any
}

// RenderOutput is a rendered preview plus the handle used to finalize it
type RenderOutput struct {
	PreviewRef   string
	RenderJobRef string
}

// Renderer cuts previews and turns an approved preview into the final artifact
type Renderer interface {
	Render(ctx context.Context, job RenderJob) (*RenderOutput, error)
	Finalize(ctx context.Context, renderJobRef string) (string, error)
}

// Prober reads media metadata
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// TransientError marks a provider failure worth exactly one more attempt
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string   { return e.Err.Error() }
func (e *TransientError) Unwrap() error   { return e.Err }
func (e *TransientError) Retryable() bool { return true }

// IsRetryable reports whether any error in the chain declares itself retryable
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

var transientMarkers = []string{
	"Resource temporarily unavailable",
	"Connection reset",
	"Connection timed out",
}

// markTransient wraps err in TransientError when its output looks like a passing fault
func markTransient(err error) error {
	for _, marker := range transientMarkers {
		if strings.Contains(err.Error(), marker) {
			return &TransientError{Err: err}
		}
	}
	return err
}

// Await runs call under its own deadline and returns as soon as either the call
// finishes or the deadline or parent context fires. A deadline becomes an
// EXTERNAL_ERROR naming the timeout, a cancelled parent becomes CANCELLED and
// any other failure is reported as EXTERNAL_ERROR unless already classified.
func Await[T any](ctx context.Context, timeout time.Duration, name string, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := call(callCtx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.value, nil
		}
		if callCtx.Err() != nil {
			return zero, contextError(ctx, name, timeout)
		}
		var appErr *apperrors.AppError
		if errors.As(r.err, &appErr) {
			return zero, r.err
		}
		return zero, apperrors.Wrap(r.err, apperrors.CodeExternal, name+" failed")
	case <-callCtx.Done():
		return zero, contextError(ctx, name, timeout)
	}
}

func contextError(parent context.Context, name string, timeout time.Duration) error {
	if err := parent.Err(); err != nil && errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeCancelled, name+" cancelled")
	}
	return apperrors.Newf(apperrors.CodeExternal, "%s timed out after %s", name, timeout)
}
