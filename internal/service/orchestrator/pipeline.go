package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/provider"
)

const (
	// a provider call is attempted at most this many extra times, and only for retryable errors
	maxRetries = 1
	// status writes outlive cancelled job contexts but not a hung store
	storeTimeout = 30 * time.Second
	// a pending job not picked up within this window is resumed by Recover
	dispatchLease = time.Minute
	// headroom over the provider calls for the store work around them
	leaseSlack = time.Minute
)

// dispatch runs fn for job id on a tracked background goroutine
func (o *Orchestrator) dispatch(id string, fn func(ctx context.Context, id string)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, release := o.track(o.base, id)
		defer release()
		fn(ctx, id)
	}()
}

// track registers a cancellable context for job id. Shutdown cancels it too.
func (o *Orchestrator) track(parent context.Context, id string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	stopAfter := context.AfterFunc(o.base, cancel)
	f := &flight{cancel: cancel}

	o.mu.Lock()
	o.inflight[id] = f
	o.mu.Unlock()

	return ctx, func() {
		stopAfter()
		cancel()
		o.mu.Lock()
		if o.inflight[id] == f {
			delete(o.inflight, id)
		}
		o.mu.Unlock()
	}
}

// abort cancels the in-flight work of job id, if any
func (o *Orchestrator) abort(id string) {
	o.mu.Lock()
	f := o.inflight[id]
	o.mu.Unlock()
	if f != nil {
		f.cancel()
	}
}

// runPipeline takes an admitted job through analysis and the first render
func (o *Orchestrator) runPipeline(ctx context.Context, id string) {
	job, err := o.jobs.GetByID(ctx, id)
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", id).Msg("failed to load job")
		return
	}

	job, applied, err := o.transition(job, model.StatusUpdate{From: model.StatusPending, To: model.StatusAnalyzing})
	if err != nil || !applied {
		return
	}

	c, err := o.contents.Get(ctx, job.ContentID)
	if err != nil {
		o.fail(ctx, job, model.StatusAnalyzing, err)
		return
	}
	raw, err := callProvider(ctx, o, "analysis", o.timeouts.Analysis, func(ctx context.Context) (*model.ContentAnalysisResult, error) {
		return o.analyzer.Analyze(ctx, *c)
	})
	if err != nil {
		o.fail(ctx, job, model.StatusAnalyzing, err)
		return
	}
	// segments may have been edited since upload, keep them
	if _, err := o.contents.Ingest(ctx, job.ContentID, raw, false); err != nil {
		o.fail(ctx, job, model.StatusAnalyzing, err)
		return
	}

	job, applied, err = o.transition(job, model.StatusUpdate{From: model.StatusAnalyzing, To: model.StatusProcessing})
	if err != nil || !applied {
		return
	}
	o.render(ctx, job)
}

// runRender renders a job that was sent back to processing
func (o *Orchestrator) runRender(ctx context.Context, id string) {
	job, err := o.jobs.GetByID(ctx, id)
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", id).Msg("failed to load job")
		return
	}
	if job.Status != model.StatusProcessing {
		o.jobLogger(job).Debug().Str("status", string(job.Status)).Msg("render skipped, job moved on")
		return
	}
	o.render(ctx, job)
}

func (o *Orchestrator) render(ctx context.Context, job *model.VideoProcessingResult) {
	c, err := o.contents.Get(ctx, job.ContentID)
	if err != nil {
		o.fail(ctx, job, model.StatusProcessing, err)
		return
	}
	tpl, err := o.templates.Get(ctx, job.TemplateID)
	if err != nil {
		o.fail(ctx, job, model.StatusProcessing, err)
		return
	}

	// bounds are read now so edits made during review are rendered
	segments := make([]model.VideoSegment, 0, len(job.SegmentIDs))
	for _, segID := range job.SegmentIDs {
		seg, err := o.segments.GetSegment(ctx, job.ContentID, segID)
		if err != nil {
			o.fail(ctx, job, model.StatusProcessing, err)
			return
		}
		segments = append(segments, *seg)
	}

	out, err := callProvider(ctx, o, "render", o.timeouts.Render, func(ctx context.Context) (*provider.RenderOutput, error) {
		return o.renderer.Render(ctx, provider.RenderJob{
			JobID:          job.ID,
			SourceRef:      c.SourceRef,
			Segments:       segments,
			Template:       *tpl,
			CustomSettings: job.CustomSettings,
		})
	})
	if err != nil {
		o.fail(ctx, job, model.StatusProcessing, err)
		return
	}

	o.transition(job, model.StatusUpdate{
		From:         model.StatusProcessing,
		To:           model.StatusReview,
		PreviewRef:   &out.PreviewRef,
		RenderJobRef: &out.RenderJobRef,
	})
}

// transition applies update as a compare-and-set. A job that already left
// update.From is reported as not applied, without error.
func (o *Orchestrator) transition(job *model.VideoProcessingResult, update model.StatusUpdate) (*model.VideoProcessingResult, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	update.At = time.Now().UTC()
	if lease := o.leaseFor(update.To); lease > 0 {
		until := update.At.Add(lease)
		update.LeaseUntil = &until
	}
	logger := o.jobLogger(job).With().Str("from", string(update.From)).Str("to", string(update.To)).Logger()

	updated, err := o.jobs.Transition(ctx, job.ID, update)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeConflict) {
			logger.Debug().Err(err).Msg("stale transition ignored")
			return nil, false, nil
		}
		logger.Error().Err(err).Msg("failed to apply transition")
		return nil, false, err
	}

	o.metrics.Transitions.WithLabelValues(string(update.From), string(update.To)).Inc()
	if update.To.Terminal() {
		o.metrics.ActiveJobs.Dec()
	}

	event := logger.Info()
	if updated.ErrorMessage != nil && update.To == model.StatusFailed {
		event = logger.Warn().Str("reason", *updated.ErrorMessage)
	}
	event.Msg("job transitioned")
	return updated, true, nil
}

// leaseFor returns how long a job entering status may go without moving on.
// Zero means the status carries no lease.
func (o *Orchestrator) leaseFor(status model.ProcessingStatus) time.Duration {
	attempts := time.Duration(maxRetries + 1)
	switch status {
	case model.StatusPending:
		return dispatchLease
	case model.StatusAnalyzing:
		return attempts*o.timeouts.Analysis + leaseSlack
	case model.StatusProcessing:
		return attempts*o.timeouts.Render + leaseSlack
	}
	return 0
}

// fail moves the job from `from` to failed with err as the reason. Work
// aborted by Cancel or Shutdown is left alone: Cancel has already written
// its own outcome and Recover handles the rest once the lease runs out.
func (o *Orchestrator) fail(ctx context.Context, job *model.VideoProcessingResult, from model.ProcessingStatus, err error) {
	if ctx.Err() != nil || apperrors.Is(err, apperrors.CodeCancelled) {
		o.jobLogger(job).Info().Err(err).Msg("job work aborted")
		return
	}

	reason := failureReason(err)
	o.transition(job, model.StatusUpdate{
		From:         from,
		To:           model.StatusFailed,
		ErrorMessage: &reason,
	})
}

func failureReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// callProvider runs call under provider.Await, retrying once when the
// failure declares itself retryable
func callProvider[T any](ctx context.Context, o *Orchestrator, name string, timeout time.Duration, call func(ctx context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		value, err := provider.Await(ctx, timeout, name, call)
		o.metrics.ProviderLatency.WithLabelValues(name, outcome(err)).Observe(time.Since(start).Seconds())

		if err == nil || attempt >= maxRetries || ctx.Err() != nil || !provider.IsRetryable(err) {
			return value, err
		}
		o.logger.Warn().Err(err).Str("call", name).Msg("retrying provider call")
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(apperrors.CodeOf(err))
}
