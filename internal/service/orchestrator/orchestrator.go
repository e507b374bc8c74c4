// Package orchestrator drives processing jobs through
// pending → analyzing → processing → review → completed, or failed.
//
// Every status write is a compare-and-set on the expected prior status, so a
// provider result that arrives after the job moved on (for example after a
// cancellation) is dropped instead of overwriting the newer state.
//
// Several processes may drive jobs against one store. Entering pending,
// analyzing or processing stamps the job with a lease sized to the stage's
// provider timeouts, and Recover only touches jobs whose lease ran out.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/logging"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/processing"
	"github.com/Taichi-iskw/yt-shorts/internal/service/content"
	"github.com/Taichi-iskw/yt-shorts/internal/service/provider"
	"github.com/Taichi-iskw/yt-shorts/internal/service/segment"
	"github.com/Taichi-iskw/yt-shorts/internal/service/template"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrorInterrupted is recorded on jobs a previous process left mid-flight
const ErrorInterrupted = "interrupted"

// Timeouts bound each provider call
type Timeouts struct {
	Analysis time.Duration
	Render   time.Duration
	Finalize time.Duration
}

// Options adjust request admission
type Options struct {
	// AllowTemplateMismatch admits a template unsuited to the content type.
	// The mismatch is recorded in the job's warnings.
	AllowTemplateMismatch bool
}

// Dependencies wires an Orchestrator
type Dependencies struct {
	Jobs      processing.Repository
	Contents  content.ContentService
	Segments  segment.SegmentService
	Templates template.TemplateService
	Analyzer  provider.Analyzer
	Renderer  provider.Renderer
	Timeouts  Timeouts
	Metrics   *Metrics
	Logger    zerolog.Logger
}

type flight struct {
	cancel context.CancelFunc
}

// Orchestrator owns the processing state machine
type Orchestrator struct {
	jobs      processing.Repository
	contents  content.ContentService
	segments  segment.SegmentService
	templates template.TemplateService
	analyzer  provider.Analyzer
	renderer  provider.Renderer
	timeouts  Timeouts
	metrics   *Metrics
	logger    zerolog.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]*flight
}

// New creates an Orchestrator. Background work runs until Shutdown.
func New(deps Dependencies) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		jobs:      deps.Jobs,
		contents:  deps.Contents,
		segments:  deps.Segments,
		templates: deps.Templates,
		analyzer:  deps.Analyzer,
		renderer:  deps.Renderer,
		timeouts:  deps.Timeouts,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With().Str("component", "orchestrator").Logger(),
		base:      base,
		stop:      stop,
		inflight:  make(map[string]*flight),
	}
}

// CreateRequest validates req, admits it as a pending job and starts the
// pipeline in the background. CONFLICT when the content already has a
// non-terminal job.
func (o *Orchestrator) CreateRequest(ctx context.Context, req model.VideoProcessingRequest, opts Options) (*model.VideoProcessingResult, error) {
	c, err := o.contents.Get(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	if err := o.checkSegments(ctx, req.ContentID, req.SelectedSegmentIDs); err != nil {
		return nil, err
	}

	tpl, ok, err := o.templates.Compatible(ctx, req.TemplateID, c.ContentType)
	if err != nil {
		return nil, err
	}
	var warnings []string
	if !ok {
		if !opts.AllowTemplateMismatch {
			return nil, errors.Newf(errors.CodeInvalidArg,
				"template %s is not suitable for %s content", tpl.ID, c.ContentType)
		}
		warnings = append(warnings, "template "+tpl.ID+" is not suitable for "+string(c.ContentType)+" content")
	}

	now := time.Now().UTC()
	job := &model.VideoProcessingResult{
		ID:             uuid.NewString(),
		ContentID:      req.ContentID,
		TemplateID:     req.TemplateID,
		SegmentIDs:     append([]string(nil), req.SelectedSegmentIDs...),
		BrandAssetIDs:  req.BrandAssetIDs,
		CustomSettings: req.CustomSettings,
		Status:         model.StatusPending,
		Warnings:       warnings,
		LeaseExpiresAt: model.Ptr(now.Add(o.leaseFor(model.StatusPending))),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	o.metrics.ActiveJobs.Inc()

	logger := o.jobLogger(job)
	logger.Info().Str("template_id", job.TemplateID).Strs("segments", job.SegmentIDs).Msg("job admitted")
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	o.dispatch(job.ID, o.runPipeline)
	return job, nil
}

// checkSegments requires a non-empty list of distinct, selected segments of contentID
func (o *Orchestrator) checkSegments(ctx context.Context, contentID string, ids []string) error {
	if len(ids) == 0 {
		return errors.New(errors.CodeInvalidArg, "at least one segment must be selected")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errors.Newf(errors.CodeInvalidArg, "segment %s is listed twice", id)
		}
		seen[id] = true

		seg, err := o.segments.GetSegment(ctx, contentID, id)
		if err != nil {
			return err
		}
		if !seg.Selected {
			return errors.Newf(errors.CodeInvalidArg, "segment %s is not selected", id)
		}
	}
	return nil
}

// Get returns one job
func (o *Orchestrator) Get(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	return o.jobs.GetByID(ctx, id)
}

// ListByContent returns the jobs of one content item, oldest first
func (o *Orchestrator) ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error) {
	if _, err := o.contents.Get(ctx, contentID); err != nil {
		return nil, err
	}
	return o.jobs.ListByContent(ctx, contentID)
}

// List returns jobs newest first
func (o *Orchestrator) List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error) {
	if limit <= 0 {
		limit = 50
	}
	return o.jobs.List(ctx, limit, offset)
}

// Approve finalizes a job in review. A finalize failure fails the job and is
// also returned to the caller.
func (o *Orchestrator) Approve(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	job, err := o.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.StatusReview {
		return nil, errors.Newf(errors.CodeInvalidArg, "job %s is %s, only jobs in review can be approved", id, job.Status)
	}
	if job.RenderJobRef == nil {
		return nil, errors.Newf(errors.CodeInternal, "job %s has no render to finalize", id)
	}

	runCtx, release := o.track(ctx, id)
	defer release()

	finalRef, err := callProvider(runCtx, o, "finalize", o.timeouts.Finalize, func(ctx context.Context) (string, error) {
		return o.renderer.Finalize(ctx, *job.RenderJobRef)
	})
	if err != nil {
		o.fail(runCtx, job, model.StatusReview, err)
		return nil, err
	}

	updated, applied, err := o.transition(job, model.StatusUpdate{
		From:     model.StatusReview,
		To:       model.StatusCompleted,
		FinalRef: &finalRef,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.Newf(errors.CodeConflict, "job %s changed state during approval", id)
	}
	return updated, nil
}

// Rerender sends a job in review back to processing with a new segment
// selection. The current preview is archived, not overwritten. A nil
// segmentIDs keeps the previous selection.
func (o *Orchestrator) Rerender(ctx context.Context, id string, segmentIDs []string) (*model.VideoProcessingResult, error) {
	job, err := o.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.StatusReview {
		return nil, errors.Newf(errors.CodeInvalidArg, "job %s is %s, only jobs in review can be re-rendered", id, job.Status)
	}
	if segmentIDs == nil {
		segmentIDs = job.SegmentIDs
	}
	if err := o.checkSegments(ctx, job.ContentID, segmentIDs); err != nil {
		return nil, err
	}

	updated, applied, err := o.transition(job, model.StatusUpdate{
		From:           model.StatusReview,
		To:             model.StatusProcessing,
		ArchivePreview: true,
		SegmentIDs:     segmentIDs,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.Newf(errors.CodeConflict, "job %s changed state before re-render", id)
	}

	o.dispatch(id, o.runRender)
	return updated, nil
}

// Cancel fails a non-terminal job with the cancelled reason and aborts its
// in-flight provider call. Whichever of Cancel and a provider result reaches
// the store first wins.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	for {
		job, err := o.jobs.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !job.Status.Cancellable() {
			return nil, errors.Newf(errors.CodeConflict, "job %s is already %s", id, job.Status)
		}

		reason := model.ErrorCancelled
		updated, applied, err := o.transition(job, model.StatusUpdate{
			From:         job.Status,
			To:           model.StatusFailed,
			ErrorMessage: &reason,
			Cancelled:    true,
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			// moved on between read and write; re-read and try again
			continue
		}

		o.abort(id)
		return updated, nil
	}
}

// Recover fails analyzing and processing jobs whose lease ran out and
// restarts pending jobs nobody picked up. Jobs held by a live process,
// this one or another sharing the store, are left alone. It returns the
// number of failed jobs.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	stranded, err := o.jobs.ListByStatus(ctx, model.StatusAnalyzing, model.StatusProcessing)
	if err != nil {
		return 0, err
	}

	failed := 0
	reason := ErrorInterrupted
	for _, job := range stranded {
		if !o.orphaned(job, now) {
			continue
		}
		o.metrics.ActiveJobs.Inc()
		_, applied, err := o.transition(job, model.StatusUpdate{
			From:         job.Status,
			To:           model.StatusFailed,
			ErrorMessage: &reason,
		})
		if err != nil || !applied {
			o.metrics.ActiveJobs.Dec()
		}
		if err != nil {
			return failed, err
		}
		if applied {
			failed++
		}
	}

	pending, err := o.jobs.ListByStatus(ctx, model.StatusPending)
	if err != nil {
		return failed, err
	}
	resumed := 0
	for _, job := range pending {
		if !o.orphaned(job, now) {
			continue
		}
		o.metrics.ActiveJobs.Inc()
		logger := o.jobLogger(job)
		logger.Info().Msg("resuming admitted job")
		o.dispatch(job.ID, o.runPipeline)
		resumed++
	}

	event := o.logger.Debug()
	if failed > 0 || resumed > 0 {
		event = o.logger.Info()
	}
	event.Int("failed", failed).Int("resumed", resumed).Msg("recovery finished")
	return failed, nil
}

// Sweep runs Recover every interval until ctx is done, so jobs left behind by
// a process that died while this one runs do not block their content.
func (o *Orchestrator) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.Recover(ctx); err != nil && ctx.Err() == nil {
				o.logger.Error().Err(err).Msg("lease sweep failed")
			}
		}
	}
}

// orphaned reports whether job's lease ran out and this process holds no work for it
func (o *Orchestrator) orphaned(job *model.VideoProcessingResult, now time.Time) bool {
	o.mu.Lock()
	_, local := o.inflight[job.ID]
	o.mu.Unlock()
	return !local && job.LeaseExpired(now)
}

// Wait blocks until all background work has finished
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels background work and waits for it, up to ctx's deadline.
// Jobs cut short stay in their current state for Recover to pick up once
// their lease runs out.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.stop()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.CodeInternal, "orchestrator shutdown timed out")
	}
}

func (o *Orchestrator) jobLogger(job *model.VideoProcessingResult) *zerolog.Logger {
	logger := logging.WithJob(o.logger, job.ID, job.ContentID)
	return &logger
}
