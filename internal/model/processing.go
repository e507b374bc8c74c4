package model

import (
	"fmt"
	"slices"
	"time"
)

// ProcessingStatus is the state of a processing job
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusAnalyzing  ProcessingStatus = "analyzing"
	StatusProcessing ProcessingStatus = "processing"
	StatusReview     ProcessingStatus = "review"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether s is a known status
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusProcessing, StatusReview, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ParseProcessingStatus converts a raw string into a ProcessingStatus
func ParseProcessingStatus(s string) (ProcessingStatus, error) {
	st := ProcessingStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown processing status %q", s)
	}
	return st, nil
}

// Terminal reports whether no transition leaves s
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NextStates returns the states reachable from s through the regular pipeline.
// Cancellation is a separate edge, see Cancellable.
func (s ProcessingStatus) NextStates() []ProcessingStatus {
	switch s {
	case StatusPending:
		return []ProcessingStatus{StatusAnalyzing}
	case StatusAnalyzing:
		return []ProcessingStatus{StatusProcessing, StatusFailed}
	case StatusProcessing:
		return []ProcessingStatus{StatusReview, StatusFailed}
	case StatusReview:
		return []ProcessingStatus{StatusCompleted, StatusProcessing, StatusFailed}
	case StatusCompleted, StatusFailed:
		return nil
	}
	return nil
}

// CanTransition reports whether from -> to is a pipeline edge
func CanTransition(from, to ProcessingStatus) bool {
	return slices.Contains(from.NextStates(), to)
}

// Cancellable reports whether a job in s may be moved to failed by cancellation
func (s ProcessingStatus) Cancellable() bool {
	return s.Valid() && !s.Terminal()
}

// ErrorCancelled is the error message recorded on cancelled jobs
const ErrorCancelled = "cancelled"

// VideoProcessingRequest asks for a short-form clip built from selected segments
type VideoProcessingRequest struct {
	ContentID          string         `json:"content_id"`
	SelectedSegmentIDs []string       `json:"selected_segment_ids"`
	TemplateID         string         `json:"template_id"`
	BrandAssetIDs      []string       `json:"brand_asset_ids,omitempty"`
	CustomSettings     map[string]any `json:"custom_settings,omitempty"`
}

// ArchivedPreview is a preview replaced by a re-render
type ArchivedPreview struct {
	PreviewRef string    `json:"preview_ref"`
	SegmentIDs []string  `json:"segment_ids"`
	ArchivedAt time.Time `json:"archived_at"`
}

// VideoProcessingResult tracks one job through the processing state machine
type VideoProcessingResult struct {
	ID             string            `json:"id" db:"id"`
	ContentID      string            `json:"content_id" db:"content_id"`
	TemplateID     string            `json:"template_id" db:"template_id"`
	SegmentIDs     []string          `json:"segment_ids" db:"segment_ids"`
	BrandAssetIDs  []string          `json:"brand_asset_ids,omitempty" db:"brand_asset_ids"`
	CustomSettings map[string]any    `json:"custom_settings,omitempty" db:"custom_settings"`
	Status         ProcessingStatus  `json:"status" db:"status"`
	PreviewRef     *string           `json:"preview_ref,omitempty" db:"preview_ref"`
	FinalRef       *string           `json:"final_ref,omitempty" db:"final_ref"`
	RenderJobRef   *string           `json:"render_job_ref,omitempty" db:"render_job_ref"`
	ErrorMessage   *string           `json:"error_message,omitempty" db:"error_message"`
	Cancelled      bool              `json:"cancelled" db:"cancelled"`
	Warnings       []string          `json:"warnings,omitempty" db:"warnings"`
	PreviewHistory []ArchivedPreview `json:"preview_history,omitempty" db:"preview_history"`
	// LeaseExpiresAt is when the process driving the job must have moved it on.
	// Only pending, analyzing and processing jobs carry one.
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy
func (r VideoProcessingResult) Clone() VideoProcessingResult {
	r.SegmentIDs = slices.Clone(r.SegmentIDs)
	r.BrandAssetIDs = slices.Clone(r.BrandAssetIDs)
	r.Warnings = slices.Clone(r.Warnings)
	r.PreviewHistory = slices.Clone(r.PreviewHistory)
	if r.CustomSettings != nil {
		settings := make(map[string]any, len(r.CustomSettings))
		for k, v := range r.CustomSettings {
			settings[k] = v
		}
		r.CustomSettings = settings
	}
	r.PreviewRef = clonePtr(r.PreviewRef)
	r.FinalRef = clonePtr(r.FinalRef)
	r.RenderJobRef = clonePtr(r.RenderJobRef)
	r.ErrorMessage = clonePtr(r.ErrorMessage)
	r.LeaseExpiresAt = clonePtr(r.LeaseExpiresAt)
	return r
}

// LeaseExpired reports whether no process holds a live lease on the job at now.
// A job without a lease counts as expired.
func (r VideoProcessingResult) LeaseExpired(now time.Time) bool {
	return r.LeaseExpiresAt == nil || !now.Before(*r.LeaseExpiresAt)
}

// StatusUpdate describes a compare-and-set transition of a job
type StatusUpdate struct {
	From         ProcessingStatus
	To           ProcessingStatus
	At           time.Time
	PreviewRef   *string
	FinalRef     *string
	RenderJobRef *string
	ErrorMessage *string
	Cancelled    bool
	// ArchivePreview moves the current preview into PreviewHistory and clears it
	ArchivePreview bool
	// SegmentIDs replaces the job's segment selection when non-nil
	SegmentIDs []string
	// LeaseUntil becomes the job's lease deadline; nil clears the lease
	LeaseUntil *time.Time
}

// Validate checks that the update follows a pipeline edge or is a cancellation
func (u StatusUpdate) Validate() error {
	if CanTransition(u.From, u.To) {
		return nil
	}
	if u.Cancelled && u.To == StatusFailed && u.From.Cancellable() {
		return nil
	}
	return fmt.Errorf("invalid transition %s -> %s", u.From, u.To)
}

// Apply returns r with the update applied. The caller checks r.Status == u.From.
func (u StatusUpdate) Apply(r VideoProcessingResult) VideoProcessingResult {
	out := r.Clone()
	if u.ArchivePreview && out.PreviewRef != nil {
		out.PreviewHistory = append(out.PreviewHistory, ArchivedPreview{
			PreviewRef: *out.PreviewRef,
			SegmentIDs: slices.Clone(r.SegmentIDs),
			ArchivedAt: u.At,
		})
		out.PreviewRef = nil
	}
	if u.SegmentIDs != nil {
		out.SegmentIDs = slices.Clone(u.SegmentIDs)
	}
	if u.PreviewRef != nil {
		out.PreviewRef = clonePtr(u.PreviewRef)
	}
	if u.FinalRef != nil {
		out.FinalRef = clonePtr(u.FinalRef)
	}
	if u.RenderJobRef != nil {
		out.RenderJobRef = clonePtr(u.RenderJobRef)
	}
	if u.ErrorMessage != nil {
		out.ErrorMessage = clonePtr(u.ErrorMessage)
	}
	if u.Cancelled {
		out.Cancelled = true
	}
	out.LeaseExpiresAt = clonePtr(u.LeaseUntil)
	out.Status = u.To
	out.UpdatedAt = u.At
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
