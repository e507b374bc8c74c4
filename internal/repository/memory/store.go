// Package memory keeps every entity in process memory behind one lock.
// It backs the "memory" store setting and the service tests.
package memory

import (
	"slices"
	"sync"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/analysis"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/metrics"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/processing"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/segment"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/template"
)

// Store holds all tables. Each repository view takes the same lock, so
// cross-table rules (cascade delete, job admission) are atomic.
type Store struct {
	mu        sync.RWMutex
	contents  map[string]model.ContentUpload
	segments  map[string][]model.VideoSegment // by content id, ordered by position
	analyses  map[string]model.ContentAnalysisResult
	templates map[string]model.VideoTemplate
	jobs      map[string]model.VideoProcessingResult
	metrics   map[string]model.PerformanceMetrics
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		contents:  make(map[string]model.ContentUpload),
		segments:  make(map[string][]model.VideoSegment),
		analyses:  make(map[string]model.ContentAnalysisResult),
		templates: make(map[string]model.VideoTemplate),
		jobs:      make(map[string]model.VideoProcessingResult),
		metrics:   make(map[string]model.PerformanceMetrics),
	}
}

// Repository views over the shared tables

func (s *Store) Contents() content.Repository   { return &contentStore{s} }
func (s *Store) Segments() segment.Repository   { return &segmentStore{s} }
func (s *Store) Analyses() analysis.Repository  { return &analysisStore{s} }
func (s *Store) Templates() template.Repository { return &templateStore{s} }
func (s *Store) Jobs() processing.Repository    { return &jobStore{s} }
func (s *Store) Metrics() metrics.Repository    { return &metricsStore{s} }

func cloneContent(c model.ContentUpload) model.ContentUpload {
	if c.Description != nil {
		d := *c.Description
		c.Description = &d
	}
	if c.PreferredDuration != nil {
		d := *c.PreferredDuration
		c.PreferredDuration = &d
	}
	if c.AnalyzedAt != nil {
		at := *c.AnalyzedAt
		c.AnalyzedAt = &at
	}
	return c
}

func cloneSegments(segments []model.VideoSegment) []model.VideoSegment {
	out := make([]model.VideoSegment, len(segments))
	for i, seg := range segments {
		out[i] = seg.Clone()
	}
	return out
}

func cloneAnalysis(a model.ContentAnalysisResult) model.ContentAnalysisResult {
	a.Segments = cloneSegments(a.Segments)
	a.Keywords = slices.Clone(a.Keywords)
	a.RecommendedTemplateIDs = slices.Clone(a.RecommendedTemplateIDs)
	return a
}

func cloneMetrics(m model.PerformanceMetrics) model.PerformanceMetrics {
	if m.ClickThroughRate != nil {
		ctr := *m.ClickThroughRate
		m.ClickThroughRate = &ctr
	}
	return m
}
