// Package app assembles the service graph shared by every command.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/config"
	"github.com/Taichi-iskw/yt-shorts/internal/logging"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/analysis"
	contentrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/content"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/memory"
	metricsrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/metrics"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/processing"
	segmentrepo "github.com/Taichi-iskw/yt-shorts/internal/repository/segment"
	templaterepo "github.com/Taichi-iskw/yt-shorts/internal/repository/template"
	"github.com/Taichi-iskw/yt-shorts/internal/service/common"
	"github.com/Taichi-iskw/yt-shorts/internal/service/content"
	"github.com/Taichi-iskw/yt-shorts/internal/service/metrics"
	"github.com/Taichi-iskw/yt-shorts/internal/service/orchestrator"
	"github.com/Taichi-iskw/yt-shorts/internal/service/provider"
	"github.com/Taichi-iskw/yt-shorts/internal/service/scoring"
	"github.com/Taichi-iskw/yt-shorts/internal/service/segment"
	"github.com/Taichi-iskw/yt-shorts/internal/service/template"
	"github.com/Taichi-iskw/yt-shorts/internal/service/timeline"
	"github.com/Taichi-iskw/yt-shorts/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// shutdownTimeout bounds how long cleanup waits for in-flight jobs
const shutdownTimeout = 30 * time.Second

// Services is the wired application
type Services struct {
	Config       *config.Config
	Contents     content.ContentService
	Segments     segment.SegmentService
	Templates    template.TemplateService
	Editor       *timeline.Editor
	Orchestrator *orchestrator.Orchestrator
	Metrics      metrics.MetricsService
	Registry     *prometheus.Registry
}

// repositories groups one persistence backend
type repositories struct {
	contents  contentrepo.Repository
	segments  segmentrepo.Repository
	analyses  analysis.Repository
	templates templaterepo.Repository
	jobs      processing.Repository
	metrics   metricsrepo.Repository
}

// ServiceFactory creates Services instances
type ServiceFactory struct{}

// NewServiceFactory creates a new service factory
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{}
}

// CreateServices loads configuration and wires every service. The returned
// cleanup stops background jobs and closes the database pool.
func (f *ServiceFactory) CreateServices(ctx context.Context) (*Services, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return f.CreateServicesWithConfig(ctx, cfg)
}

// CreateServicesWithConfig wires every service from an explicit configuration
func (f *ServiceFactory) CreateServicesWithConfig(ctx context.Context, cfg *config.Config) (*Services, func(), error) {
	repos, closeStore, err := openRepositories(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewLocalStore(cfg.StorageDir)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to open media storage: %w", err)
	}

	if err := template.Seed(ctx, repos.templates); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to seed templates: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cmdRunner := common.NewCmdRunner()
	analyzer := provider.NewWhisperAnalyzerWithCmdRunner(cmdRunner, store, cfg.WhisperModel)
	renderer := provider.NewFFmpegRendererWithCmdRunner(cmdRunner, store)
	prober := provider.NewFFprobe(cmdRunner)
	engine := scoring.NewEngine(nil)
	logger := logging.WithComponent("app")

	templates := template.NewTemplateService(repos.templates)
	segments := segment.NewSegmentService(repos.contents, repos.segments, repos.analyses, engine)
	contents := content.NewContentService(
		repos.contents,
		repos.analyses,
		repos.jobs,
		segments,
		templates,
		store,
		analyzer,
		prober,
		engine,
		cfg.Timeouts.Analysis,
		logger,
	)

	orch := orchestrator.New(orchestrator.Dependencies{
		Jobs:      repos.jobs,
		Contents:  contents,
		Segments:  segments,
		Templates: templates,
		Analyzer:  analyzer,
		Renderer:  renderer,
		Timeouts: orchestrator.Timeouts{
			Analysis: cfg.Timeouts.Analysis,
			Render:   cfg.Timeouts.Render,
			Finalize: cfg.Timeouts.Finalize,
		},
		Metrics: orchestrator.NewMetrics(registry),
		Logger:  logger,
	})

	services := &Services{
		Config:       cfg,
		Contents:     contents,
		Segments:     segments,
		Templates:    templates,
		Editor:       timeline.NewEditor(repos.contents, segments),
		Orchestrator: orch,
		Metrics:      metrics.NewMetricsService(repos.metrics, repos.jobs, templates, logger),
		Registry:     registry,
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := orch.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("jobs still running at shutdown")
		}
		closeStore()
	}

	return services, cleanup, nil
}

// openRepositories connects the configured backend
func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, func(), error) {
	if cfg.Store == config.StoreMemory {
		s := memory.NewStore()
		return &repositories{
			contents:  s.Contents(),
			segments:  s.Segments(),
			analyses:  s.Analyses(),
			templates: s.Templates(),
			jobs:      s.Jobs(),
			metrics:   s.Metrics(),
		}, func() {}, nil
	}

	dbPool, err := config.NewDatabasePool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &repositories{
		contents:  contentrepo.NewRepository(dbPool),
		segments:  segmentrepo.NewRepository(dbPool),
		analyses:  analysis.NewRepository(dbPool),
		templates: templaterepo.NewRepository(dbPool),
		jobs:      processing.NewRepository(dbPool),
		metrics:   metricsrepo.NewRepository(dbPool),
	}, func() { config.CloseDatabasePool(dbPool) }, nil
}
