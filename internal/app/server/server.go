package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"sitedocs/internal/domain/audit"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/project"
	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/classifier"
	"sitedocs/internal/platform/config"
	"sitedocs/internal/platform/crypto"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/jobs"
	"sitedocs/internal/platform/metrics"
	"sitedocs/internal/platform/pdf"
	"sitedocs/internal/transport/http/api"
	audithandler "sitedocs/internal/transport/http/handlers/audit"
	checklisthandler "sitedocs/internal/transport/http/handlers/checklist"
	documentshandler "sitedocs/internal/transport/http/handlers/documents"
	workershandler "sitedocs/internal/transport/http/handlers/workers"
	"sitedocs/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Project *project.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Audit   *audit.Log
	Router  http.Handler

	cancel context.CancelFunc
}

type Option func(*options)

type options struct {
	classifier documents.Classifier
	clock      func() time.Time
}

// WithClassifier replaces the remote classifier, e.g. with a stub in tests.
func WithClassifier(c documents.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New wires the service graph for one project. The bulk-intake worker runs
// until ctx is cancelled or Close is called.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	collector := metrics.New()

	sealer, err := crypto.New(strings.TrimSpace(cfg.BlobEncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("blob encryption: %w", err)
	}
	var store *blob.Store
	if sealer.Configured() {
		store = blob.NewStore(sealer)
	} else {
		store = blob.NewStore(nil)
	}

	classify := o.classifier
	if classify == nil {
		classify = newClassifier(cfg, collector)
	}

	archival := imaging.Preset{MaxWidth: cfg.ArchivalMaxWidth, Quality: cfg.ArchivalQuality}
	thumbnail := imaging.Preset{MaxWidth: cfg.ThumbnailMaxWidth, Quality: cfg.ThumbnailQuality}
	pipeline := documents.NewPipeline(
		imaging.NewNormalizer(imaging.WithMaxPixels(cfg.MaxImagePixels)),
		classify,
		pdf.NewCompositor(pdf.WithClock(o.clock)),
		store,
		documents.WithPresets(archival, thumbnail),
		documents.WithClock(o.clock),
	)

	svc := project.New(
		project.Info{ID: cfg.ProjectID, Code: cfg.ProjectCode, Name: cfg.ProjectName},
		pipeline,
		store,
		project.WithClock(o.clock),
		project.WithRecorder(collector),
		project.OnUpdate(func(c documents.Collection) {
			slog.Debug("documents updated", "count", c.Len())
		}),
	)

	runCtx, cancel := context.WithCancel(ctx)
	jobsSvc := jobs.New(cfg.BulkQueueSize)
	jobsSvc.Start(runCtx)

	app := &App{
		Config:  cfg,
		Project: svc,
		Jobs:    jobsSvc,
		Metrics: collector,
		Audit:   audit.New(cfg.ActivityLogSize, audit.WithClock(o.clock)),
		cancel:  cancel,
	}
	app.Router = app.routes()
	return app, nil
}

func newClassifier(cfg config.Config, collector *metrics.Collector) *classifier.Adapter {
	onFallback := classifier.OnFallback(func(reason string) {
		collector.RecordFallback()
		slog.Debug("classification fallback used", "reason", reason)
	})
	if !cfg.ClassifierConfigured() {
		slog.Info("classifier not configured, intakes use the fallback classification")
		return classifier.NewAdapter(nil, onFallback)
	}
	client := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierModel, &http.Client{Timeout: cfg.ClassifierTimeout})
	return classifier.NewAdapter(client, classifier.WithTimeout(cfg.ClassifierTimeout), onFallback)
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.IntakeRateLimit(cfg.RateLimitPerMinute, time.Minute))

		documentshandler.NewHandler(a.Project, a.Jobs, a.Metrics, a.Audit).RegisterRoutes(r)
		workershandler.NewHandler(a.Project, a.Audit).RegisterRoutes(r)
		checklisthandler.NewHandler(a.Project, a.Audit).RegisterRoutes(r)
		audithandler.NewHandler(a.Audit).RegisterRoutes(r)
	})

	return router
}

// Close stops the bulk-intake worker.
func (a *App) Close() {
	if a != nil && a.cancel != nil {
		a.cancel()
	}
}

// NewLogger builds the JSON process logger at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Run() {
	if err := run(); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg := config.Load()
	slog.SetDefault(NewLogger(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("sitedocs server listening",
		"addr", cfg.Addr,
		"project", cfg.ProjectCode,
		"classifier", cfg.ClassifierConfigured(),
		"blobEncryption", strings.TrimSpace(cfg.BlobEncryptionKey) != "",
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
