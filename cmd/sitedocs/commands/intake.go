package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sitedocs/cmd/sitedocs/ui"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/periods"
	"sitedocs/internal/domain/project"
	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/classifier"
	"sitedocs/internal/platform/config"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/jobs"
	"sitedocs/internal/platform/pdf"
)

type intakeFlags struct {
	category string
	period   string
	worker   string
	outDir   string
	timeout  time.Duration
}

func newIntakeCmd() *cobra.Command {
	flags := &intakeFlags{}
	cmd := &cobra.Command{
		Use:   "intake FILE...",
		Short: "File photographed documents as PDFs",
		Long: `intake runs every image through normalization, classification and PDF
composition without review, the same way a bulk upload does, and writes one
PDF per file into the output directory. The first unreadable image stops the
batch; PDFs filed before it are still written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntake(cmd, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.category, "category", "", "category for every file (label or key such as contract, training)")
	cmd.Flags().StringVar(&flags.period, "period", "", "fortnight label (default the current one)")
	cmd.Flags().StringVar(&flags.worker, "worker", "", "worker name recorded on every file")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", ".", "directory the PDFs are written to")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Minute, "limit for the whole batch")
	return cmd
}

func runIntake(cmd *cobra.Command, flags *intakeFlags, paths []string) error {
	category, err := parseCategory(flags.category)
	if err != nil {
		return err
	}
	uploads, err := readUploads(paths)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	svc := newIntakeService(cfg)

	period := flags.period
	if period == "" {
		period = periods.Label(svc.Today())
	}
	target := documents.Target{Category: category, WorkerName: flags.worker, Period: period}

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	out := ui.New(cmd.OutOrStdout())
	out.Section("Document intake")
	out.Info("Files: %d", len(uploads))
	out.Info("Period: %s", period)
	if !cfg.ClassifierConfigured() {
		out.Warn("classifier not configured, files are filed with the fallback classification")
	}

	bar := ui.NewProgress(cmd.ErrOrStderr(), len(uploads), "Filing")
	var filed []documents.FileDocument
	status, intakeErr := jobs.New(1).RunNow(ctx, jobs.JobBulkIntake, len(uploads), func(ctx context.Context, progress jobs.Progress) (any, error) {
		var err error
		filed, err = svc.UploadBulk(ctx, uploads, target, func(done, total int) {
			progress(done, total)
			bar.Set(done)
		})
		return len(filed), err
	})
	if intakeErr == nil {
		bar.Finish()
	}
	slog.Debug("intake job finished", "jobId", status.ID, "state", status.State, "current", status.Current, "total", status.Total)

	rows := make([][]string, 0, len(filed))
	for _, doc := range filed {
		data, err := svc.PDF(doc.PDF)
		if err != nil {
			return fmt.Errorf("read pdf %s: %w", doc.Name, err)
		}
		path := uniquePath(flags.outDir, doc.Name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Debug("pdf written", "path", path, "bytes", len(data))
		rows = append(rows, []string{path, string(doc.Category), orDash(doc.WorkerName), orDash(doc.ExpiryDate), orDash(doc.Summary)})
	}

	if len(rows) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		out.Table([]string{"FILE", "CATEGORY", "WORKER", "EXPIRES", "SUMMARY"}, rows)
	}
	if intakeErr != nil {
		out.Fail("filed %d of %d", len(filed), len(uploads))
		return fmt.Errorf("intake stopped: %w", intakeErr)
	}
	out.Success("filed %d of %d", len(filed), len(uploads))
	return nil
}

// newIntakeService builds an in-memory project for one command run.
func newIntakeService(cfg config.Config) *project.Service {
	var analyzer classifier.Analyzer
	if cfg.ClassifierConfigured() {
		analyzer = classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierModel, &http.Client{Timeout: cfg.ClassifierTimeout})
	}
	adapter := classifier.NewAdapter(analyzer,
		classifier.WithTimeout(cfg.ClassifierTimeout),
		classifier.OnFallback(func(reason string) {
			slog.Debug("classification fallback used", "reason", reason)
		}),
	)

	store := blob.NewStore(nil)
	pipeline := documents.NewPipeline(
		imaging.NewNormalizer(imaging.WithMaxPixels(cfg.MaxImagePixels)),
		adapter,
		pdf.NewCompositor(),
		store,
		documents.WithPresets(
			imaging.Preset{MaxWidth: cfg.ArchivalMaxWidth, Quality: cfg.ArchivalQuality},
			imaging.Preset{MaxWidth: cfg.ThumbnailMaxWidth, Quality: cfg.ThumbnailQuality},
		),
	)
	return project.New(project.Info{ID: cfg.ProjectID, Code: cfg.ProjectCode, Name: cfg.ProjectName}, pipeline, store)
}
