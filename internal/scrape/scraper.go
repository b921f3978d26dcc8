package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/db"
	"github.com/dtnitsch/image-scraper/pkg/downloader"
	"github.com/dtnitsch/image-scraper/pkg/fetcher"
	"github.com/dtnitsch/image-scraper/pkg/manifest"
	"github.com/dtnitsch/image-scraper/pkg/storage"
)

// Recorder persists run history. *db.DB implements it.
type Recorder interface {
	CreateRun(runID, keyword, directory string, requested, threads int) error
	RecordDownload(d db.Download) error
	FinishRun(runID string, found, successCount, failedCount int) error
}

// Scraper wires discovery into the download pool.
type Scraper struct {
	fetcher *fetcher.Fetcher
	storage *storage.Storage
	logger  *slog.Logger
	out     io.Writer
	history Recorder
}

func New(f *fetcher.Fetcher, s *storage.Storage, logger *slog.Logger, out io.Writer) *Scraper {
	return &Scraper{
		fetcher: f,
		storage: s,
		logger:  logger,
		out:     out,
	}
}

// WithHistory records every run and download through r.
func (s *Scraper) WithHistory(r Recorder) *Scraper {
	s.history = r
	return s
}

// Run creates the output directory, builds the manifest and downloads it.
// Failed downloads are reported in the summary, not as an error; errors are
// reserved for a missing output directory and cancellation.
func (s *Scraper) Run(ctx context.Context, cfg *models.ScrapeConfig) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))

	if cfg.Debug {
		logger.Debug("Save directory", "directory", cfg.Directory)
	}
	if err := s.storage.EnsureDir(cfg.Directory); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.Directory, err)
	}

	if s.history != nil {
		if err := s.history.CreateRun(runID, cfg.Keyword, cfg.Directory, cfg.Count, cfg.WorkerCount()); err != nil {
			logger.Warn("Failed to record run", "error", err)
		}
	}

	builder := manifest.NewBuilder(s.fetcher, logger,
		manifest.WithSearchURL(cfg.SearchURL),
		manifest.WithDebug(cfg.Debug),
	)
	entries, err := builder.Build(ctx, cfg.Keyword, cfg.Count)
	if err != nil {
		s.finish(logger, runID, len(entries), 0, 0)
		return nil, fmt.Errorf("discovery interrupted: %w", err)
	}
	fmt.Fprintf(s.out, "Found %d of %d image sources\n", len(entries), cfg.Count)

	summary := &Summary{
		RunID:     runID,
		Keyword:   cfg.Keyword,
		Directory: cfg.Directory,
		Requested: cfg.Count,
		Found:     len(entries),
		Results:   make([]models.DownloadResult, 0, len(entries)),
	}

	logger.Info("Starting download phase", "images", len(entries), "workers", cfg.WorkerCount())
	pool := downloader.NewPool(s.fetcher, s.storage, logger, cfg.WorkerCount(), cfg.Debug)
	for result := range pool.Run(ctx, entries, cfg.Directory) {
		summary.add(result)
		logger.Info("Download finished",
			"progress", fmt.Sprintf("%d/%d", len(summary.Results), summary.Found),
			"worker_id", result.WorkerID,
			"image_id", result.ImageID,
			"ok", result.OK(),
			"reason", result.Reason)
		s.record(logger, runID, result)
	}

	summary.Duration = time.Since(start)
	s.finish(logger, runID, summary.Found, summary.Succeeded, summary.Failed)
	logger.Info("Run complete",
		"found", summary.Found,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.Duration.String())

	return summary, nil
}

func (s *Scraper) finish(logger *slog.Logger, runID string, found, succeeded, failed int) {
	if s.history == nil {
		return
	}
	if err := s.history.FinishRun(runID, found, succeeded, failed); err != nil {
		logger.Warn("Failed to update run stats", "error", err)
	}
}

func (s *Scraper) record(logger *slog.Logger, runID string, r models.DownloadResult) {
	if s.history == nil {
		return
	}
	d := db.Download{
		RunID:         runID,
		ImageID:       r.ImageID,
		SourceURL:     r.SourceURL,
		Status:        r.Status,
		FailureReason: string(r.Reason),
		HTTPStatus:    r.HTTPStatus,
		FilePath:      r.FilePath,
		SizeBytes:     r.SizeBytes,
		ContentHash:   r.ContentHash,
	}
	if r.Err != nil {
		d.ErrorMessage = r.Err.Error()
	}
	if err := s.history.RecordDownload(d); err != nil {
		logger.Warn("Failed to record download", "image_id", r.ImageID, "error", err)
	}
}
