package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dtnitsch/image-scraper/internal/common"
	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/detector"
	"github.com/dtnitsch/image-scraper/pkg/fetcher"
	"github.com/dtnitsch/image-scraper/pkg/storage"
)

var (
	ErrBadStatus = errors.New("unexpected status code")
	ErrNotImage  = errors.New("bad content-type")
	ErrInvalidID = errors.New("image id is not a plain file name")
)

// Job is a single download task.
type Job struct {
	Entry models.ManifestEntry
	Dir   string
}

// Pool downloads manifest entries with a fixed number of workers.
type Pool struct {
	fetcher *fetcher.Fetcher
	storage *storage.Storage
	logger  *slog.Logger
	workers int
	debug   bool
}

func NewPool(f *fetcher.Fetcher, s *storage.Storage, logger *slog.Logger, workers int, debug bool) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		fetcher: f,
		storage: s,
		logger:  logger.With(slog.String("component", "downloader")),
		workers: workers,
		debug:   debug,
	}
}

// Run starts the workers and returns a channel carrying exactly one result
// per entry. The channel is closed once every task has finished.
func (p *Pool) Run(ctx context.Context, entries []models.ManifestEntry, dir string) <-chan models.DownloadResult {
	jobs := make(chan Job, len(entries))
	results := make(chan models.DownloadResult, len(entries))

	var wg sync.WaitGroup
	for w := 1; w <= p.workers; w++ {
		wg.Add(1)
		go p.worker(ctx, w, &wg, jobs, results)
	}

	for _, e := range entries {
		jobs <- Job{Entry: e, Dir: dir}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (p *Pool) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan Job, results chan<- models.DownloadResult) {
	defer wg.Done()
	for job := range jobs {
		result := p.Download(ctx, job)
		result.WorkerID = id
		results <- result
	}
}

// Download fetches one image, saves it under its id and fixes its extension.
func (p *Pool) Download(ctx context.Context, job Job) models.DownloadResult {
	result := models.DownloadResult{
		ImageID:   job.Entry.ImageID,
		SourceURL: job.Entry.SourceURL,
		Status:    models.StatusFailed,
	}

	if !validImageID(job.Entry.ImageID) {
		return p.fail(result, models.ReasonInvalidID, fmt.Errorf("%w: %q", ErrInvalidID, job.Entry.ImageID))
	}

	resp, err := p.fetcher.Get(ctx, job.Entry.SourceURL)
	if err != nil {
		return p.fail(result, models.ReasonRequestError, fmt.Errorf("can't request image url %s: %w", job.Entry.SourceURL, err))
	}
	result.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		return p.fail(result, models.ReasonBadStatus, fmt.Errorf("%w %d for url %s", ErrBadStatus, resp.StatusCode, job.Entry.SourceURL))
	}

	contentType := strings.ToLower(resp.ContentType())
	if !strings.Contains(contentType, "image") {
		return p.fail(result, models.ReasonBadContentType, fmt.Errorf("%w %q", ErrNotImage, contentType))
	}

	savePath := filepath.Join(job.Dir, job.Entry.ImageID)
	if err := p.storage.SaveFile(savePath, resp.Body); err != nil {
		return p.fail(result, models.ReasonWriteError, err)
	}
	result.FilePath = savePath
	result.SizeBytes = int64(len(resp.Body))
	result.ContentHash = common.ContentHash(resp.Body)

	newPath, ext, err := detector.FixExtension(p.storage, savePath)
	result.Extension = ext
	if err != nil {
		// A rename failure is reported regardless of debug.
		p.logger.Error("Couldn't rename file", "image_id", result.ImageID, "path", savePath, "error", err)
		result.Reason = models.ReasonRenameError
		result.Err = err
		return result
	}

	result.FilePath = newPath
	result.Status = models.StatusSuccess
	return result
}

func (p *Pool) fail(result models.DownloadResult, reason models.FailureReason, err error) models.DownloadResult {
	result.Status = models.StatusFailed
	result.Reason = reason
	result.Err = err
	if p.debug {
		p.logger.Error("Download failed", "image_id", result.ImageID, "reason", reason, "error", err)
	}
	return result
}

// validImageID rejects ids that would escape the output directory or collide
// with another id's renamed file ("x" is saved as "x.png").
func validImageID(id string) bool {
	if id == "" {
		return false
	}
	return !strings.ContainsAny(id, `./\`)
}
