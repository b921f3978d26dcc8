package scrape

import (
	"time"

	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/manifest"
)

// Exit codes used when --strict is set.
const (
	ExitOK             = 0
	ExitPartialFailure = 1
	ExitTotalFailure   = 2
)

// Summary is the outcome of one run.
type Summary struct {
	RunID     string
	Keyword   string
	Directory string
	Requested int
	Found     int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Results   []models.DownloadResult
}

func (s *Summary) add(r models.DownloadResult) {
	s.Results = append(s.Results, r)
	if r.OK() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// ExitCode maps the summary to a process exit status. Without strict every
// run succeeds; with strict nothing downloaded is 2 and any failure is 1.
func (s *Summary) ExitCode(strict bool) int {
	if !strict {
		return ExitOK
	}
	if s.Requested > 0 && s.Succeeded == 0 {
		return ExitTotalFailure
	}
	if s.Failed > 0 {
		return ExitPartialFailure
	}
	return ExitOK
}

// Manifest converts the summary into a report.
func (s *Summary) Manifest() manifest.SummaryManifest {
	return manifest.BuildSummary(manifest.RunInfo{
		RunID:     s.RunID,
		Keyword:   s.Keyword,
		Directory: s.Directory,
		Requested: s.Requested,
		Found:     s.Found,
	}, s.Results)
}
