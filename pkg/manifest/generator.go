package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/storage"
)

// RunInfo carries the run-level fields of a summary.
type RunInfo struct {
	RunID     string
	Keyword   string
	Directory string
	Requested int
	Found     int
}

// BuildSummary aggregates per-image results into a SummaryManifest.
func BuildSummary(info RunInfo, results []models.DownloadResult) SummaryManifest {
	manifest := SummaryManifest{
		RunID:       info.RunID,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Keyword:     info.Keyword,
		Directory:   info.Directory,
		Requested:   info.Requested,
		Found:       info.Found,
		Results:     make([]ImageSummary, 0, len(results)),
	}

	for _, result := range results {
		summary := ImageSummary{
			ImageID:    result.ImageID,
			SourceURL:  result.SourceURL,
			HTTPStatus: result.HTTPStatus,
		}

		if !result.OK() {
			manifest.Failed++
			summary.Status = "error"
			summary.ErrorType = string(result.Reason)
			if result.Err != nil {
				summary.ErrorMessage = result.Err.Error()
			}
		} else {
			manifest.Successful++
			summary.Status = "success"
			summary.FilePath = result.FilePath
			summary.ContentHash = result.ContentHash
			summary.SizeBytes = result.SizeBytes
		}

		manifest.Results = append(manifest.Results, summary)
	}

	return manifest
}

// WriteSummary saves the manifest to path as JSON when the path ends in
// .json and as YAML otherwise.
func WriteSummary(manifest SummaryManifest, path string, s *storage.Storage) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(manifest, "", "  ")
	} else {
		data, err = yaml.Marshal(manifest)
	}
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := s.SaveFile(path, data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}
