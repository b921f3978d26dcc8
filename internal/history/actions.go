package history

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	dbpkg "github.com/dtnitsch/image-scraper/pkg/db"
)

// RunDetails is the YAML document printed for a single run.
type RunDetails struct {
	RunID      string           `yaml:"run_id"`
	Keyword    string           `yaml:"keyword"`
	Directory  string           `yaml:"directory"`
	Requested  int              `yaml:"requested"`
	Threads    int              `yaml:"threads"`
	Found      int              `yaml:"found"`
	Successful int              `yaml:"successful"`
	Failed     int              `yaml:"failed"`
	CreatedAt  string           `yaml:"created_at"`
	FinishedAt string           `yaml:"finished_at,omitempty"`
	Downloads  []DownloadDetail `yaml:"downloads"`
}

type DownloadDetail struct {
	ImageID     string `yaml:"image_id"`
	SourceURL   string `yaml:"source_url"`
	Status      string `yaml:"status"`
	ErrorType   string `yaml:"error_type,omitempty"`
	Error       string `yaml:"error,omitempty"`
	HTTPStatus  int    `yaml:"http_status,omitempty"`
	FilePath    string `yaml:"file_path,omitempty"`
	SizeBytes   int64  `yaml:"size_bytes,omitempty"`
	ContentHash string `yaml:"content_hash,omitempty"`
}

func HistoryAction(c *cli.Context) error {
	path := c.String("history-db")
	if path == "" {
		return cli.Exit("Error: no history database configured (use --history-db or IMAGE_SCRAPER_HISTORY_DB)", 1)
	}

	database, err := dbpkg.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if c.NArg() == 0 {
		return ListRuns(c.App.Writer, database, c.Int("limit"))
	}
	return ShowRun(c.App.Writer, database, c.Args().First())
}

// ListRuns prints recent runs as a table.
func ListRuns(w io.Writer, database *dbpkg.DB, limit int) error {
	runs, err := database.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-20s %-20s %-9s %-6s %-8s %-6s\n",
		"Run ID", "Created", "Keyword", "Requested", "Found", "Success", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-20s %-20s %-9d %-6d %-8d %-6d\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			truncate(r.Keyword, 20),
			r.Requested,
			r.Found,
			r.SuccessCount,
			r.FailedCount,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'image-scraper history <run-id>' to see details\n")
	return nil
}

// ShowRun prints one run and its downloads as YAML.
func ShowRun(w io.Writer, database *dbpkg.DB, runID string) error {
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	downloads, err := database.GetRunDownloads(runID)
	if err != nil {
		return err
	}

	details := RunDetails{
		RunID:      run.RunID,
		Keyword:    run.Keyword,
		Directory:  run.Directory,
		Requested:  run.Requested,
		Threads:    run.Threads,
		Found:      run.Found,
		Successful: run.SuccessCount,
		Failed:     run.FailedCount,
		CreatedAt:  run.CreatedAt.Format("2006-01-02 15:04:05"),
		Downloads:  make([]DownloadDetail, 0, len(downloads)),
	}
	if run.FinishedAt.Valid {
		details.FinishedAt = run.FinishedAt.Time.Format("2006-01-02 15:04:05")
	}

	for _, d := range downloads {
		status := "success"
		if d.Status != 0 {
			status = "failed"
		}
		details.Downloads = append(details.Downloads, DownloadDetail{
			ImageID:     d.ImageID,
			SourceURL:   d.SourceURL,
			Status:      status,
			ErrorType:   d.FailureReason,
			Error:       d.ErrorMessage,
			HTTPStatus:  d.HTTPStatus,
			FilePath:    d.FilePath,
			SizeBytes:   d.SizeBytes,
			ContentHash: d.ContentHash,
		})
	}

	out, err := yaml.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
