package scrape

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/image-scraper/internal/common"
	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/db"
	"github.com/dtnitsch/image-scraper/pkg/fetcher"
	"github.com/dtnitsch/image-scraper/pkg/manifest"
	"github.com/dtnitsch/image-scraper/pkg/storage"
)

// Flags are the scrape options, registered on the root command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "How many images to try to scrape",
			Value:   10,
			EnvVars: []string{"IMAGE_SCRAPER_COUNT"},
		},
		&cli.StringFlag{
			Name:    "directory",
			Aliases: []string{"d"},
			Usage:   "Where to save scraped images (default: ~/Downloads/google-image-scraper/<keyword>)",
			EnvVars: []string{"IMAGE_SCRAPER_DIRECTORY"},
		},
		&cli.IntFlag{
			Name:    "threads",
			Aliases: []string{"t"},
			Usage:   "How many workers to download with",
			Value:   1,
			EnvVars: []string{"IMAGE_SCRAPER_THREADS"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Log discovery and download failures",
			EnvVars: []string{"IMAGE_SCRAPER_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Exit 1 when some downloads fail and 2 when none succeed",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a run report to `FILE` (YAML, or JSON for .json)",
		},
		&cli.StringFlag{
			Name:    "search-url",
			Usage:   "Search URL template taking the query (%s) and page (%d)",
			Value:   manifest.DefaultSearchURL,
			EnvVars: []string{"IMAGE_SCRAPER_SEARCH_URL"},
			Hidden:  true,
		},
	}
}

// NewLogger builds the stderr JSON logger for the given verbosity flags.
func NewLogger(debug, quiet bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if quiet {
		logLevel = slog.LevelError
	}
	if debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ConfigFromContext validates the CLI input and fills in defaults.
func ConfigFromContext(c *cli.Context) (*models.ScrapeConfig, error) {
	if c.NArg() == 0 {
		return nil, cli.Exit("Error: missing KEYWORD\n\nUsage: image-scraper [flags] KEYWORD", 1)
	}
	if c.NArg() > 1 {
		return nil, cli.Exit(fmt.Sprintf("Error: expected one KEYWORD, got %d arguments (quote multi-word phrases, flags go before the keyword)", c.NArg()), 1)
	}

	config := &models.ScrapeConfig{
		Keyword:    c.Args().First(),
		Count:      c.Int("count"),
		Directory:  c.String("directory"),
		Threads:    c.Int("threads"),
		Debug:      c.Bool("debug"),
		Strict:     c.Bool("strict"),
		SearchURL:  c.String("search-url"),
		ReportPath: c.String("report"),
		HistoryDB:  c.String("history-db"),
	}

	if config.Keyword == "" {
		return nil, cli.Exit("Error: KEYWORD must not be empty", 1)
	}
	if config.Count < 1 {
		return nil, cli.Exit(fmt.Sprintf("Error: --count must be a positive integer, got %d", config.Count), 1)
	}
	if config.Threads < 1 {
		return nil, cli.Exit(fmt.Sprintf("Error: --threads must be a positive integer, got %d", config.Threads), 1)
	}

	if config.Directory == "" {
		downloads, err := common.DownloadsDir()
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("Error: cannot resolve default directory: %v", err), 1)
		}
		config.Directory = common.DefaultDirectory(downloads, config.Keyword)
	}

	return config, nil
}

func ScrapeAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("debug"), c.Bool("quiet"))

	config, err := ConfigFromContext(c)
	if err != nil {
		return err
	}

	st := storage.New(nil)
	scraper := New(fetcher.NewFetcher(), st, logger, c.App.Writer)

	if config.HistoryDB != "" {
		database, err := db.Open(config.HistoryDB)
		if err != nil {
			logger.Error("failed to open history database", "path", config.HistoryDB, "error", err)
			return cli.Exit("", 2)
		}
		defer database.Close()
		scraper.WithHistory(database)
	}

	summary, err := scraper.Run(c.Context, config)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		return cli.Exit("", 2)
	}

	if config.ReportPath != "" {
		if err := manifest.WriteSummary(summary.Manifest(), config.ReportPath, st); err != nil {
			logger.Error("failed to write report", "path", config.ReportPath, "error", err)
		} else {
			logger.Info("Report saved", "path", config.ReportPath)
		}
	}

	if code := summary.ExitCode(config.Strict); code != ExitOK {
		return cli.Exit("", code)
	}
	return nil
}
