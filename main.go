package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/image-scraper/internal/history"
	"github.com/dtnitsch/image-scraper/internal/scrape"
)

func main() {
	// Env-backed flags may be set from a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func historyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "history-db",
		Usage:   "Record runs in the SQLite database at `PATH`",
		EnvVars: []string{"IMAGE_SCRAPER_HISTORY_DB"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "image-scraper",
		Usage:     "Scrape google for images",
		ArgsUsage: "KEYWORD",
		Flags:     append(scrape.Flags(), historyFlag()),
		Action:    scrape.ScrapeAction,
		Commands: []*cli.Command{
			{
				Name:      "history",
				Usage:     "List previous runs, or show one run in detail",
				ArgsUsage: "[RUN_ID]",
				Flags: []cli.Flag{
					historyFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
				Action: history.HistoryAction,
			},
		},
	}
}
