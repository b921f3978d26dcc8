// Package models defines data structures shared by the scrape pipeline.
package models

// ScrapeConfig holds runtime configuration for a scrape run.
// All values come from CLI flags (or their env fallbacks), not globals.
type ScrapeConfig struct {
	Keyword   string
	Count     int
	Directory string
	Threads   int

	// Debug enables diagnostics for swallowed discovery and download failures.
	Debug bool

	// Strict makes failed downloads affect the exit status.
	Strict bool

	SearchURL  string
	ReportPath string
	HistoryDB  string
}

// WorkerCount returns the pool width, never less than one.
func (c *ScrapeConfig) WorkerCount() int {
	if c.Threads < 1 {
		return 1
	}
	return c.Threads
}
