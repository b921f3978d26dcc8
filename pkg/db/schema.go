package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Runs: one row per scrape invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,         -- uuid
    keyword TEXT NOT NULL,
    directory TEXT NOT NULL,
    requested INTEGER NOT NULL,
    threads INTEGER NOT NULL DEFAULT 1,
    found INTEGER NOT NULL DEFAULT 0,
    success_count INTEGER NOT NULL DEFAULT 0,
    failed_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_keyword ON runs(keyword);

-- Downloads: every download task of a run
CREATE TABLE IF NOT EXISTS downloads (
    download_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    image_id TEXT NOT NULL,
    source_url TEXT NOT NULL,
    status INTEGER NOT NULL,         -- 0=success, 1=failed
    failure_reason TEXT,             -- request_error, bad_status, bad_content_type, ...
    error_message TEXT,
    http_status INTEGER,
    file_path TEXT,
    size_bytes INTEGER DEFAULT 0,
    content_hash TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, image_id)
);

CREATE INDEX IF NOT EXISTS idx_downloads_run ON downloads(run_id);
CREATE INDEX IF NOT EXISTS idx_downloads_hash ON downloads(content_hash);
`
