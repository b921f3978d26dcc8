package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/image-scraper/models"
	"github.com/dtnitsch/image-scraper/pkg/fetcher"
	"github.com/dtnitsch/image-scraper/pkg/storage"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

// imageServer serves /png/* as PNG, /html/* as text/html, /missing/* as 404
// and /nosniff/* as image/jpeg with unrecognizable bytes.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Dir(r.URL.Path) {
		case "/png":
			w.Header().Set("Content-Type", "Image/PNG")
			_, _ = w.Write(pngBytes)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html></html>")
		case "/nosniff":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = io.WriteString(w, "not really an image")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPool(workers int) (*Pool, *storage.Storage) {
	s := storage.New(afero.NewMemMapFs())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPool(fetcher.NewFetcher(), s, logger, workers, true), s
}

func collect(ch <-chan models.DownloadResult) map[string]models.DownloadResult {
	out := make(map[string]models.DownloadResult)
	for r := range ch {
		out[r.ImageID] = r
	}
	return out
}

func TestDownload_Success(t *testing.T) {
	srv := imageServer(t)
	p, s := newTestPool(1)

	res := p.Download(context.Background(), Job{
		Entry: models.ManifestEntry{ImageID: "img1", SourceURL: srv.URL + "/png/1"},
		Dir:   "/out",
	})

	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, "/out/img1.png", res.FilePath)
	assert.Equal(t, "png", res.Extension)
	assert.Equal(t, int64(len(pngBytes)), res.SizeBytes)
	assert.NotEmpty(t, res.ContentHash)
	assert.True(t, s.HasFile("/out/img1.png"))
	assert.False(t, s.HasFile("/out/img1"))
}

func TestDownload_FallbackExtension(t *testing.T) {
	srv := imageServer(t)
	p, s := newTestPool(1)

	res := p.Download(context.Background(), Job{
		Entry: models.ManifestEntry{ImageID: "img2", SourceURL: srv.URL + "/nosniff/2"},
		Dir:   "/out",
	})

	require.True(t, res.OK())
	assert.Equal(t, "/out/img2.jpg", res.FilePath)
	assert.True(t, s.HasFile("/out/img2.jpg"))
}

func TestDownload_Failures(t *testing.T) {
	srv := imageServer(t)
	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		entry  models.ManifestEntry
		reason models.FailureReason
		err    error
	}{
		{"html content", models.ManifestEntry{ImageID: "h", SourceURL: srv.URL + "/html/h"}, models.ReasonBadContentType, ErrNotImage},
		{"not found", models.ManifestEntry{ImageID: "m", SourceURL: srv.URL + "/missing/m"}, models.ReasonBadStatus, ErrBadStatus},
		{"transport error", models.ManifestEntry{ImageID: "t", SourceURL: closedURL + "/png/t"}, models.ReasonRequestError, nil},
		{"path traversal", models.ManifestEntry{ImageID: "../evil", SourceURL: srv.URL + "/png/e"}, models.ReasonInvalidID, ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := newTestPool(1)
			res := p.Download(context.Background(), Job{Entry: tt.entry, Dir: "/out"})

			assert.False(t, res.OK())
			assert.Equal(t, models.StatusFailed, res.Status)
			assert.Equal(t, tt.reason, res.Reason)
			if tt.err != nil {
				assert.ErrorIs(t, res.Err, tt.err)
			}
			assert.False(t, s.HasFile(filepath.Join("/out", tt.entry.ImageID)))
			exists, _ := afero.DirExists(s.Fs(), "/out")
			if exists {
				files, _ := afero.ReadDir(s.Fs(), "/out")
				assert.Empty(t, files)
			}
		})
	}
}

func TestDownload_RenameFailureKeepsFile(t *testing.T) {
	srv := imageServer(t)
	base := afero.NewMemMapFs()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	p := NewPool(fetcher.NewFetcher(), storage.New(&noRenameFs{Fs: base}), logger, 1, false)

	res := p.Download(context.Background(), Job{
		Entry: models.ManifestEntry{ImageID: "r", SourceURL: srv.URL + "/png/r"},
		Dir:   "/out",
	})

	assert.False(t, res.OK())
	assert.Equal(t, models.ReasonRenameError, res.Reason)
	ok, _ := afero.Exists(base, "/out/r")
	assert.True(t, ok, "extensionless artifact remains")
	assert.Contains(t, logs.String(), "Couldn't rename file", "rename failures are logged without debug")
}

func TestDownload_FailureLoggedOnlyWithDebug(t *testing.T) {
	srv := imageServer(t)

	for _, debug := range []bool{true, false} {
		t.Run(fmt.Sprintf("debug=%v", debug), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			p := NewPool(fetcher.NewFetcher(), storage.New(afero.NewMemMapFs()), logger, 1, debug)

			res := p.Download(context.Background(), Job{
				Entry: models.ManifestEntry{ImageID: "h", SourceURL: srv.URL + "/html/h"},
				Dir:   "/out",
			})

			require.False(t, res.OK())
			if debug {
				assert.Contains(t, logs.String(), "Download failed")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestRun_DottedIDCannotClobberRenamedFile(t *testing.T) {
	srv := imageServer(t)
	p, s := newTestPool(1)

	entries := []models.ManifestEntry{
		{ImageID: "x", SourceURL: srv.URL + "/png/x"},
		{ImageID: "x.png", SourceURL: srv.URL + "/nosniff/x"},
	}
	results := collect(p.Run(context.Background(), entries, "/out"))

	require.Len(t, results, 2)
	require.True(t, results["x"].OK())
	assert.Equal(t, "/out/x.png", results["x"].FilePath)
	assert.Equal(t, models.ReasonInvalidID, results["x.png"].Reason)

	data, err := s.ReadFile("/out/x.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.False(t, s.HasFile("/out/x.png.jpg"))
}

func TestRun_EachTaskExactlyOnce(t *testing.T) {
	srv := imageServer(t)

	for _, workers := range []int{1, 2, 5, 12} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			p, s := newTestPool(workers)
			var entries []models.ManifestEntry
			for i := 0; i < 12; i++ {
				id := fmt.Sprintf("id%02d", i)
				entries = append(entries, models.ManifestEntry{ImageID: id, SourceURL: srv.URL + "/png/" + id})
			}

			var count int
			seen := make(map[string]int)
			for r := range p.Run(context.Background(), entries, "/out") {
				count++
				seen[r.ImageID]++
				assert.GreaterOrEqual(t, r.WorkerID, 1)
				assert.LessOrEqual(t, r.WorkerID, workers)
			}

			assert.Equal(t, len(entries), count)
			for _, e := range entries {
				assert.Equal(t, 1, seen[e.ImageID], e.ImageID)
				assert.True(t, s.HasFile("/out/"+e.ImageID+".png"))
			}
		})
	}
}

func TestRun_MixedResultsDoNotInterfere(t *testing.T) {
	srv := imageServer(t)
	p, s := newTestPool(3)

	entries := []models.ManifestEntry{
		{ImageID: "a", SourceURL: srv.URL + "/png/a"},
		{ImageID: "b", SourceURL: srv.URL + "/html/b"},
		{ImageID: "c", SourceURL: srv.URL + "/png/c"},
	}
	results := collect(p.Run(context.Background(), entries, "/out"))

	require.Len(t, results, 3)
	assert.True(t, results["a"].OK())
	assert.False(t, results["b"].OK())
	assert.True(t, results["c"].OK())
	assert.True(t, s.HasFile("/out/a.png"))
	assert.False(t, s.HasFile("/out/b"))
	assert.True(t, s.HasFile("/out/c.png"))
}

func TestRun_Empty(t *testing.T) {
	p, _ := newTestPool(4)
	results := collect(p.Run(context.Background(), nil, "/out"))
	assert.Empty(t, results)
}

func TestValidImageID(t *testing.T) {
	assert.True(t, validImageID("abcDEF-_123"))
	assert.False(t, validImageID(""))
	assert.False(t, validImageID(".."))
	assert.False(t, validImageID("."))
	assert.False(t, validImageID("x.png"))
	assert.False(t, validImageID("a/b"))
	assert.False(t, validImageID(`a\b`))
}

// noRenameFs fails every rename, simulating a filesystem error after the write.
type noRenameFs struct {
	afero.Fs
}

func (f *noRenameFs) Rename(oldname, newname string) error {
	return fmt.Errorf("rename %s: permission denied", oldname)
}
