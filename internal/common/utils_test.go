package common

import (
	"path/filepath"
	"testing"
)

func TestContentHash(t *testing.T) {
	got := ContentHash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("ContentHash() = %q, want %q", got, want)
	}
}

func TestDefaultDirectory(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"cats", filepath.Join("/home/u/Downloads", ToolDirName, "cats")},
		{"red fox cubs", filepath.Join("/home/u/Downloads", ToolDirName, "red.fox.cubs")},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			if got := DefaultDirectory("/home/u/Downloads", tt.keyword); got != tt.want {
				t.Errorf("DefaultDirectory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadsDir(t *testing.T) {
	t.Setenv("HOME", "/tmp/fakehome")
	got, err := DownloadsDir()
	if err != nil {
		t.Fatalf("DownloadsDir() error = %v", err)
	}
	if got != filepath.Join("/tmp/fakehome", "Downloads") {
		t.Errorf("DownloadsDir() = %q", got)
	}
}
