package common

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolDirName is the folder created under the downloads directory.
const ToolDirName = "google-image-scraper"

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// DownloadsDir returns the user's Downloads folder (~/Downloads).
func DownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// DefaultDirectory builds <downloads>/google-image-scraper/<keyword>, with
// spaces in the keyword replaced by dots.
func DefaultDirectory(downloadsDir, keyword string) string {
	return filepath.Join(downloadsDir, ToolDirName, strings.ReplaceAll(keyword, " ", "."))
}
