package detector

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/dtnitsch/image-scraper/pkg/storage"
)

// FallbackExtension is used when the content cannot be identified.
const FallbackExtension = "jpg"

// headerSize is the number of leading bytes filetype needs to match every
// type it knows about.
const headerSize = 262

// DetectExtension returns the MIME subtype of the sniffed content
// (jpeg, png, gif, webp, ...), or FallbackExtension.
func DetectExtension(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || kind.MIME.Subtype == "" {
		return FallbackExtension
	}
	return kind.MIME.Subtype
}

// FixExtension sniffs the file at path and renames it to path.<ext>.
// Sniffing problems fall back to FallbackExtension; only a failed rename is
// returned, leaving the extensionless file in place.
func FixExtension(s *storage.Storage, path string) (string, string, error) {
	ext := FallbackExtension
	if head, err := s.ReadHead(path, headerSize); err == nil {
		ext = DetectExtension(head)
	}

	newPath := fmt.Sprintf("%s.%s", path, ext)
	if err := s.Rename(path, newPath); err != nil {
		return path, ext, fmt.Errorf("couldn't rename file at path %s: %w", path, err)
	}
	return newPath, ext, nil
}
