package detector

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/image-scraper/pkg/storage"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
)

func TestDetectExtension(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"png", pngHeader, "png"},
		{"jpeg", jpegHeader, "jpeg"},
		{"gif", gifHeader, "gif"},
		{"unknown bytes", []byte("<html>not an image</html>"), FallbackExtension},
		{"empty", nil, FallbackExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectExtension(tt.head))
		})
	}
}

func TestFixExtension(t *testing.T) {
	s := storage.New(afero.NewMemMapFs())
	require.NoError(t, s.SaveFile("/out/img1", pngHeader))

	newPath, ext, err := FixExtension(s, "/out/img1")
	require.NoError(t, err)
	assert.Equal(t, "/out/img1.png", newPath)
	assert.Equal(t, "png", ext)
	assert.True(t, s.HasFile("/out/img1.png"))
	assert.False(t, s.HasFile("/out/img1"))
}

func TestFixExtension_UnknownFallsBack(t *testing.T) {
	s := storage.New(afero.NewMemMapFs())
	require.NoError(t, s.SaveFile("/out/img2", []byte("garbage")))

	newPath, ext, err := FixExtension(s, "/out/img2")
	require.NoError(t, err)
	assert.Equal(t, "/out/img2.jpg", newPath)
	assert.Equal(t, FallbackExtension, ext)
}

func TestFixExtension_RenameFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	s := storage.New(base)
	require.NoError(t, s.SaveFile("/out/img3", pngHeader))

	ro := storage.New(afero.NewReadOnlyFs(base))
	path, _, err := FixExtension(ro, "/out/img3")
	require.Error(t, err)
	assert.Equal(t, "/out/img3", path)
	assert.True(t, s.HasFile("/out/img3"), "extensionless file stays on disk")
}
