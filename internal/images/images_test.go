package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the signature and IHDR chunk of a 1x1 PNG, enough for type
// detection.
var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

var jpegHeader = []byte{
	0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46,
	0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01,
}

func TestPrepareRejectsNonImage(t *testing.T) {
	_, err := Processor{}.Prepare([]byte("notanimage, just some text"), "file.png")
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = Processor{}.Prepare(nil, "file.png")
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestPrepareRejectsLargeUpload(t *testing.T) {
	_, err := Processor{MaxBytes: 10}.Prepare(pngHeader, "file.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPrepareKeepsMatchingExtension(t *testing.T) {
	up, err := Processor{}.Prepare(pngHeader, "Photo.PNG")
	require.NoError(t, err)

	assert.Equal(t, "png", up.Ext)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, pngHeader, up.Data)
}

func TestPrepareReplacesMismatchedExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"dinner.jpeg", "jpeg"},
		{"dinner.jpg", "jpg"},
		{"dinner.png", "jpg"},
		{"../../etc/passwd", "jpg"},
		{"", "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			up, err := Processor{}.Prepare(jpegHeader, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, up.Ext)
			assert.Equal(t, "image/jpeg", up.ContentType)
		})
	}
}
