// Package images checks uploaded recipe images and normalizes them before
// they are stored.
package images

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/h2non/bimg"

	"github.com/petermazzocco/recipe-api/internal/recipes"
)

var (
	ErrNotAnImage = errors.New("upload a valid image")
	ErrTooLarge   = errors.New("image is too large")
)

// extensions lists the accepted types and the file extensions that may be
// kept for each. The first one is used when the client's name does not fit.
var extensions = map[bimg.ImageType][]string{
	bimg.JPEG: {"jpg", "jpeg"},
	bimg.PNG:  {"png"},
	bimg.GIF:  {"gif"},
	bimg.WEBP: {"webp"},
}

type Processor struct {
	MaxBytes int64
	// MaxWidth downscales wider images, keeping the aspect ratio. Zero
	// stores images as uploaded.
	MaxWidth int
}

// Prepare sniffs data and returns it ready for the image store. The name the
// client sent only contributes its extension, and only when it matches the
// detected type.
func (p Processor) Prepare(data []byte, filename string) (recipes.ImageUpload, error) {
	if len(data) == 0 {
		return recipes.ImageUpload{}, ErrNotAnImage
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return recipes.ImageUpload{}, ErrTooLarge
	}

	typ := bimg.DetermineImageType(data)
	exts, ok := extensions[typ]
	if !ok {
		return recipes.ImageUpload{}, ErrNotAnImage
	}

	if p.MaxWidth > 0 && typ != bimg.GIF {
		resized, err := p.downscale(data)
		if err != nil {
			return recipes.ImageUpload{}, err
		}
		data = resized
	}

	return recipes.ImageUpload{
		Data:        data,
		Ext:         pickExt(filename, exts),
		ContentType: "image/" + bimg.ImageTypeName(typ),
	}, nil
}

func (p Processor) downscale(data []byte) ([]byte, error) {
	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	if size.Width <= p.MaxWidth {
		return data, nil
	}
	out, err := img.Process(bimg.Options{Width: p.MaxWidth})
	if err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}
	return out, nil
}

func pickExt(filename string, allowed []string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	for _, a := range allowed {
		if ext == a {
			return ext
		}
	}
	return allowed[0]
}
