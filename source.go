package noise

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Source is an image the host assigns to a TiledImage. Implementations must
// be safe to Decode from a goroutine other than the update goroutine.
type Source interface {
	// Key identifies the underlying image. Loads of sources with equal keys
	// that overlap in time share a single decode.
	Key() string
	// Decode reads and decodes the image.
	Decode() (image.Image, error)
}

// FileSource returns a Source that decodes the image file at path.
func FileSource(path string) Source {
	return fileSource(path)
}

type fileSource string

func (f fileSource) Key() string { return "file:" + string(f) }

func (f fileSource) Decode() (image.Image, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("noise: open source: %w", err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("noise: decode %s: %w", string(f), err)
	}
	return img, nil
}

// BytesSource returns a Source that decodes encoded image data held in memory.
// The caller must not modify data afterwards.
func BytesSource(key string, data []byte) Source {
	return &bytesSource{key: key, data: data}
}

type bytesSource struct {
	key  string
	data []byte
}

func (b *bytesSource) Key() string { return "bytes:" + b.key }

func (b *bytesSource) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b.data))
	if err != nil {
		return nil, fmt.Errorf("noise: decode %s: %w", b.key, err)
	}
	return img, nil
}

// ImageSource returns a Source wrapping an already decoded image.
func ImageSource(key string, img image.Image) Source {
	return &imageSource{key: key, img: img}
}

type imageSource struct {
	key string
	img image.Image
}

func (s *imageSource) Key() string { return "image:" + s.key }

func (s *imageSource) Decode() (image.Image, error) {
	if s.img == nil {
		return nil, fmt.Errorf("noise: image source %s has no image", s.key)
	}
	return s.img, nil
}
