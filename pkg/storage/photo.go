package storage

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PhotoInfo describes a decoded image.
type PhotoInfo struct {
	Format string
	Width  int
	Height int
}

// InspectPhoto fully decodes data and reports its format and dimensions. Truncated or
// non-image content is rejected.
func InspectPhoto(data []byte) (PhotoInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PhotoInfo{}, fmt.Errorf("decode image header: %w", err)
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return PhotoInfo{}, fmt.Errorf("decode image: %w", err)
	}
	return PhotoInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Thumbnail renders a size x size JPEG preview of the image, honouring EXIF orientation.
func Thumbnail(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = 320
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
