package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format, expected JPEG or PNG")

const jpegQuality = 80

// Prepare checks that data is a JPEG or PNG and downsizes it to maxWidth
// pixels wide. Resized images are re-encoded as JPEG; images already narrow
// enough are kept byte for byte.
func Prepare(data []byte, maxWidth uint) ([]byte, string, error) {
	contentType := http.DetectContentType(data)

	var (
		img image.Image
		err error
	)
	switch contentType {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, "", ErrUnsupportedImage
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return data, contentType, nil
	}

	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}
