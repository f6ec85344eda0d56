package utils

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"kainan-backend/pkg/logger"
)

// ProcessProofImage normalizes a proof-of-delivery photo: decode, downscale
// to a reasonable width, re-encode as WebP. Phone cameras routinely produce
// multi-megabyte JPEGs; proof shots only need to be legible.
func ProcessProofImage(r io.Reader, filename string) ([]byte, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	logger.Debug().Str("file", filename).Str("format", format).Msg("processing proof image")

	bounds := img.Bounds()
	if bounds.Dx() > 1600 {
		img = imaging.Resize(img, 1600, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  80,
	})
	if err != nil {
		// If WebP fails, fallback to JPEG
		logger.Warn().Err(err).Msg("webp encoding failed, falling back to jpeg")
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}

// IsImage verifies simple content type
func IsImage(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png" || contentType == "image/webp" || contentType == "image/jpg"
}
