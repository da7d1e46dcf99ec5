// Package imaging re-encodes uploaded photos for inline storage: capped
// width, JPEG, emitted as a data URI small enough to live inside the
// persisted catalog.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// MaxWidth caps the stored image width; smaller images keep their size.
	MaxWidth = 1024
	// Quality is the JPEG quality of the stored image.
	Quality = 85

	dataURIPrefix = "data:image/jpeg;base64,"
)

// Compress decodes r (JPEG, PNG or GIF), scales it down to MaxWidth
// preserving aspect ratio, and returns it as a JPEG data URI.
func Compress(r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > MaxWidth {
		scaled := image.NewRGBA(image.Rect(0, 0, MaxWidth, h*MaxWidth/w))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// IsDataURI reports whether s is an inline image payload rather than a
// remote URL.
func IsDataURI(s string) bool {
	return len(s) > 5 && s[:5] == "data:"
}
