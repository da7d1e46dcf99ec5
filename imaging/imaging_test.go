package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testImage(t *testing.T, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data URI prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatalf("data URI payload is not base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("data URI payload is not JPEG: %v", err)
	}
	return img
}

func TestCompressCapsWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(t, 2048, 1024)); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	uri, err := Compress(&buf)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out := decodeDataURI(t, uri)
	b := out.Bounds()
	if b.Dx() != MaxWidth {
		t.Errorf("width = %d, want %d", b.Dx(), MaxWidth)
	}
	// Aspect ratio preserved: 2048x1024 -> 1024x512.
	if b.Dy() != 512 {
		t.Errorf("height = %d, want 512", b.Dy())
	}
}

func TestCompressKeepsSmallImages(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(t, 640, 480), nil); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	uri, err := Compress(&buf)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out := decodeDataURI(t, uri)
	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 480 {
		t.Errorf("small image was resized: %v", out.Bounds())
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	if _, err := Compress(strings.NewReader("not an image")); err == nil {
		t.Error("Compress should fail on non-image input")
	}
}

func TestIsDataURI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"data:image/jpeg;base64,AAAA", true},
		{"https://example.com/foto.jpg", false},
		{"", false},
		{"data:", false},
	}
	for _, tt := range tests {
		if got := IsDataURI(tt.in); got != tt.want {
			t.Errorf("IsDataURI(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
