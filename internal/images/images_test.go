package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPreflightImageKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 40, 20)
	file, err := Preflight{MaxDimension: 100}.Image("tile.png", data)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if file.ContentType != "image/png" || !bytes.Equal(file.Data, data) {
		t.Errorf("Expected the image unchanged, got %s (%d bytes)", file.ContentType, len(file.Data))
	}
}

func TestPreflightImageDownscales(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		data       func(t *testing.T) []byte
		wantName   string
		wantType   string
		wantWidth  int
		wantHeight int
	}{
		{
			name:     "png",
			file:     "wide.png",
			data:     func(t *testing.T) []byte { return encodePNG(t, 200, 80) },
			wantName: "wide.png", wantType: "image/png",
			wantWidth: 50, wantHeight: 20,
		},
		{
			name: "jpeg stays jpeg",
			file: "tall.jpg",
			data: func(t *testing.T) []byte {
				var buf bytes.Buffer
				if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 60, 120)), nil); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()
			},
			wantName: "tall.jpg", wantType: "image/jpeg",
			wantWidth: 25, wantHeight: 50,
		},
		{
			name:     "gif becomes png",
			file:     "anim.gif",
			data:     func(t *testing.T) []byte { return encodeGIF(t, 100, 100) },
			wantName: "anim.png", wantType: "image/png",
			wantWidth: 50, wantHeight: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Preflight{MaxDimension: 50}.Image(tt.file, tt.data(t))
			if err != nil {
				t.Fatalf("Image failed: %v", err)
			}
			if file.Name != tt.wantName || file.ContentType != tt.wantType {
				t.Errorf("Expected %s (%s), got %s (%s)", tt.wantName, tt.wantType, file.Name, file.ContentType)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
			if err != nil {
				t.Fatalf("resized image does not decode: %v", err)
			}
			if cfg.Width != tt.wantWidth || cfg.Height != tt.wantHeight {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantWidth, tt.wantHeight, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestPreflightRejects(t *testing.T) {
	p := Preflight{}
	if _, err := p.Image("notes.txt", []byte("hello")); !errors.Is(err, ErrNotImage) {
		t.Errorf("Expected ErrNotImage, got %v", err)
	}
	if _, err := p.Image("huge.png", make([]byte, MaxUploadSize)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
	if _, err := p.PDF("cat.pdf", []byte("not a pdf")); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Expected ErrNotPDF, got %v", err)
	}
	file, err := p.PDF("cat.pdf", []byte("%PDF-1.7\n..."))
	if err != nil || file.ContentType != "application/pdf" {
		t.Errorf("Expected a valid PDF, got %+v (%v)", file, err)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		expected string
	}{
		{name: "relative", base: "http://api:8000", path: "tiles_storage/a.png", expected: "http://api:8000/tiles_storage/a.png"},
		{name: "backslashes", base: "http://api:8000/", path: `tiles_storage\designs\a.png`, expected: "http://api:8000/tiles_storage/designs/a.png"},
		{name: "leading slash", base: "http://api:8000", path: "/static/a.png", expected: "http://api:8000/static/a.png"},
		{name: "absolute", base: "http://api:8000", path: "https://cdn/a.png", expected: "https://cdn/a.png"},
		{name: "empty", base: "http://api:8000", path: "", expected: PlaceholderURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.path); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFetcher(t *testing.T) {
	data := encodePNG(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := NewFetcher()
	got, contentType, err := f.Fetch(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(got, data) || contentType != "image/png" {
		t.Errorf("unexpected fetch result: %d bytes, %s", len(got), contentType)
	}

	if _, _, err := f.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("Expected an error for a missing image")
	}
}
