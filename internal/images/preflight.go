package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tilemart/tileadmin/internal/models"
)

// MaxUploadSize is the largest file accepted for upload (10MB).
const MaxUploadSize = 10 * 1024 * 1024

var (
	ErrTooLarge = errors.New("file too large (max 10MB)")
	ErrNotImage = errors.New("file is not a supported image")
	ErrNotPDF   = errors.New("file is not a PDF")
)

// Preflight checks files before they are uploaded.
type Preflight struct {
	// MaxDimension bounds the longest side of an uploaded image. Larger
	// images are downscaled. Zero disables resizing.
	MaxDimension int
}

// LoadImage reads and checks an image file from disk.
func (p Preflight) LoadImage(path string) (models.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("failed to read image: %w", err)
	}
	return p.Image(filepath.Base(path), data)
}

// LoadPDF reads and checks a PDF file from disk.
func (p Preflight) LoadPDF(path string) (models.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("failed to read PDF: %w", err)
	}
	return p.PDF(filepath.Base(path), data)
}

// Image validates an image and downsizes it when it exceeds MaxDimension.
func (p Preflight) Image(name string, data []byte) (models.UploadFile, error) {
	if len(data) >= MaxUploadSize {
		return models.UploadFile{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("%s: %w", name, ErrNotImage)
	}

	file := models.UploadFile{Name: name, ContentType: contentTypeOf(format), Data: data}

	longest := max(cfg.Width, cfg.Height)
	if p.MaxDimension <= 0 || longest <= p.MaxDimension {
		return file, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("%s: failed to decode image: %w", name, err)
	}
	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(90))
	} else {
		err = imaging.Encode(&buf, resized, imaging.PNG)
		file.Name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
		file.ContentType = "image/png"
	}
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("%s: failed to encode resized image: %w", name, err)
	}

	b := resized.Bounds()
	slog.Debug("Resized image before upload", "file", name, "from", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "to", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))

	file.Data = buf.Bytes()
	if len(file.Data) >= MaxUploadSize {
		return models.UploadFile{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return file, nil
}

// PDF validates a PDF document.
func (p Preflight) PDF(name string, data []byte) (models.UploadFile, error) {
	if len(data) >= MaxUploadSize {
		return models.UploadFile{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return models.UploadFile{}, fmt.Errorf("%s: %w", name, ErrNotPDF)
	}
	return models.UploadFile{Name: name, ContentType: "application/pdf", Data: data}, nil
}

func contentTypeOf(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	}
	return "application/octet-stream"
}
