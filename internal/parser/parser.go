package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

// ErrNoRecognizer is returned for image uploads when no OCR provider is
// configured.
var ErrNoRecognizer = errors.New("no OCR provider configured for images")

// Parser converts raw document bytes into an OCR layout document.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (*ocrdoc.Document, error)
}

// Recognizer runs OCR on an image and returns its word layout.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (*ocrdoc.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".json": true,
	".hocr": true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ForFile returns the appropriate parser for a filename. Images need a
// Recognizer; rec may be nil when only layout files are expected.
func ForFile(filename string, rec Recognizer) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &DocAIParser{}, nil
	case ".hocr", ".html", ".htm":
		return &HOCRParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	}
	if mime, ok := imageTypes[ext]; ok {
		if rec == nil {
			return nil, ErrNoRecognizer
		}
		return &ImageParser{Recognizer: rec, MimeType: mime}, nil
	}
	return nil, fmt.Errorf("unsupported file extension: %s", ext)
}

// ForMimeType maps a MIME type to a pseudo filename and returns its parser.
func ForMimeType(mimeType string, rec Recognizer) (Parser, error) {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch mt {
	case "application/json":
		return ForFile("upload.json", rec)
	case "text/html", "application/xhtml+xml", "text/vnd.hocr+html":
		return ForFile("upload.hocr", rec)
	case "application/pdf":
		return ForFile("upload.pdf", rec)
	}
	for ext, m := range imageTypes {
		if m == mt {
			return ForFile("upload"+ext, rec)
		}
	}
	return nil, fmt.Errorf("unsupported mime type: %s", mimeType)
}

// IsImage reports whether filename needs an OCR provider.
func IsImage(filename string) bool {
	_, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// DocAIParser reads a Document AI JSON export, bare or wrapped in a
// {"document": ...} envelope.
type DocAIParser struct{}

func (p *DocAIParser) Parse(_ context.Context, r io.Reader, _ string) (*ocrdoc.Document, error) {
	doc, err := ocrdoc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("parse document json: %w", err)
	}
	return doc, nil
}

// ImageParser sends image bytes to an OCR provider.
type ImageParser struct {
	Recognizer Recognizer
	MimeType   string
}

func (p *ImageParser) Parse(ctx context.Context, r io.Reader, filename string) (*ocrdoc.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image %q", filename)
	}
	doc, err := p.Recognizer.Recognize(ctx, data, p.MimeType)
	if err != nil {
		return nil, fmt.Errorf("recognize %q: %w", filename, err)
	}
	return doc, nil
}
