// Package provider builds the configured OCR recognizer.
package provider

import (
	"context"
	"fmt"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/ocr"
	"github.com/dgallion1/motorsig/internal/ocr/docai"
	"github.com/dgallion1/motorsig/internal/parser"
)

// Recognizer is an OCR provider that holds resources.
type Recognizer interface {
	parser.Recognizer
	Close() error
}

// New returns the recognizer selected by cfg.OCRProvider, or nil for
// "none".
func New(ctx context.Context, cfg config.Config) (Recognizer, error) {
	switch cfg.OCRProvider {
	case "", config.OCRNone:
		return nil, nil
	case config.OCRTesseract:
		c, err := ocr.New(cfg.OCRLanguage)
		if err != nil {
			return nil, fmt.Errorf("tesseract: %w", err)
		}
		return c, nil
	case config.OCRDocAI:
		c, err := docai.New(ctx, docai.Config{
			Project:         cfg.DocAIProject,
			Location:        cfg.DocAILocation,
			Processor:       cfg.DocAIProcessor,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCRProvider)
}
