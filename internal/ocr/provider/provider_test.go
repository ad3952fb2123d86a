//go:build !ocr

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/ocr"
)

func TestNewNone(t *testing.T) {
	rec, err := New(context.Background(), config.Config{OCRProvider: config.OCRNone})
	if err != nil || rec != nil {
		t.Errorf("New(none) = %v, %v", rec, err)
	}
}

func TestNewTesseractWithoutBuildTag(t *testing.T) {
	_, err := New(context.Background(), config.Config{OCRProvider: config.OCRTesseract, OCRLanguage: "eng"})
	if !errors.Is(err, ocr.ErrOCRNotEnabled) {
		t.Errorf("err = %v, want ErrOCRNotEnabled", err)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New(context.Background(), config.Config{OCRProvider: "abbyy"}); err == nil {
		t.Error("expected error")
	}
}

func TestNewDocAIIncomplete(t *testing.T) {
	if _, err := New(context.Background(), config.Config{OCRProvider: config.OCRDocAI}); err == nil {
		t.Error("expected error for missing project")
	}
}
