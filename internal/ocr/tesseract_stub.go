//go:build !ocr

package ocr

import (
	"context"
	"errors"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

// ErrOCRNotEnabled is returned when OCR functions are called but Tesseract
// support was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is a stub used when the ocr build tag is not set.
type Client struct{}

// New always returns ErrOCRNotEnabled.
func New(...string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

// Recognize always returns ErrOCRNotEnabled.
func (c *Client) Recognize(context.Context, []byte, string) (*ocrdoc.Document, error) {
	return nil, ErrOCRNotEnabled
}
