//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract engine. Calls are serialized because the
// underlying API handle is not safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a Tesseract client for the given languages (default "eng").
func New(languages ...string) (*Client, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases the engine.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Recognize runs word-level OCR on image bytes.
func (c *Client) Recognize(ctx context.Context, img []byte, _ string) (*ocrdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := c.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			XMin:       float64(b.Box.Min.X),
			YMin:       float64(b.Box.Min.Y),
			XMax:       float64(b.Box.Max.X),
			YMax:       float64(b.Box.Max.Y),
			Confidence: b.Confidence / 100.0,
			Block:      b.BlockNum,
			Par:        b.ParNum,
			Line:       b.LineNum,
		})
	}

	var width, height float64
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img)); err == nil {
		width, height = float64(cfg.Width), float64(cfg.Height)
	}
	return Layout(words, width, height), nil
}
