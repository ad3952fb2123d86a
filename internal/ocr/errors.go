// Package ocr turns scanned handwriting images into word layouts.
//
// The Tesseract client wraps gosseract and is compiled only with the "ocr"
// build tag; without it New returns ErrOCRNotEnabled. The docai
// subpackage talks to Google Document AI.
package ocr

import "fmt"

// RetryableError indicates a transient provider failure that can be retried.
type RetryableError struct {
	Provider string
	Code     string
	Message  string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: retryable error (%s): %s", e.Provider, e.Code, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
