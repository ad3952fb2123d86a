package docai

import (
	"context"
	"errors"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/dgallion1/motorsig/internal/ocr"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config identifies the processor to call.
type Config struct {
	Project         string
	Location        string // "us" or "eu"
	Processor       string
	CredentialsFile string // empty uses application default credentials
}

// Name returns the processor resource name.
func (c Config) Name() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.Project, c.Location, c.Processor)
}

// Client calls a Document AI OCR processor.
type Client struct {
	cfg    Config
	client *documentai.DocumentProcessorClient
}

// New connects to the regional Document AI endpoint.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Project == "" || cfg.Location == "" || cfg.Processor == "" {
		return nil, errors.New("docai: project, location and processor are required")
	}
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docai: create client: %w", err)
	}
	return &Client{cfg: cfg, client: client}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Recognize sends an image to the processor and converts the response.
func (c *Client) Recognize(ctx context.Context, image []byte, mimeType string) (*ocrdoc.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: c.cfg.Name(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mimeType,
			},
		},
	}
	resp, err := c.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return Convert(resp.GetDocument()), nil
}

// classify marks transient gRPC failures as retryable.
func classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("docai: %w", err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return &ocr.RetryableError{Provider: "docai", Code: st.Code().String(), Message: st.Message()}
	}
	return fmt.Errorf("docai: %s: %s", st.Code(), st.Message())
}
