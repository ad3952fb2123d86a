package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/parser"
	"github.com/dgallion1/motorsig/internal/pipeline"
)

var audioExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
}

type upload struct {
	filename string
	mimeType string
	sampleID string
	data     []byte
}

// readUpload parses a multipart form carrying "file" and an optional
// "sample_id". It writes the error response itself and returns false on
// failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return upload{}, false
	}

	return upload{
		filename: sanitizeFilename(header.Filename),
		mimeType: header.Header.Get("Content-Type"),
		sampleID: r.FormValue("sample_id"),
		data:     data,
	}, true
}

func (s *Server) handleSubmitHandwriting(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if !parser.IsSupportedExtension(up.filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(up.filename)), http.StatusBadRequest)
		return
	}
	if parser.IsImage(up.filename) && s.cfg.OCRProvider == config.OCRNone {
		jsonError(w, parser.ErrNoRecognizer.Error(), http.StatusBadRequest)
		return
	}
	s.submit(w, pipeline.KindHandwriting, up)
}

func (s *Server) handleSubmitSpeech(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if ext := strings.ToLower(filepath.Ext(up.filename)); !audioExtensions[ext] {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", ext), http.StatusBadRequest)
		return
	}
	s.submit(w, pipeline.KindSpeech, up)
}

func (s *Server) submit(w http.ResponseWriter, kind pipeline.Kind, up upload) {
	job := pipeline.NewJob(kind, up.filename, up.mimeType, up.data)
	job.SampleID = up.sampleID

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("job queued", "job_id", job.ID, "kind", kind, "filename", up.filename, "bytes", len(up.data))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"kind":     kind,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
