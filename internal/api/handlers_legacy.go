package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/motorsig/internal/pipeline"
)

// analysisRequest is the body of the JSON analysis endpoints.
type analysisRequest struct {
	Content  *string `json:"content"`
	MimeType *string `json:"mimeType"`
	SampleID string  `json:"sample_id"`
}

func (s *Server) handleWritingAnalysis(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.decodeAnalysisRequest(w, r, true)
	if !ok {
		return
	}
	job := pipeline.NewJob(pipeline.KindHandwriting, "", *req.MimeType, data)
	job.SampleID = req.SampleID

	snap, ok := s.runSync(w, r, job)
	if !ok {
		return
	}
	res := job.Handwriting()
	writeJSON(w, http.StatusOK, map[string]any{
		"trends":        res.Trends,
		"insufficient":  res.Insufficient,
		"conclusion":    res.Conclusion,
		"job_id":        snap.ID,
		"timestamp_utc": time.Now().UTC().Format(time.RFC3339),
		"status":        "success",
	})
}

func (s *Server) handleSpeechAnalysis(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.decodeAnalysisRequest(w, r, false)
	if !ok {
		return
	}
	mime := ""
	if req.MimeType != nil {
		mime = *req.MimeType
	}
	job := pipeline.NewJob(pipeline.KindSpeech, "", mime, data)
	job.SampleID = req.SampleID

	snap, ok := s.runSync(w, r, job)
	if !ok {
		return
	}
	res := job.Speech()
	writeJSON(w, http.StatusOK, map[string]any{
		"score":         res.Score.Value,
		"raw_score":     res.Raw,
		"features":      res.Features,
		"job_id":        snap.ID,
		"timestamp_utc": time.Now().UTC().Format(time.RFC3339),
		"status":        "success",
	})
}

func (s *Server) decodeAnalysisRequest(w http.ResponseWriter, r *http.Request, needMime bool) (analysisRequest, []byte, bool) {
	var req analysisRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		jsonError(w, "Request must be JSON", http.StatusBadRequest)
		return req, nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*4/3+1024*1024)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return req, nil, false
	}
	if req.Content == nil {
		jsonError(w, "Missing required field: content", http.StatusBadRequest)
		return req, nil, false
	}
	if needMime && req.MimeType == nil {
		jsonError(w, "Missing required field: mimeType", http.StatusBadRequest)
		return req, nil, false
	}
	data, err := decodeBase64(*req.Content)
	if err != nil {
		jsonError(w, "content is not valid base64: "+err.Error(), http.StatusBadRequest)
		return req, nil, false
	}
	if len(data) == 0 {
		jsonError(w, "content is empty", http.StatusBadRequest)
		return req, nil, false
	}
	return req, data, true
}

// decodeBase64 accepts standard or URL-safe base64, with or without
// padding, optionally behind a data URL prefix.
func decodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return nil, err
}

// runSync queues job and waits for it. On anything but a completed job it
// writes the response itself and returns false.
func (s *Server) runSync(w http.ResponseWriter, r *http.Request, job *pipeline.Job) (pipeline.JobSnapshot, bool) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return pipeline.JobSnapshot{}, false
	}

	timer := time.NewTimer(s.syncTimeout)
	defer timer.Stop()
	select {
	case <-job.Done():
	case <-r.Context().Done():
		return pipeline.JobSnapshot{}, false
	case <-timer.C:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":   job.ID,
			"status":   "pending",
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
		return pipeline.JobSnapshot{}, false
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		return snap, true
	case pipeline.StatusInsufficient:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  strings.Join(snap.Errors, "; "),
			"job_id": snap.ID,
			"status": "insufficient",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  strings.Join(snap.Errors, "; "),
			"job_id": snap.ID,
			"status": "failed",
		})
	}
	return snap, false
}
