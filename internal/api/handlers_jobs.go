package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/motorsig/internal/report"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := job.Snapshot()
	meta := report.Meta{SampleID: snap.SampleID, Source: snap.Filename, Created: snap.CreatedAt}
	var rep *report.Report
	switch {
	case job.Handwriting() != nil:
		rep = report.Handwriting(job.Handwriting(), meta)
	case job.Speech() != nil:
		rep = report.Speech(job.Speech(), meta)
	default:
		jsonError(w, fmt.Sprintf("job is %s; no result to report", snap.Status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == report.FormatDOCX {
		name := "report.docx"
		if base := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename)); base != "" {
			name = base + "-report.docx"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	if err := report.Write(w, rep, format); err != nil {
		s.log.Error("render report", "job_id", snap.ID, "format", format, "error", err)
	}
}
