package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/motorsig/internal/audio"
	"github.com/dgallion1/motorsig/internal/handwriting"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"github.com/dgallion1/motorsig/internal/parser"
	"github.com/dgallion1/motorsig/internal/speech"
)

// Notifier receives a job snapshot when a job reaches a terminal state.
type Notifier interface {
	Send(ctx context.Context, event any) error
}

// Worker processes a single analysis job.
type Worker struct {
	recognizer  parser.Recognizer
	notifier    Notifier
	stats       *Stats
	log         *slog.Logger
	scoring     speech.ScoringConfig
	pdfFallback bool
	backoff     func(int) time.Duration
}

// NewWorker creates a worker. rec, notifier and stats may be nil.
func NewWorker(rec parser.Recognizer, notifier Notifier, stats *Stats, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		recognizer:  rec,
		notifier:    notifier,
		stats:       stats,
		log:         log,
		scoring:     speech.DefaultScoring(),
		pdfFallback: pdfFallback,
		backoff:     Backoff,
	}
}

// Process runs the analysis for a job and leaves it in a terminal state.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "sample_id", job.SampleID)
	start := time.Now()

	switch job.Kind {
	case KindHandwriting:
		w.processHandwriting(ctx, job, log)
	case KindSpeech:
		w.processSpeech(ctx, job, log)
	default:
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		job.SetStatus(StatusFailed, "queued")
	}

	elapsed := time.Since(start)
	job.setElapsed(elapsed)
	job.releaseFileData()

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		w.stats.Record(job.Kind, elapsed)
	}
	log.Info("job finished", "status", snap.Status, "elapsed_ms", elapsed.Milliseconds())

	if w.notifier != nil {
		if err := w.notifier.Send(ctx, snap); err != nil {
			log.Warn("completion callback failed", "error", err)
		}
	}
}

func (w *Worker) processHandwriting(ctx context.Context, job *Job, log *slog.Logger) {
	// Phase 1: Recognize
	job.SetStatus(StatusParsing, "recognizing")
	p, err := w.parserFor(job)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	data := job.FileData()
	var doc *ocrdoc.Document
	err = withRetry(ctx, w.backoff, func() error {
		var perr error
		doc, perr = p.Parse(ctx, bytes.NewReader(data), job.Filename)
		return perr
	}, func(attempt int, err error) {
		log.Warn("retryable OCR error", "attempt", attempt, "error", err)
	})
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	res := handwriting.Analyze(doc)
	for _, d := range res.Diagnostics {
		log.Debug("token skipped", "detail", d)
	}
	if res.Insufficient {
		log.Warn("insufficient token data", "tokens", res.Summary.TokenCount)
	}
	log.Info("handwriting analyzed",
		"tokens", res.Summary.TokenCount,
		"pages", res.Summary.PageCount,
		"spacings", res.Summary.SpacingCount,
	)
	job.SetHandwriting(res)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) processSpeech(ctx context.Context, job *Job, log *slog.Logger) {
	// Phase 1: Decode
	job.SetStatus(StatusParsing, "decoding")
	clip, err := audio.DecodeBytes(job.FileData())
	if err != nil {
		log.Error("decode failed", "error", err)
		job.AddError(fmt.Sprintf("decode: %s", err))
		job.SetStatus(StatusFailed, "decoding")
		return
	}
	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "decoding")
		return
	}

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	res, err := speech.AnalyzeClip(clip, w.scoring)
	if errors.Is(err, audio.ErrInsufficientDuration) {
		log.Warn("recording too short", "seconds", clip.Duration().Seconds())
		job.AddError(err.Error())
		job.SetStatus(StatusInsufficient, "preprocessing")
		return
	}
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "analyzing")
		return
	}
	for _, d := range res.Diagnostics {
		log.Warn("feature extraction", "detail", d)
	}
	log.Info("speech analyzed", "score", res.Score.Value, "raw_score", res.Raw)
	job.SetSpeech(res)
	job.SetStatus(StatusCompleted, "done")
}

// parserFor picks a parser by filename, falling back to the MIME type.
func (w *Worker) parserFor(job *Job) (parser.Parser, error) {
	var (
		p   parser.Parser
		err error
	)
	if parser.IsSupportedExtension(job.Filename) || job.MimeType == "" {
		p, err = parser.ForFile(job.Filename, w.recognizer)
	} else {
		p, err = parser.ForMimeType(job.MimeType, w.recognizer)
	}
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}
	return p, nil
}
