package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/handwriting"
	"github.com/dgallion1/motorsig/internal/ocr"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"github.com/dgallion1/motorsig/internal/speech"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shrinkingDoc lays out n words on one line, each narrower than the last.
func shrinkingDoc(n int) *ocrdoc.Document {
	var b ocrdoc.Builder
	b.StartPage(1, 2000, 1000)
	x := 10.0
	for i := 0; i < n; i++ {
		w := 120 - 15*float64(i)
		brk := "SPACE"
		if i == n-1 {
			brk = "EOL"
		}
		b.AddToken("word", ocrdoc.Rect(x, 100, x+w, 140), 0.9, brk)
		x += w + 30 - 3*float64(i)
	}
	return b.Document()
}

func docJSON(t *testing.T, doc *ocrdoc.Document) []byte {
	t.Helper()
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func toneWAV(t *testing.T, seconds float64) []byte {
	t.Helper()
	const rate = 16000
	n := int(seconds * rate)
	data := make([]int, n)
	for i := range data {
		data[i] = int(12000 * math.Sin(2*math.Pi*180*float64(i)/rate))
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []JobSnapshot
}

func (n *recordingNotifier) Send(_ context.Context, event any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event.(JobSnapshot))
	return nil
}

type flakyRecognizer struct {
	failures int
	calls    int
	doc      *ocrdoc.Document
}

func (r *flakyRecognizer) Recognize(context.Context, []byte, string) (*ocrdoc.Document, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, &ocr.RetryableError{Provider: "test", Code: "Unavailable", Message: "busy"}
	}
	return r.doc, nil
}

func newTestWorker(rec *flakyRecognizer, n Notifier) *Worker {
	w := NewWorker(nil, n, NewStats(time.Hour), discardLogger(), false)
	if rec != nil {
		w.recognizer = rec
	}
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func TestWorkerHandwritingJSON(t *testing.T) {
	n := &recordingNotifier{}
	w := newTestWorker(nil, n)
	job := NewJob(KindHandwriting, "sample.json", "", docJSON(t, shrinkingDoc(5)))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", snap.Status, snap.Errors)
	}
	res, ok := snap.Result.(*handwriting.Result)
	if !ok {
		t.Fatalf("result = %#v", snap.Result)
	}
	if res.Summary.TokenCount != 5 || !res.Compression.Width {
		t.Errorf("summary = %+v compression = %+v", res.Summary, res.Compression)
	}
	if job.FileData() != nil {
		t.Error("upload should be released after processing")
	}
	if len(n.events) != 1 || n.events[0].Status != StatusCompleted {
		t.Errorf("notifications = %+v", n.events)
	}
	if w.stats.Snapshot()[KindHandwriting].Count != 1 {
		t.Error("latency should be recorded")
	}
}

func TestWorkerHandwritingInsufficientIsCompleted(t *testing.T) {
	w := newTestWorker(nil, nil)
	job := NewJob(KindHandwriting, "two.json", "", docJSON(t, shrinkingDoc(2)))
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q", job.Status)
	}
	if res := job.Handwriting(); res == nil || !res.Insufficient {
		t.Errorf("expected tagged insufficient result, got %+v", res)
	}
}

func TestWorkerHandwritingMimeFallback(t *testing.T) {
	w := newTestWorker(nil, nil)
	job := NewJob(KindHandwriting, "upload", "application/json", docJSON(t, shrinkingDoc(4)))
	w.Process(context.Background(), job)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Errors)
	}
}

func TestWorkerRetriesTransientOCR(t *testing.T) {
	rec := &flakyRecognizer{failures: 2, doc: shrinkingDoc(4)}
	w := newTestWorker(rec, nil)
	job := NewJob(KindHandwriting, "scan.png", "image/png", []byte("png bytes"))
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Errors)
	}
	if rec.calls != 3 {
		t.Errorf("calls = %d, want 3", rec.calls)
	}
}

func TestWorkerGivesUpAfterMaxRetries(t *testing.T) {
	rec := &flakyRecognizer{failures: 10}
	w := newTestWorker(rec, nil)
	job := NewJob(KindHandwriting, "scan.png", "image/png", []byte("png bytes"))
	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("status = %q", job.Status)
	}
	if rec.calls != MaxRetries {
		t.Errorf("calls = %d, want %d", rec.calls, MaxRetries)
	}
}

func TestWorkerImageWithoutRecognizer(t *testing.T) {
	w := newTestWorker(nil, nil)
	job := NewJob(KindHandwriting, "scan.png", "image/png", []byte("png bytes"))
	w.Process(context.Background(), job)
	if job.Status != StatusFailed || job.Phase != "parsing" {
		t.Errorf("status = %q phase = %q", job.Status, job.Phase)
	}
}

func TestWorkerSpeechTooShort(t *testing.T) {
	n := &recordingNotifier{}
	w := newTestWorker(nil, n)
	job := NewJob(KindSpeech, "short.wav", "audio/wav", toneWAV(t, 2))
	w.Process(context.Background(), job)

	if job.Status != StatusInsufficient {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Errors)
	}
	if len(n.events) != 1 || n.events[0].Status != StatusInsufficient {
		t.Errorf("notifications = %+v", n.events)
	}
}

func TestWorkerSpeechUndecodable(t *testing.T) {
	w := newTestWorker(nil, nil)
	job := NewJob(KindSpeech, "noise.bin", "", []byte("definitely not audio"))
	w.Process(context.Background(), job)
	if job.Status != StatusFailed || job.Phase != "decoding" {
		t.Errorf("status = %q phase = %q", job.Status, job.Phase)
	}
	if w.stats.Snapshot()[KindSpeech].Count != 0 {
		t.Error("failed jobs should not be recorded")
	}
}

func TestWorkerSpeechCompleted(t *testing.T) {
	w := newTestWorker(nil, nil)
	job := NewJob(KindSpeech, "voice.wav", "audio/wav", toneWAV(t, 3.2))
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, errors = %v", job.Status, job.Snapshot().Errors)
	}
	res, ok := job.Snapshot().Result.(*speech.Result)
	if !ok {
		t.Fatalf("result = %#v", job.Snapshot().Result)
	}
	if res.Score.Value < 0 || res.Score.Value > 4 {
		t.Errorf("score = %v", res.Score.Value)
	}
}

func TestOrchestratorProcessesJobs(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour, StatsWindow: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(KindHandwriting, "a.json", "", docJSON(t, shrinkingDoc(4)))
	if err := o.Submit(job); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !o.GetJob(job.ID).Snapshot().Status.Terminal() {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := o.GetJob(job.ID).Snapshot().Status; got != StatusCompleted {
		t.Errorf("status = %q", got)
	}
	if o.Stats()[KindHandwriting].Count != 1 {
		t.Errorf("stats = %+v", o.Stats())
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())
	defer o.Stop()

	first := NewJob(KindSpeech, "a.wav", "", nil)
	second := NewJob(KindSpeech, "b.wav", "", nil)
	if err := o.Submit(first); err != nil {
		t.Fatal(err)
	}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("status = %q", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 || o.JobCount() != 2 {
		t.Errorf("depth = %d count = %d", o.QueueDepth(), o.JobCount())
	}
}
