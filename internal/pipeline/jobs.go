package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/motorsig/internal/handwriting"
	"github.com/dgallion1/motorsig/internal/speech"
	"github.com/google/uuid"
)

// Kind is the analysis a job runs.
type Kind string

const (
	KindHandwriting Kind = "handwriting"
	KindSpeech      Kind = "speech"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusAnalyzing    JobStatus = "analyzing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusInsufficient JobStatus = "insufficient"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusInsufficient:
		return true
	}
	return false
}

// Job tracks the state of a single analysis.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Kind     Kind   `json:"kind"`
	SampleID string `json:"sample_id,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mime_type,omitempty"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData    []byte
	handwriting *handwriting.Result
	speech      *speech.Result
	errors      []string
	elapsed     time.Duration
	done        chan struct{}
	closed      bool
}

// NewJob creates a queued job holding data.
func NewJob(kind Kind, filename, mimeType string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		MimeType:    mimeType,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Entering a terminal state
// closes Done.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Terminal() && !j.closed {
		if j.done == nil {
			j.done = make(chan struct{})
		}
		close(j.done)
		j.closed = true
	}
}

// Done returns a channel that is closed once the job reaches a terminal
// state.
func (j *Job) Done() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done == nil {
		j.done = make(chan struct{})
		if j.Status.Terminal() {
			close(j.done)
			j.closed = true
		}
	}
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetHandwriting stores a finished handwriting analysis.
func (j *Job) SetHandwriting(res *handwriting.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.handwriting = res
	j.UpdatedAt = time.Now()
}

// SetSpeech stores a finished speech analysis.
func (j *Job) SetSpeech(res *speech.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.speech = res
	j.UpdatedAt = time.Now()
}

// Handwriting returns the handwriting result, or nil.
func (j *Job) Handwriting() *handwriting.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.handwriting
}

// Speech returns the speech result, or nil.
func (j *Job) Speech() *speech.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.speech
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been analyzed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

func (j *Job) setElapsed(d time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.elapsed = d
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Kind        Kind      `json:"kind"`
	SampleID    string    `json:"sample_id,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ElapsedMs   int64     `json:"elapsed_ms,omitempty"`
	Errors      []string  `json:"errors"`
	Result      any       `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state. Results are shared,
// not copied; they are never modified after being stored.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	snap := JobSnapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		SampleID:    j.SampleID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		ElapsedMs:   j.elapsed.Milliseconds(),
		Errors:      errs,
	}
	switch {
	case j.handwriting != nil:
		snap.Result = j.handwriting
	case j.speech != nil:
		snap.Result = j.speech
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
