package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/bookcontrol/internal/manuscript"
)

// JobStatus represents the state of an import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single uploaded chapter.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Book     string `json:"book"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	chapter  *manuscript.Chapter
	stamp    manuscript.Stamp
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Paragraphs    int      `json:"paragraphs"`
	Scenes        int      `json:"scenes"`
	StoreAttempts int      `json:"store_attempts"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for an upload. Job ids are UUIDv7, so they
// sort by creation time.
func NewJob(book, filename string, data []byte) *Job {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	now := time.Now()
	return &Job{
		ID:        id.String(),
		Book:      book,
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
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

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetParagraphs records how many paragraphs were extracted.
func (j *Job) SetParagraphs(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Paragraphs = n
	j.UpdatedAt = time.Now()
}

// IncrStoreAttempts counts one sink write attempt.
func (j *Job) IncrStoreAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.StoreAttempts++
	j.UpdatedAt = time.Now()
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

// SetChapter records the segmented chapter.
func (j *Job) SetChapter(ch *manuscript.Chapter, stamp manuscript.Stamp) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chapter = ch
	j.stamp = stamp
	j.ContentHash = ch.Source.ContentHash
	j.Progress.Scenes = len(ch.Scenes)
	j.UpdatedAt = time.Now()
}

// Chapter returns the segmented chapter, or nil before segmentation.
func (j *Job) Chapter() (*manuscript.Chapter, manuscript.Stamp) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chapter, j.stamp
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Book        string    `json:"book"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Title       string    `json:"title,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	var title string
	if j.chapter != nil {
		title = j.chapter.Title
	}
	return JobSnapshot{
		ID:          j.ID,
		Book:        j.Book,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Title:       title,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Paragraphs:    j.Progress.Paragraphs,
			Scenes:        j.Progress.Scenes,
			StoreAttempts: j.Progress.StoreAttempts,
			Errors:        errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
