// Package jobstore keeps the in-memory registry of signing jobs.
//
// The store owns every job record and its lifecycle: creation on upload,
// mutation as the remote workflow progresses, and eviction once a job has
// been idle longer than the configured TTL. Mutations against unknown job
// IDs are deliberate no-ops so fire-and-forget reconciliation paths never
// have to handle a lookup failure; callers that need strict existence check
// with Get first.
package jobstore

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long an idle job survives between sweeps.
const DefaultTTL = time.Hour

// Hooks receives lifecycle notifications for metrics. All fields optional.
type Hooks struct {
	Created   func()
	Completed func()
	Failed    func()
	Evicted   func(n int)
}

// Store is a thread-safe in-memory job registry with TTL-based eviction.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	ttl    time.Duration
	logger *zap.Logger
	hooks  Hooks

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger for sweep reporting.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks attaches lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// New creates a store and starts its background sweeper. The sweeper fires at
// the TTL interval, so a stale job lives at most 2x ttl. Callers must Close
// the store to stop the sweeper.
func New(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		jobs:   make(map[string]*Job),
		ttl:    ttl,
		logger: zap.NewNop(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepLoop()
	return s
}

// Close stops the background sweeper and waits for it to exit.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// Create registers a new pending job for an uploaded document.
func (s *Store) Create(fileName, fileType string) Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		FileName:  fileName,
		FileType:  fileType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if s.hooks.Created != nil {
		s.hooks.Created()
	}
	return *job
}

// Get returns a copy of the job, or false if the ID is unknown.
func (s *Store) Get(jobID string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Len reports the number of jobs currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SetWorkflow attaches the remote workflow correlation to a job. The workflow
// ID is write-once: a job that already carries one keeps it. No-op for
// unknown IDs and terminal jobs.
func (s *Store) SetWorkflow(jobID, workflowID, workflowStatus string) {
	s.mutate(jobID, func(job *Job) {
		if job.WorkflowID == "" {
			job.WorkflowID = workflowID
		}
		if workflowStatus != "" {
			job.WorkflowStatus = workflowStatus
		}
	})
}

// SetWorkflowStatus records the last observed remote status. No-op for
// unknown IDs and terminal jobs.
func (s *Store) SetWorkflowStatus(jobID, workflowStatus string) {
	s.mutate(jobID, func(job *Job) {
		job.WorkflowStatus = workflowStatus
	})
}

// Complete transitions a pending job to completed and stores the signed
// artifact. When the artifact carries no filename, one is derived from the
// original upload name. No-op for unknown IDs and terminal jobs.
func (s *Store) Complete(jobID string, artifact SignedArtifact) {
	applied := s.mutate(jobID, func(job *Job) {
		job.Status = StatusCompleted
		job.SignedDocument = artifact.Data
		job.ErrorMessage = ""

		job.SignedFileName = artifact.FileName
		if job.SignedFileName == "" {
			job.SignedFileName = SignedFileName(job.FileName)
		}
		job.SignedContentType = artifact.ContentType
		if job.SignedContentType == "" {
			job.SignedContentType = "application/pdf"
		}
	})
	if applied && s.hooks.Completed != nil {
		s.hooks.Completed()
	}
}

// Fail transitions a pending job to error with the given message. No-op for
// unknown IDs and terminal jobs.
func (s *Store) Fail(jobID, message string) {
	applied := s.mutate(jobID, func(job *Job) {
		job.Status = StatusError
		job.ErrorMessage = message
		job.SignedDocument = nil
		job.SignedFileName = ""
		job.SignedContentType = ""
	})
	if applied && s.hooks.Failed != nil {
		s.hooks.Failed()
	}
}

// mutate applies fn to the named job under lock and refreshes UpdatedAt.
// Terminal jobs are left untouched so status transitions stay monotonic.
// Reports whether the mutation was applied.
func (s *Store) mutate(jobID string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return false
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return true
}

// SignedFileName derives the download name for a signed artifact by inserting
// a "-signed" suffix before the original extension. Names without an
// extension get "-signed.pdf" appended.
func SignedFileName(original string) string {
	ext := filepath.Ext(original)
	if ext == "" {
		return original + "-signed.pdf"
	}
	return strings.TrimSuffix(original, ext) + "-signed" + ext
}

func (s *Store) sweepLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep removes jobs idle longer than the TTL, measured from UpdatedAt.
func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	evicted := 0
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			evicted++
		}
	}
	remaining := len(s.jobs)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Info("Evicted expired signing jobs",
			zap.Int("evicted", evicted),
			zap.Int("remaining", remaining),
			zap.Duration("ttl", s.ttl))
		if s.hooks.Evicted != nil {
			s.hooks.Evicted(evicted)
		}
	}
}
