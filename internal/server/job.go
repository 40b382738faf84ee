package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/workflow"
)

// Job is one generation attempt started by an upload. Captions appear
// all-or-nothing when the attempt completes; a failed attempt carries the
// user-facing error message instead.
type Job struct {
	ID          string          `json:"id"`
	FileName    string          `json:"fileName"`
	State       workflow.State  `json:"state"`
	Phase       workflow.Phase  `json:"phase,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	Error       string          `json:"error,omitempty"`
	Captions    []caption.Item  `json:"captions,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// jobStore keeps jobs in memory for the life of the process. The browser
// flow has no cross-session persistence; restarting the server resets it.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) create(fileName string) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		FileName:  fileName,
		State:     workflow.StateIdle,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job
}

// get returns a copy so readers never observe a half-applied update.
func (s *jobStore) get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *jobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}
