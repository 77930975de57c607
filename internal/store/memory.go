package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Memory keeps records for the lifetime of the process.
type Memory struct {
	mu          sync.RWMutex
	now         func() time.Time
	jobs        map[string]Job
	submissions map[string]Submission
}

func NewMemory() *Memory {
	return &Memory{
		now:         time.Now,
		jobs:        make(map[string]Job),
		submissions: make(map[string]Submission),
	}
}

func (m *Memory) SaveJob(_ context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prepareJob(job, m.now())
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (m *Memory) SaveSubmission(_ context.Context, submission *Submission) error {
	if submission == nil {
		return errors.New("submission is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[submission.JobID]; !ok {
		return ErrNotFound
	}

	prepareSubmission(submission, m.now())
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *Memory) GetSubmission(_ context.Context, id string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	submission, ok := m.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &submission, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
