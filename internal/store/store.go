// Package store persists jobs and candidate submissions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/hh-assessor/internal/assessment"
)

var ErrNotFound = errors.New("not found")

// Job is a posted role with the question set generated for it.
type Job struct {
	ID             string                  `json:"id"`
	JobDescription string                  `json:"job_description"`
	Profile        assessment.SkillProfile `json:"profile"`
	Questions      []assessment.Question   `json:"questions"`
	Summary        assessment.Summary      `json:"summary"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Submission is one candidate run against a job and its evaluation.
type Submission struct {
	ID            string                       `json:"id"`
	JobID         string                       `json:"job_id"`
	CandidateName string                       `json:"candidate_name,omitempty"`
	Answers       []assessment.Answer          `json:"answers"`
	Result        *assessment.EvaluationResult `json:"result,omitempty"`
	SubmittedAt   time.Time                    `json:"submitted_at"`
}

// Store saves records and assigns ids and timestamps to new ones.
type Store interface {
	SaveJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	SaveSubmission(ctx context.Context, submission *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	Ping(ctx context.Context) error
	Close() error
}

func prepareJob(job *Job, now time.Time) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now.UTC()
	}
}

func prepareSubmission(submission *Submission, now time.Time) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = now.UTC()
	}
}
