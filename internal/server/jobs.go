package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/store"
)

type createJobRequest struct {
	JobDescription string                       `json:"jobDescription"`
	Config         *assessment.GenerationConfig `json:"config"`
}

type submitRequest struct {
	CandidateName string              `json:"candidate_name"`
	Answers       []assessment.Answer `json:"answers"`
}

// createJob extracts the profile, generates the question set and stores both.
func (s *Server) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	cfg := assessment.DefaultGenerationConfig
	if req.Config != nil {
		cfg = *req.Config
	}
	// reject bad counts before spending a call on extraction
	if err := cfg.Validate(); err != nil {
		s.abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()

	profile, err := s.deps.Extractor.Extract(ctx, req.JobDescription)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	generated, err := s.deps.Generator.Generate(ctx, profile, cfg)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	job := &store.Job{
		JobDescription: req.JobDescription,
		Profile:        *profile,
		Questions:      generated.Questions(),
		Summary:        generated.Summary,
	}
	if err := s.deps.Store.SaveJob(ctx, job); err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info("job created", zap.String("job_id", job.ID), zap.Int("questions", len(job.Questions)))
	c.JSON(http.StatusCreated, job)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.deps.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// submit evaluates answers against the stored question set of a job.
func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	job, err := s.deps.Store.GetJob(ctx, c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	result, err := s.deps.Scorer.Evaluate(ctx, job.Questions, assessment.Submission{
		Answers:       req.Answers,
		JobTitle:      job.Profile.Title,
		CandidateName: req.CandidateName,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	submission := &store.Submission{
		JobID:         job.ID,
		CandidateName: req.CandidateName,
		Answers:       req.Answers,
		Result:        result,
	}
	if err := s.deps.Store.SaveSubmission(ctx, submission); err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info("submission stored",
		zap.String("job_id", job.ID),
		zap.String("submission_id", submission.ID),
		zap.Int("percentage", result.Percentage),
	)
	c.JSON(http.StatusCreated, submission)
}

func (s *Server) getSubmission(c *gin.Context) {
	submission, err := s.deps.Store.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}
