package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spigell/hh-assessor/internal/assessment"
)

type parseRequest struct {
	JobDescription string `json:"jobDescription"`
}

type generateRequest struct {
	JobTitle        string                       `json:"jobTitle"`
	Skills          assessment.Skills            `json:"skills"`
	ExperienceLevel string                       `json:"experienceLevel"`
	Config          *assessment.GenerationConfig `json:"config"`
}

type generateResponse struct {
	Questions []assessment.Question `json:"questions"`
	Summary   assessment.Summary    `json:"summary"`
}

type evaluateRequest struct {
	Submission *assessment.Submission `json:"submission"`
	Questions  []assessment.Question  `json:"questions"`
}

type assistantRequest struct {
	Prompt string `json:"prompt"`
}

type quotaResponse struct {
	Remaining         int     `json:"remaining"`
	Total             int     `json:"total"`
	WindowSeconds     float64 `json:"window_seconds"`
	RetryAfterSeconds float64 `json:"retry_after_seconds"`
}

func (s *Server) parseJobDescription(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	profile, err := s.deps.Extractor.Extract(c.Request.Context(), req.JobDescription)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *Server) generateAssessment(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	if strings.TrimSpace(req.JobTitle) == "" && req.Skills.Empty() {
		abortWith(c, http.StatusBadRequest, errorBody{Code: codeValidation, Message: "jobTitle or skills are required"})
		return
	}

	profile := &assessment.SkillProfile{
		Title:           req.JobTitle,
		ExperienceLevel: assessment.ExperienceLevel(req.ExperienceLevel),
		Skills:          req.Skills,
	}
	profile.Normalize()

	cfg := assessment.DefaultGenerationConfig
	if req.Config != nil {
		cfg = *req.Config
	}

	result, err := s.deps.Generator.Generate(c.Request.Context(), profile, cfg)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{Questions: result.Questions(), Summary: result.Summary})
}

func (s *Server) evaluateSubmission(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	if req.Submission == nil {
		abortInvalidRequest(c, errors.New("submission is required"))
		return
	}

	result, err := s.deps.Scorer.Evaluate(c.Request.Context(), req.Questions, *req.Submission)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) askAssistant(c *gin.Context) {
	if s.deps.Assistant == nil {
		abortWith(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: "assistant is not enabled"})
		return
	}

	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		abortWith(c, http.StatusBadRequest, errorBody{Code: codeValidation, Message: "prompt must not be empty"})
		return
	}

	answer, err := s.deps.Assistant.Ask(c.Request.Context(), req.Prompt)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (s *Server) quotaStatus(c *gin.Context) {
	if s.deps.Quota == nil {
		abortWith(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: "quota tracking is not enabled"})
		return
	}

	stats := s.deps.Quota.Stats()
	c.JSON(http.StatusOK, quotaResponse{
		Remaining:         stats.Remaining,
		Total:             stats.Total,
		WindowSeconds:     stats.Window.Seconds(),
		RetryAfterSeconds: stats.RetryAfter.Seconds(),
	})
}
