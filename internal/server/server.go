// Package server exposes the assessment pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/store"
)

const (
	DefaultAddress = ":8080"

	shutdownTimeout = 10 * time.Second
)

type SkillExtractor interface {
	Extract(ctx context.Context, description string) (*assessment.SkillProfile, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, profile *assessment.SkillProfile, cfg assessment.GenerationConfig) (*assessment.Assessment, error)
}

type AnswerScorer interface {
	Evaluate(ctx context.Context, questions []assessment.Question, submission assessment.Submission) (*assessment.EvaluationResult, error)
}

type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type QuotaReporter interface {
	Stats() quota.Stats
}

// Deps are the collaborators behind the routes. Assistant and Quota are
// optional, a nil Store is replaced by an in-memory one.
type Deps struct {
	Extractor SkillExtractor
	Generator QuestionGenerator
	Scorer    AnswerScorer
	Assistant Assistant
	Quota     QuotaReporter
	Store     store.Store
}

type Options struct {
	// RateLimitRequests per client IP within RateLimitPer; zero disables the limiter.
	RateLimitRequests uint
	RateLimitPer      time.Duration
}

type Server struct {
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
}

func New(deps Deps, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if deps.Store == nil {
		deps.Store = store.NewMemory()
	}

	s := &Server{deps: deps, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	if opts.RateLimitRequests > 0 {
		api.Use(rateLimiter(opts))
	}
	{
		api.POST("/parse-job-description", s.parseJobDescription)
		api.POST("/generate-assessment", s.generateAssessment)
		api.POST("/evaluate-submission", s.evaluateSubmission)
		api.POST("/assistant", s.askAssistant)
		api.GET("/quota", s.quotaStatus)

		api.POST("/jobs", s.createJob)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/jobs/:id/submissions", s.submit)
		api.GET("/submissions/:id", s.getSubmission)
	}

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddress
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
		s.logger.Error("store is unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func rateLimiter(opts Options) gin.HandlerFunc {
	per := opts.RateLimitPer
	if per <= 0 {
		per = time.Minute
	}

	limitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  per,
		Limit: opts.RateLimitRequests,
	})

	return ratelimit.RateLimiter(limitStore, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			abortRateLimited(c, time.Until(info.ResetTime), "too many requests, try again later")
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
