package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/store"
)

const (
	codeInvalidRequest  = "invalid_request"
	codeValidation      = "validation_error"
	codeRateLimited     = "rate_limited"
	codeGenerationParse = "generation_parse_error"
	codeNoQuestions     = "no_questions_generated"
	codeNotFound        = "not_found"
	codeInternal        = "internal_error"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func abortWith(c *gin.Context, status int, body errorBody) {
	c.AbortWithStatusJSON(status, errorResponse{Error: body})
}

func abortRateLimited(c *gin.Context, retryAfter time.Duration, message string) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	abortWith(c, http.StatusTooManyRequests, errorBody{Code: codeRateLimited, Message: message, Retryable: true})
}

// abortWithError maps pipeline errors to a status code and a single error object.
func (s *Server) abortWithError(c *gin.Context, err error) {
	var (
		validation *assessment.ValidationError
		parse      *assessment.GenerationParseError
		limited    *quota.RateLimitedError
	)

	switch {
	case errors.As(err, &validation):
		abortWith(c, http.StatusBadRequest, errorBody{Code: codeValidation, Message: validation.Error()})
	case errors.As(err, &limited):
		abortRateLimited(c, limited.RetryAfter, limited.Error())
	case errors.As(err, &parse):
		s.logger.Error("generation output unusable", zap.Error(err))
		abortWith(c, http.StatusInternalServerError, errorBody{Code: codeGenerationParse, Message: parse.Error(), Retryable: true})
	case errors.Is(err, assessment.ErrNoQuestionsGenerated):
		abortWith(c, http.StatusInternalServerError, errorBody{Code: codeNoQuestions, Message: err.Error(), Retryable: true})
	case errors.Is(err, store.ErrNotFound):
		abortWith(c, http.StatusNotFound, errorBody{Code: codeNotFound, Message: "resource not found"})
	default:
		s.logger.Error("request failed", zap.Error(err))
		abortWith(c, http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal error"})
	}
}

func abortInvalidRequest(c *gin.Context, err error) {
	abortWith(c, http.StatusBadRequest, errorBody{Code: codeInvalidRequest, Message: err.Error()})
}
