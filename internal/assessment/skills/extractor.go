// Package skills turns a free-text job description into a skill profile.
package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/ai/llmjson"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	MinDescriptionLength     = 50
	DefaultMaxDescriptionLen = 20000

	stage = "skill extraction"

	defaultMaxLogLength = 200
)

var temperature float32 = 0.2

type Options struct {
	// MaxDescriptionLength in runes; zero means DefaultMaxDescriptionLen.
	MaxDescriptionLength int
	MaxLogLength         int
}

type Extractor struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLen    int
	maxLogLen int
}

func NewExtractor(generator ai.Generator, logger *zap.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxDescriptionLength <= 0 {
		opts.MaxDescriptionLength = DefaultMaxDescriptionLen
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLen:    opts.MaxDescriptionLength,
		maxLogLen: opts.MaxLogLength,
	}
}

// Extract validates the description, makes exactly one generation call and
// returns a normalized profile.
func (e *Extractor) Extract(ctx context.Context, description string) (*assessment.SkillProfile, error) {
	description = strings.TrimSpace(description)

	length := utf8.RuneCountInString(description)
	if length < MinDescriptionLength {
		return nil, &assessment.ValidationError{
			Field:   "jobDescription",
			Message: fmt.Sprintf("must be at least %d characters, got %d", MinDescriptionLength, length),
		}
	}
	if length > e.maxLen {
		return nil, &assessment.ValidationError{
			Field:   "jobDescription",
			Message: fmt.Sprintf("must be at most %d characters, got %d", e.maxLen, length),
		}
	}

	prompt := buildPrompt(description)

	e.logger.Debug("extracting skills", zap.Int("description_length", length))

	raw, err := e.generator.Generate(ctx, ai.Request{Prompt: prompt, Temperature: &temperature})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	profile, err := parseProfile(raw)
	if err != nil {
		e.logger.Warn("skill profile could not be parsed",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
		)
		return nil, &assessment.GenerationParseError{Stage: stage, Err: err}
	}

	e.logger.Info("skills extracted",
		zap.String("title", profile.Title),
		zap.String("experience_level", string(profile.ExperienceLevel)),
		zap.Int("technical", len(profile.Skills.Technical)),
		zap.Int("tools", len(profile.Skills.Tools)),
	)

	return profile, nil
}

func buildPrompt(description string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JOB_DESCRIPTION}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{JOB_DESCRIPTION}}", description)
}

func parseProfile(raw string) (*assessment.SkillProfile, error) {
	data, err := llmjson.DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	var profile assessment.SkillProfile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &profile,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode skill profile: %w", err)
	}

	profile.Normalize()

	if profile.Title == "" && profile.Skills.Empty() {
		return nil, errors.New("skill profile has neither a title nor any skills")
	}

	return &profile, nil
}
