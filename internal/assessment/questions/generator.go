// Package questions generates canonical assessment questions from a skill
// profile, one batch per question type.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/ai/llmjson"
	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/logger"
	"github.com/spigell/hh-assessor/internal/utils"
)

const defaultMaxLogLength = 200

var temperature float32 = 0.7

type Options struct {
	MaxLogLength int
}

type Generator struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewGenerator(generator ai.Generator, logger *zap.Logger, opts Options) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Generator{
		generator: generator,
		logger:    logger,
		maxLogLen: opts.MaxLogLength,
	}
}

// Generate runs the mcq, subjective and coding batches in that order. A failed
// batch yields no questions; only an entirely empty result is an error.
// RateLimitedError and context cancellation abort the whole run.
func (g *Generator) Generate(ctx context.Context, profile *assessment.SkillProfile, cfg assessment.GenerationConfig) (*assessment.Assessment, error) {
	if profile == nil {
		return nil, &assessment.ValidationError{Field: "profile", Message: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	normalized := *profile
	normalized.Normalize()

	fallback := normalized.AssessmentRecommendations.Difficulty
	cfg.Difficulty = assessment.ParseDifficulty(string(cfg.Difficulty), fallback)

	result := &assessment.Assessment{
		MCQ:        []assessment.Question{},
		Subjective: []assessment.Question{},
		Coding:     []assessment.Question{},
	}

	offset := 0
	for _, qtype := range assessment.QuestionTypes {
		s := strategies[qtype]

		batch, stats, err := g.batch(ctx, s, &normalized, cfg, offset)
		if err != nil {
			return nil, err
		}
		offset += len(batch)

		switch qtype {
		case assessment.MCQ:
			result.MCQ = batch
		case assessment.Subjective:
			result.Subjective = batch
		case assessment.Coding:
			result.Coding = batch
		}

		result.Summary.Batches = append(result.Summary.Batches, stats)
		result.Summary.EstimatedDurationMinutes += len(batch) * s.minutes
	}

	if offset == 0 {
		g.logger.Error("no questions generated", zap.String("title", normalized.Title))
		return nil, assessment.ErrNoQuestionsGenerated
	}

	summarize(result)

	g.logger.Info("assessment generated",
		zap.Int("total_questions", result.Summary.TotalQuestions),
		zap.Int("total_marks", result.Summary.TotalMarks),
	)

	return result, nil
}

func (g *Generator) batch(ctx context.Context, s strategy, profile *assessment.SkillProfile, cfg assessment.GenerationConfig, offset int) ([]assessment.Question, assessment.BatchStats, error) {
	requested := cfg.Count(s.qtype)
	stats := assessment.BatchStats{Type: s.qtype, Requested: requested}
	questions := []assessment.Question{}

	if requested == 0 {
		return questions, stats, nil
	}

	log := logger.WithFields(g.logger, logger.QuestionFields(string(s.qtype), "")...)

	prompt := buildPrompt(s.template, profile, cfg.Difficulty, requested, topics(profile, s.qtype))
	log.Debug("requesting question batch", zap.Int("requested", requested))

	raw, err := g.generator.Generate(ctx, ai.Request{Prompt: prompt, Temperature: &temperature})
	if err != nil {
		var limited *quota.RateLimitedError
		if errors.As(err, &limited) || ctx.Err() != nil {
			return nil, stats, fmt.Errorf("generate %s questions: %w", s.qtype, err)
		}
		log.Warn("question batch failed", zap.Error(err))
		stats.Failed = true
		return questions, stats, nil
	}

	items, err := llmjson.DecodeArray(raw)
	if err != nil {
		log.Warn("question batch could not be parsed",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
		)
		stats.Failed = true
		return questions, stats, nil
	}
	stats.Received = len(items)

	for i, item := range items {
		if len(questions) == requested {
			break
		}

		q, err := normalize(s, item, cfg.Difficulty, len(questions), offset)
		if err != nil {
			stats.Dropped++
			log.Debug("generated question rejected", zap.Int("index", i), zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	stats.Kept = len(questions)

	if stats.Kept < requested {
		log.Warn("question batch is short",
			zap.Int("requested", requested),
			zap.Int("received", stats.Received),
			zap.Int("dropped", stats.Dropped),
			zap.Int("kept", stats.Kept),
		)
	} else {
		log.Info("generated batch", zap.Int("kept", stats.Kept), zap.Int("dropped", stats.Dropped))
	}

	return questions, stats, nil
}

// normalize validates one raw item and turns it into the index-th question of
// its batch.
func normalize(s strategy, item map[string]any, difficulty assessment.Difficulty, index, offset int) (assessment.Question, error) {
	if item == nil {
		return assessment.Question{}, errors.New("item is not an object")
	}
	if err := s.validate(item); err != nil {
		return assessment.Question{}, err
	}

	var shared common
	if err := decode(item, &shared); err != nil {
		return assessment.Question{}, err
	}

	q := assessment.Question{
		ID:         fmt.Sprintf("%s-%d", s.qtype, index+1),
		Type:       s.qtype,
		Difficulty: assessment.ParseDifficulty(shared.Difficulty, difficulty),
		SkillTags:  orEmpty(shared.SkillTags),
		Marks:      s.qtype.Marks(),
		Order:      offset + index + 1,
	}
	if err := s.fill(item, &q); err != nil {
		return assessment.Question{}, err
	}

	return q, nil
}

func summarize(a *assessment.Assessment) {
	a.Summary.MCQCount = len(a.MCQ)
	a.Summary.SubjectiveCount = len(a.Subjective)
	a.Summary.CodingCount = len(a.Coding)
	for _, q := range a.Questions() {
		a.Summary.TotalQuestions++
		a.Summary.TotalMarks += q.Marks
	}
}

func buildPrompt(template string, profile *assessment.SkillProfile, difficulty assessment.Difficulty, count int, topics []string) string {
	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", orDefault(profile.Title, "Software Engineer"),
		"{{EXPERIENCE_LEVEL}}", string(profile.ExperienceLevel),
		"{{COUNT}}", strconv.Itoa(count),
		"{{DIFFICULTY}}", string(difficulty),
		"{{SKILLS}}", bullets(profile.Skills.All()),
		"{{TOPICS}}", bullets(topics),
	)
	return replacer.Replace(template)
}

func topics(profile *assessment.SkillProfile, qtype assessment.QuestionType) []string {
	rec := profile.AssessmentRecommendations
	switch qtype {
	case assessment.MCQ:
		return rec.MCQTopics
	case assessment.Subjective:
		return rec.SubjectiveTopics
	case assessment.Coding:
		return rec.CodingTopics
	default:
		return nil
	}
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "- any"
	}
	return "- " + strings.Join(items, "\n- ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
