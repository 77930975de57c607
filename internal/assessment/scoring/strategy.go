package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/ai/llmjson"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/utils"
)

var (
	//go:embed subjective.md
	subjectiveTemplate string
	//go:embed coding.md
	codingTemplate string
)

const (
	minTextLength = 10
	minCodeLength = 20

	// answers longer than this get the higher fallback ratio
	fallbackLengthThreshold = 100

	fallbackFeedback = "Automatic grading was unavailable, the score is estimated from the answer length."
)

var temperature float32 = 0.1

type scoreFunc func(ctx context.Context, gen ai.Generator, q assessment.Question, resp assessment.Response) Outcome

var strategies = map[assessment.QuestionType]scoreFunc{
	assessment.MCQ:        scoreMCQ,
	assessment.Subjective: scoreSubjective,
	assessment.Coding:     scoreCoding,
}

// fallbackRatios are the shares of marks given to long and short answers
// when grading failed.
var fallbackRatios = map[assessment.QuestionType]struct{ long, short float64 }{
	assessment.Subjective: {long: 0.6, short: 0.3},
	assessment.Coding:     {long: 0.5, short: 0.2},
}

func scoreMCQ(_ context.Context, _ ai.Generator, q assessment.Question, resp assessment.Response) Outcome {
	correct := q.MCQ.CorrectAnswer
	isCorrect := resp.SelectedOption != nil && *resp.SelectedOption == correct

	answer := evaluated(q)
	answer.IsCorrect = &isCorrect
	answer.CorrectAnswer = &correct
	answer.SelectedOption = resp.SelectedOption
	if isCorrect {
		answer.Score = float64(q.Marks)
	}

	return Outcome{Answer: answer, Path: PathRule}
}

func scoreSubjective(ctx context.Context, gen ai.Generator, q assessment.Question, resp assessment.Response) Outcome {
	text := strings.TrimSpace(resp.Text)
	if utils.RuneLen(text) < minTextLength {
		answer := evaluated(q)
		answer.Feedback = "Answer is too short or missing."
		answer.Improvements = []string{"Provide a complete answer that addresses the question."}
		return Outcome{Answer: answer, Path: PathSkipped}
	}

	content := q.Subjective
	prompt := strings.NewReplacer(
		"{{QUESTION}}", content.Question,
		"{{KEYWORDS}}", strings.Join(content.ExpectedKeywords, ", "),
		"{{RUBRIC}}", content.Rubric,
		"{{ANSWER}}", text,
		"{{MAX_SCORE}}", strconv.Itoa(q.Marks),
	).Replace(subjectiveTemplate)

	data, err := grade(ctx, gen, prompt)
	if err != nil {
		return fallback(q, text, err)
	}

	answer := evaluated(q)
	answer.Score = clamp(data.score, q.Marks)
	answer.Feedback = llmjson.CoerceString(data.raw["feedback"])
	answer.Strengths = llmjson.CoerceStrings(data.raw["strengths"])
	answer.Improvements = llmjson.CoerceStrings(data.raw["improvements"])

	return Outcome{Answer: answer, Path: PathGraded}
}

func scoreCoding(ctx context.Context, gen ai.Generator, q assessment.Question, resp assessment.Response) Outcome {
	code := strings.TrimSpace(resp.Code)
	if utils.RuneLen(code) < minCodeLength {
		answer := evaluated(q)
		answer.Feedback = "No meaningful code was submitted."
		answer.TestResults = []assessment.TestResult{}
		return Outcome{Answer: answer, Path: PathSkipped}
	}

	language := strings.TrimSpace(resp.Language)
	if language == "" {
		language = "unspecified language"
	}

	content := q.Coding
	prompt := strings.NewReplacer(
		"{{PROBLEM}}", content.ProblemStatement,
		"{{INPUT_FORMAT}}", content.InputFormat,
		"{{OUTPUT_FORMAT}}", content.OutputFormat,
		"{{LANGUAGE}}", language,
		"{{CODE}}", code,
		"{{MAX_SCORE}}", strconv.Itoa(q.Marks),
	).Replace(codingTemplate)

	data, err := grade(ctx, gen, prompt)
	if err != nil {
		return fallback(q, code, err)
	}

	wouldPass := llmjson.CoerceBool(data.raw["would_likely_pass"])

	answer := evaluated(q)
	answer.Score = clamp(data.score, q.Marks)
	answer.Feedback = llmjson.CoerceString(data.raw["feedback"])
	answer.Strengths = llmjson.CoerceStrings(data.raw["strengths"])
	answer.Improvements = llmjson.CoerceStrings(data.raw["improvements"])
	answer.CodeQuality = llmjson.CoerceString(data.raw["code_quality"])
	answer.WouldLikelyPass = &wouldPass
	answer.TestResults = []assessment.TestResult{}

	return Outcome{Answer: answer, Path: PathGraded}
}

type grading struct {
	score float64
	raw   map[string]any
}

// grade makes one call and parses the numeric score out of the response.
func grade(ctx context.Context, gen ai.Generator, prompt string) (grading, error) {
	if gen == nil {
		return grading{}, errors.New("grader is not configured")
	}

	raw, err := gen.Generate(ctx, ai.Request{Prompt: prompt, Temperature: &temperature})
	if err != nil {
		return grading{}, fmt.Errorf("grading call: %w", err)
	}

	data, err := llmjson.DecodeObject(raw)
	if err != nil {
		return grading{}, fmt.Errorf("parse grading: %w", err)
	}

	score := llmjson.CoerceFloat(data["score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return grading{}, fmt.Errorf("parse grading: score %v is not a number", data["score"])
	}

	return grading{score: score, raw: data}, nil
}

// fallback scores an answer by its length when grading failed.
func fallback(q assessment.Question, text string, cause error) Outcome {
	ratios := fallbackRatios[q.Type]
	ratio := ratios.short
	if utils.RuneLen(text) > fallbackLengthThreshold {
		ratio = ratios.long
	}

	answer := evaluated(q)
	answer.Score = math.Round(ratio * float64(q.Marks))
	answer.Feedback = fallbackFeedback
	if q.Type == assessment.Subjective {
		answer.Strengths = []string{}
		answer.Improvements = []string{}
	}
	if q.Type == assessment.Coding {
		answer.TestResults = []assessment.TestResult{}
	}

	return Outcome{Answer: answer, Path: PathFallback, Cause: cause}
}

func evaluated(q assessment.Question) assessment.EvaluatedAnswer {
	return assessment.EvaluatedAnswer{
		QuestionID:   q.ID,
		Type:         q.Type,
		MaxScore:     q.Marks,
		Strengths:    []string{},
		Improvements: []string{},
	}
}

func clamp(score float64, marks int) float64 {
	return math.Max(0, math.Min(score, float64(marks)))
}
