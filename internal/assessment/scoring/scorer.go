// Package scoring grades candidate answers and aggregates them into an
// evaluation with per-skill analysis and a hire recommendation.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/assessment"
	"github.com/spigell/hh-assessor/internal/logger"
)

const (
	strongYesThreshold = 80
	yesThreshold       = 60
	maybeThreshold     = 40

	strengthThreshold = 70
	weaknessThreshold = 50
)

type Scorer struct {
	grader ai.Generator
	logger *zap.Logger
}

// NewScorer returns a scorer that sends subjective and coding answers to grader.
func NewScorer(grader ai.Generator, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{grader: grader, logger: logger}
}

// Score grades a single answer. It fails with ValidationError only for
// questions that cannot be scored at all. Grading failures are reported
// through Outcome.Path.
func (s *Scorer) Score(ctx context.Context, q assessment.Question, resp assessment.Response) (Outcome, error) {
	score, ok := strategies[q.Type]
	if !ok {
		return Outcome{}, &assessment.ValidationError{Field: "questions", Message: fmt.Sprintf("%s has unknown type %q", q.ID, q.Type)}
	}
	if !q.HasContent() {
		return Outcome{}, &assessment.ValidationError{Field: "questions", Message: fmt.Sprintf("%s has no %s content", q.ID, q.Type)}
	}

	outcome := score(ctx, s.grader, q, resp)

	if outcome.Path == PathFallback {
		s.logger.Warn("answer scored by fallback",
			append(logger.QuestionFields(string(q.Type), q.ID),
				zap.Error(outcome.Cause),
				zap.Float64("score", outcome.Answer.Score),
			)...,
		)
	}

	return outcome, nil
}

// Evaluate scores every question of the set. Questions without an answer are
// scored as empty responses and still count towards the total.
func (s *Scorer) Evaluate(ctx context.Context, questions []assessment.Question, submission assessment.Submission) (*assessment.EvaluationResult, error) {
	responses := make(map[string]assessment.Response, len(submission.Answers))
	for _, answer := range submission.Answers {
		responses[answer.QuestionID] = answer.Response
	}

	outcomes := make([]Outcome, 0, len(questions))
	for _, q := range questions {
		outcome, err := s.Score(ctx, q, responses[q.ID])
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	result := Aggregate(questions, outcomes, submission.JobTitle)

	s.logger.Info("submission evaluated",
		zap.String("job_title", submission.JobTitle),
		zap.Int("total_score", result.TotalScore),
		zap.Int("total_possible", result.TotalPossible),
		zap.Int("percentage", result.Percentage),
		zap.String("recommendation", string(result.Feedback.Recommendation)),
	)

	return result, nil
}

type tally struct {
	score float64
	total int
}

// Aggregate builds the evaluation from outcomes in question order. Every tag
// of a question receives its full score and marks.
func Aggregate(questions []assessment.Question, outcomes []Outcome, jobTitle string) *assessment.EvaluationResult {
	var (
		totalScore    float64
		totalPossible int
		order         []string
	)
	tallies := make(map[string]*tally)
	answers := make([]assessment.EvaluatedAnswer, 0, len(outcomes))

	for i, q := range questions {
		totalPossible += q.Marks

		if i >= len(outcomes) {
			continue
		}
		answer := outcomes[i].Answer
		answers = append(answers, answer)
		totalScore += answer.Score

		for _, tag := range q.SkillTags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			t, ok := tallies[tag]
			if !ok {
				t = &tally{}
				tallies[tag] = t
				order = append(order, tag)
			}
			t.score += answer.Score
			t.total += q.Marks
		}
	}

	skills := make([]assessment.SkillScore, 0, len(order))
	for _, tag := range order {
		t := tallies[tag]
		skills = append(skills, assessment.SkillScore{
			Skill:      tag,
			Score:      t.score,
			Total:      t.total,
			Percentage: percent(t.score, t.total),
		})
	}
	sort.SliceStable(skills, func(i, j int) bool {
		return skills[i].Percentage > skills[j].Percentage
	})

	percentage := percent(totalScore, totalPossible)

	return &assessment.EvaluationResult{
		TotalScore:       int(math.Round(totalScore)),
		TotalPossible:    totalPossible,
		Percentage:       percentage,
		EvaluatedAnswers: answers,
		SkillAnalysis:    skills,
		Feedback:         feedback(skills, percentage, jobTitle),
	}
}

// Recommend maps an overall percentage to a hire recommendation.
func Recommend(percentage int) assessment.Recommendation {
	switch {
	case percentage >= strongYesThreshold:
		return assessment.StrongYes
	case percentage >= yesThreshold:
		return assessment.Yes
	case percentage >= maybeThreshold:
		return assessment.Maybe
	default:
		return assessment.No
	}
}

func feedback(skills []assessment.SkillScore, percentage int, jobTitle string) assessment.Feedback {
	fb := assessment.Feedback{
		Strengths:      []string{},
		Weaknesses:     []string{},
		Recommendation: Recommend(percentage),
	}

	for _, skill := range skills {
		switch {
		case skill.Percentage >= strengthThreshold:
			fb.Strengths = append(fb.Strengths, skill.Skill)
		case skill.Percentage < weaknessThreshold:
			fb.Weaknesses = append(fb.Weaknesses, skill.Skill)
		}
	}

	role := strings.TrimSpace(jobTitle)
	if role == "" {
		role = "this"
	}

	if percentage >= yesThreshold {
		fb.Overall = fmt.Sprintf("The candidate scored %d%% and shows a solid grasp of the skills required for the %s role.", percentage, role)
	} else {
		fb.Overall = fmt.Sprintf("The candidate scored %d%% and would need further development in key areas before taking on the %s role.", percentage, role)
	}

	return fb
}

// percent is round(score/total*100), or 0 when total is 0.
func percent(score float64, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(score / float64(total) * 100))
}
