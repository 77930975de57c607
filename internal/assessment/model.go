// Package assessment holds the records shared by skill extraction, question
// generation and answer scoring.
package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
)

type QuestionType string

const (
	MCQ        QuestionType = "mcq"
	Subjective QuestionType = "subjective"
	Coding     QuestionType = "coding"
)

// QuestionTypes lists the types in assessment order.
var QuestionTypes = []QuestionType{MCQ, Subjective, Coding}

// Marks returns the fixed marks of a question type.
func (t QuestionType) Marks() int {
	switch t {
	case MCQ:
		return 5
	case Subjective:
		return 15
	case Coding:
		return 25
	default:
		return 0
	}
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty returns fallback for anything that is not easy, medium or hard.
func ParseDifficulty(s string, fallback Difficulty) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d
	default:
		return fallback
	}
}

type ExperienceLevel string

const (
	Fresher ExperienceLevel = "fresher"
	Junior  ExperienceLevel = "junior"
	Mid     ExperienceLevel = "mid"
	Senior  ExperienceLevel = "senior"
)

func ParseExperienceLevel(s string, fallback ExperienceLevel) ExperienceLevel {
	switch l := ExperienceLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case Fresher, Junior, Mid, Senior:
		return l
	default:
		return fallback
	}
}

type Skills struct {
	Technical       []string `json:"technical"`
	Soft            []string `json:"soft"`
	Tools           []string `json:"tools"`
	DomainKnowledge []string `json:"domain_knowledge"`
}

// All returns technical, tools, domain and soft skills without duplicates.
func (s Skills) All() []string {
	seen := make(map[string]struct{})
	all := make([]string, 0, len(s.Technical)+len(s.Tools)+len(s.DomainKnowledge)+len(s.Soft))
	for _, group := range [][]string{s.Technical, s.Tools, s.DomainKnowledge, s.Soft} {
		for _, skill := range group {
			key := strings.ToLower(skill)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, skill)
		}
	}
	return all
}

func (s Skills) Empty() bool {
	return len(s.Technical) == 0 && len(s.Soft) == 0 && len(s.Tools) == 0 && len(s.DomainKnowledge) == 0
}

func (s *Skills) normalize() {
	s.Technical = nonNil(s.Technical)
	s.Soft = nonNil(s.Soft)
	s.Tools = nonNil(s.Tools)
	s.DomainKnowledge = nonNil(s.DomainKnowledge)
}

type Recommendations struct {
	MCQTopics                []string   `json:"mcq_topics"`
	SubjectiveTopics         []string   `json:"subjective_topics"`
	CodingTopics             []string   `json:"coding_topics"`
	Difficulty               Difficulty `json:"difficulty"`
	SuggestedDurationMinutes int        `json:"suggested_duration_minutes"`
}

const DefaultDurationMinutes = 60

type SkillProfile struct {
	Title                     string          `json:"title"`
	ExperienceLevel           ExperienceLevel `json:"experience_level"`
	Skills                    Skills          `json:"skills"`
	Responsibilities          []string        `json:"responsibilities"`
	Qualifications            []string        `json:"qualifications"`
	AssessmentRecommendations Recommendations `json:"assessment_recommendations"`
}

// Normalize replaces absent arrays with empty ones and unknown enum values with defaults.
func (p *SkillProfile) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.ExperienceLevel = ParseExperienceLevel(string(p.ExperienceLevel), Mid)
	p.Skills.normalize()
	p.Responsibilities = nonNil(p.Responsibilities)
	p.Qualifications = nonNil(p.Qualifications)

	rec := &p.AssessmentRecommendations
	rec.MCQTopics = nonNil(rec.MCQTopics)
	rec.SubjectiveTopics = nonNil(rec.SubjectiveTopics)
	rec.CodingTopics = nonNil(rec.CodingTopics)
	rec.Difficulty = ParseDifficulty(string(rec.Difficulty), Medium)
	if rec.SuggestedDurationMinutes <= 0 {
		rec.SuggestedDurationMinutes = DefaultDurationMinutes
	}
}

type MCQContent struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type SubjectiveContent struct {
	Question         string   `json:"question"`
	ExpectedKeywords []string `json:"expected_keywords"`
	Rubric           string   `json:"rubric"`
	MaxWords         int      `json:"max_words"`
	SampleAnswer     string   `json:"sample_answer"`
}

type CodingExample struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
}

type CodingContent struct {
	ProblemStatement string            `json:"problem_statement"`
	InputFormat      string            `json:"input_format"`
	OutputFormat     string            `json:"output_format"`
	Constraints      []string          `json:"constraints"`
	Examples         []CodingExample   `json:"examples"`
	TestCases        []TestCase        `json:"test_cases"`
	StarterCode      map[string]string `json:"starter_code"`
	TimeLimitSeconds int               `json:"time_limit_seconds"`
	MemoryLimitMB    int               `json:"memory_limit_mb"`
}

// Question is a canonical question. Exactly one content pointer matching Type is set.
type Question struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
	SkillTags  []string     `json:"skill_tags"`
	Marks      int          `json:"marks"`
	Order      int          `json:"order"`

	MCQ        *MCQContent        `json:"-"`
	Subjective *SubjectiveContent `json:"-"`
	Coding     *CodingContent     `json:"-"`
}

type questionJSON struct {
	ID         string          `json:"id"`
	Type       QuestionType    `json:"type"`
	Difficulty Difficulty      `json:"difficulty"`
	SkillTags  []string        `json:"skill_tags"`
	Marks      int             `json:"marks"`
	Order      int             `json:"order"`
	Content    json.RawMessage `json:"content"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	var content any
	switch q.Type {
	case MCQ:
		content = q.MCQ
	case Subjective:
		content = q.Subjective
	case Coding:
		content = q.Coding
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	return json.Marshal(questionJSON{
		ID:         q.ID,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		SkillTags:  nonNil(q.SkillTags),
		Marks:      q.Marks,
		Order:      q.Order,
		Content:    raw,
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*q = Question{
		ID:         wire.ID,
		Type:       wire.Type,
		Difficulty: wire.Difficulty,
		SkillTags:  nonNil(wire.SkillTags),
		Marks:      wire.Marks,
		Order:      wire.Order,
	}

	if len(wire.Content) == 0 || string(wire.Content) == "null" {
		return nil
	}

	switch wire.Type {
	case MCQ:
		q.MCQ = &MCQContent{}
		return json.Unmarshal(wire.Content, q.MCQ)
	case Subjective:
		q.Subjective = &SubjectiveContent{}
		return json.Unmarshal(wire.Content, q.Subjective)
	case Coding:
		q.Coding = &CodingContent{}
		return json.Unmarshal(wire.Content, q.Coding)
	default:
		return fmt.Errorf("unknown question type %q", wire.Type)
	}
}

// HasContent reports whether the content matching Type is present.
func (q Question) HasContent() bool {
	switch q.Type {
	case MCQ:
		return q.MCQ != nil
	case Subjective:
		return q.Subjective != nil
	case Coding:
		return q.Coding != nil
	default:
		return false
	}
}

// Prompt returns the text shown to the candidate.
func (q Question) Prompt() string {
	switch {
	case q.MCQ != nil:
		return q.MCQ.Question
	case q.Subjective != nil:
		return q.Subjective.Question
	case q.Coding != nil:
		return q.Coding.ProblemStatement
	default:
		return ""
	}
}

type GenerationConfig struct {
	MCQCount        int        `json:"mcq_count"`
	SubjectiveCount int        `json:"subjective_count"`
	CodingCount     int        `json:"coding_count"`
	Difficulty      Difficulty `json:"difficulty"`
}

// MaxQuestionsPerType caps every count in GenerationConfig.
const MaxQuestionsPerType = 50

// DefaultGenerationConfig is used when a caller does not say what to generate.
var DefaultGenerationConfig = GenerationConfig{
	MCQCount:        10,
	SubjectiveCount: 3,
	CodingCount:     2,
	Difficulty:      Medium,
}

func (c GenerationConfig) Count(t QuestionType) int {
	switch t {
	case MCQ:
		return c.MCQCount
	case Subjective:
		return c.SubjectiveCount
	case Coding:
		return c.CodingCount
	default:
		return 0
	}
}

func (c GenerationConfig) Validate() error {
	for _, t := range QuestionTypes {
		n := c.Count(t)
		if n < 0 || n > MaxQuestionsPerType {
			return &ValidationError{
				Field:   string(t) + "_count",
				Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxQuestionsPerType, n),
			}
		}
	}
	if c.MCQCount+c.SubjectiveCount+c.CodingCount == 0 {
		return &ValidationError{Field: "config", Message: "at least one question must be requested"}
	}
	return nil
}

// BatchStats describes one generated batch.
type BatchStats struct {
	Type      QuestionType `json:"type"`
	Requested int          `json:"requested"`
	Received  int          `json:"received"`
	Dropped   int          `json:"dropped"`
	Kept      int          `json:"kept"`
	Failed    bool         `json:"failed,omitempty"`
}

type Summary struct {
	MCQCount                 int          `json:"mcq_count"`
	SubjectiveCount          int          `json:"subjective_count"`
	CodingCount              int          `json:"coding_count"`
	TotalQuestions           int          `json:"total_questions"`
	TotalMarks               int          `json:"total_marks"`
	EstimatedDurationMinutes int          `json:"estimated_duration_minutes"`
	Batches                  []BatchStats `json:"batches"`
}

// Assessment is the output of question generation.
type Assessment struct {
	MCQ        []Question `json:"mcq_questions"`
	Subjective []Question `json:"subjective_questions"`
	Coding     []Question `json:"coding_questions"`
	Summary    Summary    `json:"summary"`
}

// Questions returns mcq, subjective and coding questions in order.
func (a *Assessment) Questions() []Question {
	all := make([]Question, 0, len(a.MCQ)+len(a.Subjective)+len(a.Coding))
	all = append(all, a.MCQ...)
	all = append(all, a.Subjective...)
	return append(all, a.Coding...)
}

type Response struct {
	SelectedOption *int   `json:"selected_option,omitempty"`
	Text           string `json:"text,omitempty"`
	Code           string `json:"code,omitempty"`
	Language       string `json:"language,omitempty"`
}

type Answer struct {
	QuestionID string   `json:"question_id"`
	Response   Response `json:"response"`
}

type Submission struct {
	Answers       []Answer `json:"answers"`
	JobTitle      string   `json:"job_title"`
	CandidateName string   `json:"candidate_name,omitempty"`
}

type TestResult struct {
	Input  string `json:"input"`
	Passed bool   `json:"passed"`
}

type EvaluatedAnswer struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Score      float64      `json:"score"`
	MaxScore   int          `json:"max_score"`

	// mcq
	IsCorrect      *bool `json:"is_correct,omitempty"`
	CorrectAnswer  *int  `json:"correct_answer,omitempty"`
	SelectedOption *int  `json:"selected_option,omitempty"`

	// subjective and coding; always present so every answer has the same shape
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`

	// coding
	CodeQuality     string       `json:"code_quality,omitempty"`
	WouldLikelyPass *bool        `json:"would_likely_pass,omitempty"`
	TestResults     []TestResult `json:"test_results,omitempty"`
}

type SkillScore struct {
	Skill      string  `json:"skill"`
	Score      float64 `json:"score"`
	Total      int     `json:"total"`
	Percentage int     `json:"percentage"`
}

type Recommendation string

const (
	StrongYes Recommendation = "strong_yes"
	Yes       Recommendation = "yes"
	Maybe     Recommendation = "maybe"
	No        Recommendation = "no"
)

type Feedback struct {
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation Recommendation `json:"recommendation"`
	Overall        string         `json:"overall"`
}

type EvaluationResult struct {
	TotalScore       int               `json:"total_score"`
	TotalPossible    int               `json:"total_possible"`
	Percentage       int               `json:"percentage"`
	EvaluatedAnswers []EvaluatedAnswer `json:"evaluated_answers"`
	SkillAnalysis    []SkillScore      `json:"skill_analysis"`
	Feedback         Feedback          `json:"feedback"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
