package questions

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	_ "embed"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-assessor/internal/ai/llmjson"
	"github.com/spigell/hh-assessor/internal/assessment"
)

var (
	//go:embed mcq.md
	mcqTemplate string
	//go:embed subjective.md
	subjectiveTemplate string
	//go:embed coding.md
	codingTemplate string
)

const (
	minOptions       = 4
	minTestCases     = 2
	defaultMaxWords  = 250
	defaultTimeLimit = 30
	defaultMemoryMB  = 256
)

var defaultStarterCode = map[string]string{
	"python":     "def solution():\n    # Write your code here\n    pass\n",
	"javascript": "function solution() {\n  // Write your code here\n}\n",
}

// strategy keeps the prompt, structural check and defaulting rules of one
// question type together.
type strategy struct {
	qtype    assessment.QuestionType
	template string
	// minutes a candidate is expected to spend per question
	minutes int
	// validate rejects items missing required fields.
	validate func(item map[string]any) error
	// fill decodes the content of a validated item into q, applying defaults.
	fill func(item map[string]any, q *assessment.Question) error
}

var strategies = map[assessment.QuestionType]strategy{
	assessment.MCQ: {
		qtype:    assessment.MCQ,
		template: mcqTemplate,
		minutes:  2,
		validate: validateMCQ,
		fill:     fillMCQ,
	},
	assessment.Subjective: {
		qtype:    assessment.Subjective,
		template: subjectiveTemplate,
		minutes:  10,
		validate: validateSubjective,
		fill:     fillSubjective,
	},
	assessment.Coding: {
		qtype:    assessment.Coding,
		template: codingTemplate,
		minutes:  20,
		validate: validateCoding,
		fill:     fillCoding,
	},
}

func validateMCQ(item map[string]any) error {
	if err := requireText(item, "question"); err != nil {
		return err
	}
	options, err := requireArray(item, "options", minOptions)
	if err != nil {
		return err
	}
	return requireIndex(item, "correct_answer", len(options))
}

func validateSubjective(item map[string]any) error {
	if err := requireText(item, "question"); err != nil {
		return err
	}
	if _, err := requireArray(item, "expected_keywords", 0); err != nil {
		return err
	}
	return requireText(item, "rubric")
}

func validateCoding(item map[string]any) error {
	for _, key := range []string{"problem_statement", "input_format", "output_format"} {
		if err := requireText(item, key); err != nil {
			return err
		}
	}
	if _, err := requireArray(item, "examples", 0); err != nil {
		return err
	}
	_, err := requireArray(item, "test_cases", minTestCases)
	return err
}

func fillMCQ(item map[string]any, q *assessment.Question) error {
	var content assessment.MCQContent
	if err := decode(item, &content); err != nil {
		return err
	}

	if len(content.Options) == 0 {
		content.Options = []string{"Option A", "Option B", "Option C", "Option D"}
	}
	for len(content.Options) < minOptions {
		content.Options = append(content.Options, fmt.Sprintf("Option %d", len(content.Options)+1))
	}
	if content.CorrectAnswer < 0 || content.CorrectAnswer >= len(content.Options) {
		content.CorrectAnswer = 0
	}

	q.MCQ = &content
	return nil
}

func fillSubjective(item map[string]any, q *assessment.Question) error {
	var content assessment.SubjectiveContent
	if err := decode(item, &content); err != nil {
		return err
	}

	content.ExpectedKeywords = orEmpty(content.ExpectedKeywords)
	if content.MaxWords <= 0 {
		content.MaxWords = defaultMaxWords
	}

	q.Subjective = &content
	return nil
}

func fillCoding(item map[string]any, q *assessment.Question) error {
	var content assessment.CodingContent
	if err := decode(item, &content); err != nil {
		return err
	}

	content.Constraints = orEmpty(content.Constraints)
	if content.Examples == nil {
		content.Examples = []assessment.CodingExample{}
	}
	for len(content.TestCases) < minTestCases {
		content.TestCases = append(content.TestCases, assessment.TestCase{
			Input:          "sample input",
			ExpectedOutput: "sample output",
			IsHidden:       len(content.TestCases) > 0,
		})
	}
	if len(content.StarterCode) == 0 {
		content.StarterCode = make(map[string]string, len(defaultStarterCode))
		for lang, stub := range defaultStarterCode {
			content.StarterCode[lang] = stub
		}
	}
	if content.TimeLimitSeconds <= 0 {
		content.TimeLimitSeconds = defaultTimeLimit
	}
	if content.MemoryLimitMB <= 0 {
		content.MemoryLimitMB = defaultMemoryMB
	}

	q.Coding = &content
	return nil
}

// common holds the fields every generated item may carry besides its content.
type common struct {
	Difficulty string   `json:"difficulty"`
	SkillTags  []string `json:"skill_tags"`
}

func decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       structuredToString,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// structuredToString renders arrays, objects and booleans as JSON when the
// target is a string, so an example input like [1,2,3] survives decoding.
func structuredToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Slice, reflect.Map, reflect.Bool:
		return llmjson.CoerceString(data), nil
	default:
		return data, nil
	}
}

func requireText(item map[string]any, key string) error {
	if llmjson.CoerceString(item[key]) == "" {
		return fmt.Errorf("missing %s", key)
	}
	return nil
}

func requireArray(item map[string]any, key string, minLen int) ([]any, error) {
	values, ok := item[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s is not an array", key)
	}
	if len(values) < minLen {
		return nil, fmt.Errorf("%s has %d entries, need at least %d", key, len(values), minLen)
	}
	return values, nil
}

func requireIndex(item map[string]any, key string, size int) error {
	value, ok := item[key].(float64)
	if !ok {
		return fmt.Errorf("%s is not a number", key)
	}
	if value != math.Trunc(value) {
		return fmt.Errorf("%s is not an index", key)
	}
	if value < 0 || value >= float64(size) {
		return errors.New(key + " is out of range")
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
