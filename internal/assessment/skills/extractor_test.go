package skills

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.calls++
	s.lastPrompt = req.Prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const description = "We are hiring a frontend engineer with strong React and TypeScript experience to build our dashboard."

func TestExtractorExtract(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"title": "Frontend Engineer",
		"experience_level": "Senior",
		"skills": {"technical": ["React", "TypeScript"], "tools": "Webpack"},
		"assessment_recommendations": {"difficulty": "hard", "suggested_duration_minutes": "90"}
	}` + "\n```"}

	extractor := NewExtractor(stub, zap.NewNop(), Options{})
	profile, err := extractor.Extract(context.Background(), description)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.calls != 1 {
		t.Fatalf("expected exactly one generation call, got %d", stub.calls)
	}
	if !strings.Contains(stub.lastPrompt, description) {
		t.Fatalf("expected description in prompt")
	}

	if profile.Title != "Frontend Engineer" || profile.ExperienceLevel != assessment.Senior {
		t.Fatalf("unexpected profile header: %+v", profile)
	}
	if !reflect.DeepEqual(profile.Skills.Technical, []string{"React", "TypeScript"}) {
		t.Fatalf("unexpected technical skills: %v", profile.Skills.Technical)
	}
	if !reflect.DeepEqual(profile.Skills.Tools, []string{"Webpack"}) {
		t.Fatalf("expected single tool coerced to list, got %v", profile.Skills.Tools)
	}
	if profile.Skills.Soft == nil || profile.Responsibilities == nil || profile.AssessmentRecommendations.CodingTopics == nil {
		t.Fatal("expected absent arrays to be normalized to empty slices")
	}
	rec := profile.AssessmentRecommendations
	if rec.Difficulty != assessment.Hard || rec.SuggestedDurationMinutes != 90 {
		t.Fatalf("unexpected recommendations: %+v", rec)
	}
}

func TestExtractorRejectsShortDescriptionWithoutCalling(t *testing.T) {
	stub := &stubGenerator{response: `{}`}
	extractor := NewExtractor(stub, nil, Options{})

	_, err := extractor.Extract(context.Background(), "  Go developer wanted  ")
	if !assessment.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no generation call, got %d", stub.calls)
	}
}

func TestExtractorRejectsOversizedDescription(t *testing.T) {
	stub := &stubGenerator{response: `{}`}
	extractor := NewExtractor(stub, nil, Options{MaxDescriptionLength: 60})

	_, err := extractor.Extract(context.Background(), strings.Repeat("a", 61))
	if !assessment.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no generation call, got %d", stub.calls)
	}
}

func TestExtractorParseFailures(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{name: "prose", response: "I'm sorry, I can't help with that."},
		{name: "truncated", response: `{"title": "Backend`},
		{name: "array", response: `["Go"]`},
		{name: "no identifying fields", response: `{"responsibilities": ["ship"]}`},
		{name: "wrong shape", response: `{"title": "X", "skills": {"technical": [{"name": "Go"}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extractor := NewExtractor(&stubGenerator{response: tc.response}, nil, Options{})
			profile, err := extractor.Extract(context.Background(), description)
			if !assessment.IsGenerationParse(err) {
				t.Fatalf("expected GenerationParseError, got %v", err)
			}
			if profile != nil {
				t.Fatalf("expected no partial profile, got %+v", profile)
			}
		})
	}
}

func TestExtractorPropagatesCallErrors(t *testing.T) {
	limited := &quota.RateLimitedError{}
	extractor := NewExtractor(&stubGenerator{err: limited}, nil, Options{})

	_, err := extractor.Extract(context.Background(), description)
	var target *quota.RateLimitedError
	if !errors.As(err, &target) {
		t.Fatalf("expected rate limited error to propagate, got %v", err)
	}
	if assessment.IsGenerationParse(err) {
		t.Fatal("call failures must not be reported as parse errors")
	}
}
