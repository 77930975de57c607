package assessment

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestSkillProfileNormalizeFillsEveryArray(t *testing.T) {
	var profile SkillProfile
	if err := json.Unmarshal([]byte(`{"title":" Go Developer ","experience_level":"principal","skills":{"technical":["Go"]}}`), &profile); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	profile.Normalize()

	if profile.Title != "Go Developer" {
		t.Fatalf("unexpected title: %q", profile.Title)
	}
	if profile.ExperienceLevel != Mid {
		t.Fatalf("expected unknown level to default to mid, got %q", profile.ExperienceLevel)
	}
	if profile.AssessmentRecommendations.Difficulty != Medium {
		t.Fatalf("expected medium difficulty, got %q", profile.AssessmentRecommendations.Difficulty)
	}
	if profile.AssessmentRecommendations.SuggestedDurationMinutes != DefaultDurationMinutes {
		t.Fatalf("unexpected duration: %d", profile.AssessmentRecommendations.SuggestedDurationMinutes)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Fatalf("normalized profile must not contain null arrays: %s", data)
	}
}

func TestSkillsAllDeduplicates(t *testing.T) {
	skills := Skills{
		Technical:       []string{"Go", "SQL"},
		Tools:           []string{"Docker", "go"},
		DomainKnowledge: []string{"Payments"},
		Soft:            []string{"Communication"},
	}

	want := []string{"Go", "SQL", "Docker", "Payments", "Communication"}
	if got := skills.All(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestQuestionJSONKeepsVariantContent(t *testing.T) {
	questions := []Question{
		{ID: "mcq-1", Type: MCQ, Difficulty: Easy, Marks: 5, Order: 1, MCQ: &MCQContent{Question: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2}},
		{ID: "coding-1", Type: Coding, Difficulty: Hard, SkillTags: []string{"Go"}, Marks: 25, Order: 2, Coding: &CodingContent{ProblemStatement: "Sum", StarterCode: map[string]string{"go": "package main"}}},
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"content":{"question":"Q?"`) {
		t.Fatalf("expected mcq content under content key: %s", data)
	}
	if !strings.Contains(string(data), `"skill_tags":[]`) {
		t.Fatalf("expected empty skill tags array: %s", data)
	}

	var decoded []Question
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded[0].MCQ == nil || decoded[0].MCQ.CorrectAnswer != 2 || decoded[0].Coding != nil {
		t.Fatalf("unexpected mcq variant: %+v", decoded[0])
	}
	if decoded[1].Coding == nil || decoded[1].Coding.StarterCode["go"] != "package main" {
		t.Fatalf("unexpected coding variant: %+v", decoded[1])
	}
	if decoded[1].Prompt() != "Sum" || !decoded[1].HasContent() {
		t.Fatalf("unexpected coding prompt: %q", decoded[1].Prompt())
	}
}

func TestQuestionUnmarshalRejectsUnknownType(t *testing.T) {
	var q Question
	err := json.Unmarshal([]byte(`{"id":"x-1","type":"essay","content":{"question":"?"}}`), &q)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}

	if err := json.Unmarshal([]byte(`{"id":"mcq-1","type":"mcq"}`), &q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.HasContent() {
		t.Fatal("question without content must report no content")
	}
}

func TestGenerationConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     GenerationConfig
		wantErr bool
	}{
		{name: "valid", cfg: GenerationConfig{MCQCount: 1}},
		{name: "negative", cfg: GenerationConfig{MCQCount: 1, CodingCount: -1}, wantErr: true},
		{name: "above cap", cfg: GenerationConfig{SubjectiveCount: MaxQuestionsPerType + 1}, wantErr: true},
		{name: "nothing requested", cfg: GenerationConfig{}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestQuestionTypeMarks(t *testing.T) {
	if MCQ.Marks() != 5 || Subjective.Marks() != 15 || Coding.Marks() != 25 || QuestionType("essay").Marks() != 0 {
		t.Fatal("unexpected marks per type")
	}
}
