package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-assessor/internal/ai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCall
	resp  *genai.GenerateContentResponse
	err   error
}

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorGenerateJoinsParts(t *testing.T) {
	models := &fakeModels{resp: textResponse(" first ", "", "second")}
	g := newGenerator(models, Options{Model: "gemini-pro"}, zap.NewNop())

	output, err := g.Generate(context.Background(), ai.Request{Prompt: "  message  "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %s", call.model)
	}
	if call.config != nil {
		t.Fatalf("expected no config without sampling parameters, got %+v", call.config)
	}
	if got := call.contents[0].Parts[0].Text; got != "message" {
		t.Fatalf("unexpected prompt text: %q", got)
	}
}

func TestGeneratorAppliesSamplingParameters(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	g := newGenerator(models, Options{Temperature: genai.Ptr[float32](0.7), MaxOutputTokens: 2048}, zap.NewNop())

	if _, err := g.Generate(context.Background(), ai.Request{Prompt: "defaults"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Generate(context.Background(), ai.Request{Prompt: "override", Temperature: genai.Ptr[float32](0.2), MaxOutputTokens: 512}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := models.calls[0].config
	if first == nil || *first.Temperature != 0.7 || first.MaxOutputTokens != 2048 {
		t.Fatalf("unexpected default config: %+v", first)
	}
	second := models.calls[1].config
	if second == nil || *second.Temperature != 0.2 || second.MaxOutputTokens != 512 {
		t.Fatalf("unexpected override config: %+v", second)
	}

	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %s", g.Model())
	}
}

func TestGeneratorErrors(t *testing.T) {
	apiErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}

	cases := []struct {
		name   string
		models *fakeModels
		prompt string
	}{
		{name: "empty prompt", models: &fakeModels{resp: textResponse("ok")}, prompt: "  "},
		{name: "api error", models: &fakeModels{err: apiErr}, prompt: "msg"},
		{name: "empty response", models: &fakeModels{resp: textResponse("  ")}, prompt: "msg"},
		{name: "nil response", models: &fakeModels{}, prompt: "msg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(tc.models, Options{}, nil)
			if _, err := g.Generate(context.Background(), ai.Request{Prompt: tc.prompt}); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	var nilGen *Generator
	if _, err := nilGen.Generate(context.Background(), ai.Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error from nil generator")
	}
}

func TestGeneratorWrapsAPIError(t *testing.T) {
	apiErr := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	g := newGenerator(&fakeModels{err: apiErr}, Options{}, nil)

	_, err := g.Generate(context.Background(), ai.Request{Prompt: "msg"})
	var target genai.APIError
	if !errors.As(err, &target) || target.Code != http.StatusTooManyRequests {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
}
