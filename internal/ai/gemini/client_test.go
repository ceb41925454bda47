package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/skillmatch/internal/ai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model  string
	config *genai.GenerateContentConfig
	text   string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.text = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestCompleteWithModelSendsSystemInstruction(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"skills": []`, `}`)}
	g := &Generator{models: models}

	out, err := g.CompleteWithModel(context.Background(), "gemini-pro", "system rules", `{"chunks": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "{\"skills\": []\n}" {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", models.model)
	}
	if models.config == nil || models.config.SystemInstruction == nil {
		t.Fatal("expected system instruction to be set")
	}
	if got := models.config.SystemInstruction.Parts[0].Text; got != "system rules" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if models.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", models.config.ResponseMIMEType)
	}
	if models.text != `{"chunks": []}` {
		t.Fatalf("unexpected payload: %q", models.text)
	}
}

func TestCompleteWithModelMapsNotFound(t *testing.T) {
	g := &Generator{models: &fakeModels{err: genai.APIError{Code: http.StatusNotFound, Status: "NOT_FOUND"}}}

	_, err := g.CompleteWithModel(context.Background(), "gemini-missing", "s", "p")
	if !errors.Is(err, ai.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestCompleteWithModelKeepsOtherErrors(t *testing.T) {
	g := &Generator{models: &fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}}}

	_, err := g.CompleteWithModel(context.Background(), "gemini-pro", "s", "p")
	if err == nil || errors.Is(err, ai.ErrModelNotFound) {
		t.Fatalf("expected a plain error, got %v", err)
	}
}

func TestCompleteWithModelEmpty(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: textResponse("  ")}}

	if _, err := g.CompleteWithModel(context.Background(), "gemini-pro", "s", "p"); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	if _, err := g.CompleteWithModel(context.Background(), "gemini-pro", "s", "  "); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
