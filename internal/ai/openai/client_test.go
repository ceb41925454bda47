package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spigell/skillmatch/internal/ai"
)

type fakeChat struct {
	resp    openai.ChatCompletionResponse
	err     error
	request openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.request = req
	return f.resp, f.err
}

func TestCompleteWithModel(t *testing.T) {
	chat := &fakeChat{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Content: ` {"matches": []} `},
	}}}}
	g := &Generator{api: chat}

	out, err := g.CompleteWithModel(context.Background(), "gpt-4o-mini", "rules", `{"jobs": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"matches": []}` {
		t.Fatalf("unexpected output: %q", out)
	}

	req := chat.request
	if req.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[0].Content != "rules" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected json response format, got %+v", req.ResponseFormat)
	}
}

func TestCompleteWithModelNotFound(t *testing.T) {
	cases := map[string]error{
		"code":   &openai.APIError{Code: "model_not_found", HTTPStatusCode: http.StatusBadRequest},
		"status": &openai.APIError{HTTPStatusCode: http.StatusNotFound},
	}

	for name, apiErr := range cases {
		t.Run(name, func(t *testing.T) {
			g := &Generator{api: &fakeChat{err: apiErr}}
			if _, err := g.CompleteWithModel(context.Background(), "gpt-x", "s", "p"); !errors.Is(err, ai.ErrModelNotFound) {
				t.Fatalf("expected ErrModelNotFound, got %v", err)
			}
		})
	}
}

func TestCompleteWithModelOtherErrors(t *testing.T) {
	g := &Generator{api: &fakeChat{err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}}}
	_, err := g.CompleteWithModel(context.Background(), "gpt-x", "s", "p")
	if err == nil || errors.Is(err, ai.ErrModelNotFound) {
		t.Fatalf("expected plain error, got %v", err)
	}

	g = &Generator{api: &fakeChat{}}
	if _, err := g.CompleteWithModel(context.Background(), "gpt-x", "s", "p"); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(" ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewGenerator("sk-test", "http://localhost:8080/v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
