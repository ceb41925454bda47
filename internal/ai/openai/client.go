package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spigell/skillmatch/internal/ai"
)

const (
	// DefaultModel is tried first when no model list is configured.
	DefaultModel = openai.GPT4oMini

	providerName = "openai"
)

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator answers system + payload requests through the chat completions API.
type Generator struct {
	api chatAPI
}

// NewGenerator creates a Generator. baseURL may point at any OpenAI-compatible endpoint.
func NewGenerator(apiKey, baseURL string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Generator{api: openai.NewClientWithConfig(cfg)}, nil
}

// Provider implements ai.ModelCompleter.
func (g *Generator) Provider() string { return providerName }

// CompleteWithModel sends a JSON-mode chat completion and returns the first choice.
func (g *Generator) CompleteWithModel(ctx context.Context, model, system, payload string) (string, error) {
	if g == nil || g.api == nil {
		return "", errors.New("openai generator is not initialized")
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errors.New("payload must not be empty")
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: payload})

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if isModelNotFound(err) {
			return "", fmt.Errorf("chat completion: %w: %v", ai.ErrModelNotFound, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", ai.ErrEmptyResponse
	}

	return output, nil
}

func isModelNotFound(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
		return true
	}
	return apiErr.HTTPStatusCode == http.StatusNotFound
}
