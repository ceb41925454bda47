package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/utils"
)

var (
	// ErrModelNotFound marks provider errors that mean the requested model does not exist.
	// The Chain advances to the next model on it and aborts on anything else.
	ErrModelNotFound = errors.New("model not found")
	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("empty response")
)

// Completer is the text-completion capability used for extraction and reranking.
// The request is a system instruction and a JSON payload; the response is raw text
// that callers must validate themselves.
type Completer interface {
	Complete(ctx context.Context, system, payload string) (string, error)
	Model() string
}

// ModelCompleter is implemented by providers that can target a named model.
type ModelCompleter interface {
	CompleteWithModel(ctx context.Context, model, system, payload string) (string, error)
	Provider() string
}

// Chain tries a fixed list of models in order.
type Chain struct {
	provider ModelCompleter
	models   []string
	timeout  time.Duration
	maxLog   int
	logger   *zap.Logger

	mu     sync.Mutex
	active string
}

const defaultMaxLogLength = 200

// NewChain builds a Chain over the provider. Blank model names are ignored.
func NewChain(provider ModelCompleter, models []string, timeout time.Duration, maxLogLength int, log *zap.Logger) (*Chain, error) {
	if provider == nil {
		return nil, errors.New("ai provider is required")
	}

	cleaned := make([]string, 0, len(models))
	for _, model := range models {
		if model = strings.TrimSpace(model); model != "" {
			cleaned = append(cleaned, model)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("at least one model is required")
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Chain{
		provider: provider,
		models:   cleaned,
		timeout:  timeout,
		maxLog:   maxLogLength,
		logger:   logger.WithCommonFields(log, provider.Provider(), ""),
	}, nil
}

// Complete sends the request to the first model that exists.
func (c *Chain) Complete(ctx context.Context, system, payload string) (string, error) {
	for _, model := range c.models {
		c.logger.Debug("capability request",
			zap.String(logger.FieldModel, model),
			zap.Int("payload_length", utf8.RuneCountInString(payload)),
			zap.String("payload_preview", utils.TruncateForLog(payload, c.maxLog)),
		)

		raw, err := c.call(ctx, model, system, payload)
		if err == nil {
			c.mu.Lock()
			c.active = model
			c.mu.Unlock()

			c.logger.Debug("capability response",
				zap.String(logger.FieldModel, model),
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", utils.TruncateForLog(raw, c.maxLog)),
			)
			return raw, nil
		}

		if errors.Is(err, ErrModelNotFound) {
			c.logger.Warn("model unavailable, trying next candidate",
				zap.String(logger.FieldModel, model),
				zap.Error(err),
			)
			continue
		}

		return "", fmt.Errorf("%s: %w", model, err)
	}

	return "", fmt.Errorf("no usable model among %s: %w", strings.Join(c.models, ", "), ErrModelNotFound)
}

func (c *Chain) call(ctx context.Context, model, system, payload string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.CompleteWithModel(ctx, model, system, payload)
}

// Model returns the last model that answered, or the first candidate before any call.
func (c *Chain) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" {
		return c.active
	}
	return c.models[0]
}

// Provider returns the provider name of the wrapped completer.
func (c *Chain) Provider() string {
	return c.provider.Provider()
}
