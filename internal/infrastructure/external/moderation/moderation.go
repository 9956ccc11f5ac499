// Package moderation screens group names and secrets with a chat-completion
// model before a group is created.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/pkg/circuitbreaker"
	"github.com/leetgroups/groupboard/pkg/retry"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config contains configuration for the moderation client.
type Config struct {
	// APIKey authenticates against the completion API.
	APIKey string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// Model is the chat model to ask.
	Model string

	// OnBreakerStateChange is called on circuit transitions (optional).
	OnBreakerStateChange func(name string, from, to circuitbreaker.State)

	// Logger for structured logging.
	Logger *slog.Logger
}

// Client asks a chat model whether a group name is appropriate.
type Client struct {
	api     *openai.Client
	model   string
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	logger  *slog.Logger
}

// New creates a moderation client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("moderation: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger.With("component", "moderation")
	logger.Info("initializing moderation client", "model", cfg.Model)

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		breaker: circuitbreaker.ModerationBreaker(cfg.OnBreakerStateChange),
		retrier: retry.ModerationRetrier(retry.WithRetryIf(transient)),
		logger:  logger,
	}, nil
}

// Prompt builds the question put to the model.
func Prompt(name, secret string) string {
	return fmt.Sprintf(`Is the group name "%s %s" appropriate? Return "yes" if it is appropriate, otherwise return "no". Do not include any additional text or explanations.`, name, secret)
}

// Check returns nil when the model answers "yes". Any other answer is
// shared.ErrContentRejected; a failed call is shared.ErrModerationUnavailable.
func (c *Client) Check(ctx context.Context, name, secret string) error {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(name, secret)},
		},
	}

	answer, err := circuitbreaker.Call(ctx, c.breaker, func(ctx context.Context) (string, error) {
		var answer string
		err := c.retrier.Do(ctx, func(ctx context.Context) error {
			resp, err := c.api.CreateChatCompletion(ctx, req)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return errors.New("no choices returned")
			}
			answer = resp.Choices[0].Message.Content
			return nil
		})
		return answer, err
	})
	if err != nil {
		c.logger.Error("moderation call failed", "error", err)
		return shared.WrapError("moderation", "Check", shared.ErrModerationUnavailable,
			"moderation call failed", err)
	}

	verdict := strings.ToLower(strings.TrimSpace(answer))
	verdict = strings.TrimRight(verdict, ".!")
	if verdict != "yes" {
		c.logger.Info("group name rejected", "group", name, "answer", answer)
		return shared.ErrContentRejected
	}
	return nil
}

// transient reports whether a completion error is worth another attempt.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == 0 {
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

// Noop approves everything. Used when moderation is disabled.
type Noop struct{}

// Check always returns nil.
func (Noop) Check(context.Context, string, string) error { return nil }
