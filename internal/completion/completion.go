// Package completion forwards free-text prompts to an OpenAI-compatible
// chat completion API.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// Instruction is sent as the system message ahead of every prompt.
const Instruction = "You are MathMinds Bot, a friendly assistant for a math community on Discord. " +
	"Answer clearly and concisely, show the key steps for math problems, " +
	"write powers as base^exponent and square roots as sqrt(x), and mark emphasis as ··text··."

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("completion not configured")

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAI is a Completer backed by the chat completions endpoint. Requests
// are throttled by a token bucket and never retried.
type OpenAI struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// Options configures NewOpenAI.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	RPS     float64
	Timeout time.Duration
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(opts Options) *OpenAI {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 1
	}

	reqOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(reqOpts...)

	return &OpenAI{
		client:  &client,
		model:   opts.Model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Complete sends prompt with the fixed instruction and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for completion slot: %w", err)
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Instruction),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion request failed (status=%d): %s", apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("completion returned empty text")
	}
	return text, nil
}

// Disabled is the Completer used when no API key is configured.
type Disabled struct{}

// Complete always fails with ErrDisabled.
func (Disabled) Complete(context.Context, string) (string, error) {
	return "", ErrDisabled
}
