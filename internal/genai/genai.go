// Package genai provides the answer engine for document question-answering
// using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Answer engine defaults, matching the assistant's tuned behavior.
const (
	// DefaultModel is the chat model used for document answers.
	DefaultModel = openai.ChatModelGPT3_5Turbo
	// DefaultTemperature keeps answers grounded in the supplied context.
	DefaultTemperature = 0.4
	// DefaultMaxTokens bounds answer length.
	DefaultMaxTokens = 500
	// systemPrompt frames every answer-engine call.
	systemPrompt = "You are a helpful financial assistant."
)

// ClientInterface defines the answer-engine operations the conversation flow
// depends on, allowing test substitution.
type ClientInterface interface {
	// Answer returns a natural-language answer to question given the supplied
	// document context.
	Answer(ctx context.Context, question, docContext string) (string, error)
}

// chatService defines the minimal chat-completion surface used by Client.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option configures GenAI client construction.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service for answering questions
// against an extracted document context.
type Client struct {
	chat  chatService
	model openai.ChatModel
}

// NewClient initializes a new GenAI client from the provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		slog.Error("genai.NewClient: API key not set")
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: client created", "model", cfg.Model)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// Answer asks the model the given question with the document context inlined.
// The call is stateless; failures are returned to the caller unwrapped into a
// single error value.
func (c *Client) Answer(ctx context.Context, question, docContext string) (string, error) {
	slog.Debug("genai.Answer: invoking chat completion", "model", c.model, "context_len", len(docContext))

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", docContext, question)
	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(DefaultTemperature),
		MaxTokens:   openai.Int(DefaultMaxTokens),
	})
	if err != nil {
		slog.Error("genai.Answer: chat completion failed", "error", err)
		return "", fmt.Errorf("answer engine call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		slog.Error("genai.Answer: no choices returned")
		return "", fmt.Errorf("answer engine returned no choices")
	}

	answer := strings.TrimSpace(completion.Choices[0].Message.Content)
	slog.Debug("genai.Answer: completion succeeded", "answer_len", len(answer))
	return answer, nil
}
