// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend calls the chat completions API through the official SDK.
// BaseURL lets it talk to any OpenAI-compatible server.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAI returns a backend authenticated with apiKey. The SDK's own
// retries are disabled; the gateway owns the retry policy.
func NewOpenAI(apiKey, baseURL string, extra ...option.RequestOption) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	return &OpenAIBackend{client: openai.NewClient(opts...)}
}

// Name identifies the backend in logs.
func (o *OpenAIBackend) Name() string { return "openai" }

// Complete runs one chat completion with a system and a user message.
func (o *OpenAIBackend) Complete(ctx context.Context, r Request) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if r.System != "" {
		msgs = append(msgs, openai.SystemMessage(r.System))
	}
	msgs = append(msgs, openai.UserMessage(r.User))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(r.Model),
		Messages:    msgs,
		Temperature: openai.Float(r.Temperature),
	}
	if r.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(r.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.StatusCode, err)
		}
		if errors.Is(err, context.Canceled) {
			return "", &PermanentError{Err: err}
		}
		return "", &TransientError{Err: fmt.Errorf("calling OpenAI API: %w", err)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &PermanentError{Err: errors.New("openai: empty choices")}
	}
	return resp.Choices[0].Message.Content, nil
}
