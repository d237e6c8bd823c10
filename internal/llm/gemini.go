// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend calls Google's Gemini API.
type GeminiBackend struct {
	client *genai.Client
}

// NewGemini creates a Gemini client authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

// Name identifies the backend in logs.
func (g *GeminiBackend) Name() string { return "gemini" }

// Complete generates content for one user prompt.
func (g *GeminiBackend) Complete(ctx context.Context, r Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(r.Temperature)),
	}
	if r.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}
	if r.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(r.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, r.Model, genai.Text(r.User), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.Code, err)
		}
		return "", &TransientError{Err: fmt.Errorf("GenAI generate failed: %w", err)}
	}

	text := resp.Text()
	if text == "" {
		return "", &PermanentError{Err: errors.New("GenAI returned no text")}
	}
	return text, nil
}
