// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// maxLLMErrorBodyBytes bounds how much of an error response this client
// reads back, mirroring the bounded error-body reads the rest of the
// corpus's HTTP clients use against unbounded upstream responses.
const maxLLMErrorBodyBytes = 64 * 1024

// HTTPLLMClient implements LLMClient against an OpenAI-compatible chat
// completions endpoint, the shape every major locally-hosted or hosted
// text model server (vLLM, Ollama, OpenAI itself) exposes.
type HTTPLLMClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPLLMClient builds a client against baseURL (e.g.
// "https://api.openai.com/v1"), authenticating with apiKey as a bearer
// token.
func NewHTTPLLMClient(baseURL, apiKey string) *HTTPLLMClient {
	return &HTTPLLMClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts a single system+user turn and returns the first
// choice's message content.
func (c *HTTPLLMClient) Complete(ctx context.Context, model, systemText, prompt string, maxTokens int) (string, error) {
	reqBody, err := json.Marshal(chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemText},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("moderation: encode chat completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("moderation: build chat completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("moderation: chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLLMErrorBodyBytes))
		return "", fmt.Errorf("moderation: chat completion returned %d: %s", resp.StatusCode, body)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("moderation: decode chat completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("moderation: chat completion returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
