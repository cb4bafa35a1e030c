// Copyright 2025 Hiro Moritama
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai adapts the OpenAI chat completion API as an analysis
// provider. The API key comes from the encrypted credential vault, never
// from the environment.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/text"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"gitlab.com/tozd/go/errors"
)

const systemPrompt = "You are a senior software architect producing structured repository analyses. Answer in the exact format the prompt asks for."

// KeySource supplies the API key on demand. The vault-backed implementation
// is wired in by the command layer; tests substitute a literal.
type KeySource interface {
	// APIKey returns the decrypted key, or an error when none is stored.
	APIKey(ctx context.Context) ([]byte, error)

	// HasKey reports whether a key is stored without decrypting it, so
	// availability probes never prompt for a passphrase.
	HasKey(ctx context.Context) (bool, error)
}

// Provider calls the OpenAI chat completion endpoint.
type Provider struct {
	keys    KeySource
	model   string
	baseURL string
}

// Option configures a Provider.
type Option func(*Provider)

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the client at an alternate endpoint. Tests use this
// with an httptest server.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// New creates an OpenAI API provider backed by the given key source.
func New(keys KeySource, opts ...Option) *Provider {
	p := &Provider{keys: keys, model: openai.GPT4o}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return provider.IDOpenAI
}

// Available reports whether an API key is stored in the vault. It only
// checks for the record's presence; decryption is deferred to Invoke so
// listing providers never asks for a passphrase.
func (p *Provider) Available(ctx context.Context) error {
	ok, err := p.keys.HasKey(ctx)
	if err != nil {
		return errors.Errorf("checking stored API key: %w", err)
	}
	if !ok {
		return errors.WithStack(&provider.UnavailableError{
			Provider: provider.IDOpenAI,
			Reason:   "no API key stored",
			Hint:     "run 'repolens secret set openai' to store one",
		})
	}
	return nil
}

// Invoke implements provider.Provider.
func (p *Provider) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	key, err := p.keys.APIKey(ctx)
	if err != nil {
		return "", errors.Errorf("loading API key: %w", err)
	}

	cfg := openai.DefaultConfig(string(key))
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	zerolog.Ctx(ctx).Debug().
		Str("provider", provider.IDOpenAI).
		Str("model", p.model).
		Int("prompt_bytes", len(prompt)).
		Msg("calling chat completion API")

	resp, err := client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", p.classify(err, timeout)
	}

	if len(resp.Choices) == 0 {
		return "", errors.WithStack(&provider.ExecutionError{
			Provider: provider.IDOpenAI,
			Detail:   "API returned no choices",
		})
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors onto the provider error taxonomy. API error
// messages pass through redaction so an echoed key never reaches logs.
func (p *Provider) classify(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(&provider.TimeoutError{
			Provider: provider.IDOpenAI,
			Limit:    timeout.String(),
		})
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		detail := fmt.Sprintf("HTTP %d: %s", apiErr.HTTPStatusCode, text.RedactSecrets(strings.TrimSpace(apiErr.Message)))
		return errors.WithStack(&provider.ExecutionError{
			Provider: provider.IDOpenAI,
			Detail:   detail,
		})
	}

	// Anything else is transport-level: DNS, TLS, refused connections.
	return errors.WithStack(&provider.UnavailableError{
		Provider: provider.IDOpenAI,
		Reason:   text.RedactSecrets(err.Error()),
	})
}

var _ provider.Provider = (*Provider)(nil)
