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

// Package gemini adapts the Gemini CLI as an analysis provider.
package gemini

import (
	"context"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/provider/cli"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register(provider.IDGemini, func(ctx context.Context) (provider.Provider, error) {
		return New(), nil
	})
}

// Provider runs the gemini binary non-interactively, prompt on stdin.
type Provider struct {
	runner *cli.Runner
}

// New creates a Gemini CLI provider.
func New() *Provider {
	return &Provider{runner: cli.NewRunner("gemini")}
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return provider.IDGemini
}

// Available reports whether the gemini binary is installed on PATH.
func (p *Provider) Available(ctx context.Context) error {
	if err := p.runner.LookPath(); err != nil {
		return errors.WithStack(&provider.UnavailableError{
			Provider: provider.IDGemini,
			Reason:   "gemini binary not found on PATH",
			Hint:     "install the Gemini CLI with 'npm install -g @google/gemini-cli'",
		})
	}
	return nil
}

// Invoke implements provider.Provider.
func (p *Provider) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	return p.runner.Run(ctx, provider.IDGemini, prompt, timeout)
}

var _ provider.Provider = (*Provider)(nil)
