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

// Package claude adapts the Claude Code CLI as an analysis provider.
package claude

import (
	"context"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/provider/cli"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register(provider.IDClaude, func(ctx context.Context) (provider.Provider, error) {
		return New(), nil
	})
}

// Provider runs the claude binary in print mode, one prompt per process.
type Provider struct {
	runner *cli.Runner
}

// New creates a Claude CLI provider.
func New() *Provider {
	// -p prints the response for a single prompt and exits instead of
	// opening an interactive session. The prompt goes in on stdin.
	return &Provider{runner: cli.NewRunner("claude", "-p")}
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return provider.IDClaude
}

// Available reports whether the claude binary is installed on PATH.
func (p *Provider) Available(ctx context.Context) error {
	if err := p.runner.LookPath(); err != nil {
		return errors.WithStack(&provider.UnavailableError{
			Provider: provider.IDClaude,
			Reason:   "claude binary not found on PATH",
			Hint:     "install Claude Code and run 'claude auth' once",
		})
	}
	return nil
}

// Invoke implements provider.Provider.
func (p *Provider) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	return p.runner.Run(ctx, provider.IDClaude, prompt, timeout)
}

var _ provider.Provider = (*Provider)(nil)
