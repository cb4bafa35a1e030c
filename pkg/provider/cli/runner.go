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

// Package cli runs installed AI agent binaries as one-shot subprocesses.
// The prompt always travels over stdin, never argv, so it stays out of
// process listings and shell history.
package cli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/text"
	"github.com/rs/zerolog"
	tozderrors "gitlab.com/tozd/go/errors"
)

const (
	// maxStderrBytes bounds how much stderr is retained for diagnostics.
	maxStderrBytes = 64 * 1024

	// waitDelay is how long the process gets after its context is
	// cancelled before being killed outright.
	waitDelay = 5 * time.Second
)

// boundedBuffer keeps the first capacity bytes written and silently drops
// the rest. A runaway child cannot grow our memory by spamming stderr.
type boundedBuffer struct {
	buf bytes.Buffer
	cap int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	remaining := b.cap - b.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

// Runner invokes one agent binary. The zero value is not usable; construct
// with NewRunner.
type Runner struct {
	binary string
	args   []string
}

// NewRunner builds a runner for the given binary and fixed arguments. The
// prompt is not part of args; Run delivers it over stdin.
func NewRunner(binary string, args ...string) *Runner {
	return &Runner{binary: binary, args: args}
}

// LookPath reports whether the runner's binary is on PATH.
func (r *Runner) LookPath() error {
	_, err := exec.LookPath(r.binary)
	return err
}

// Run executes the binary once, feeding prompt on stdin and capturing
// stdout in full. The timeout covers the whole run. Failures map to the
// provider error taxonomy: deadline hits become TimeoutError, non-zero
// exits become ExecutionError carrying a redacted stderr tail.
func (r *Runner) Run(ctx context.Context, providerID, prompt string, timeout time.Duration) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binary, r.args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout bytes.Buffer
	stderr := &boundedBuffer{cap: maxStderrBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	zerolog.Ctx(ctx).Debug().
		Str("provider", providerID).
		Str("binary", r.binary).
		Int("prompt_bytes", len(prompt)).
		Msg("invoking CLI agent")

	err := cmd.Run()
	elapsed := time.Since(started)

	if err != nil {
		if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", tozderrors.WithStack(&provider.TimeoutError{
				Provider: providerID,
				Limit:    timeout.String(),
			})
		}

		detail := text.Truncate(text.RedactSecrets(strings.TrimSpace(stderr.buf.String())), 2048)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", tozderrors.WithStack(&provider.ExecutionError{
				Provider: providerID,
				ExitCode: exitErr.ExitCode(),
				Detail:   detail,
			})
		}
		return "", tozderrors.Errorf("running %s: %w", r.binary, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("provider", providerID).
		Dur("elapsed", elapsed).
		Int("output_bytes", stdout.Len()).
		Msg("CLI agent finished")

	return stdout.String(), nil
}
