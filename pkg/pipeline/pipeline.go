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

// Package pipeline drives the five-stage repository analysis. Stages run
// strictly in order, each prompt carrying all prior stage outputs, and any
// stage failure aborts the whole run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/hmoritama/repolens/pkg/text"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// StageContext maps stage number (1-based) to that stage's extracted
// output. It grows monotonically over a run and is discarded afterwards.
type StageContext map[int]string

// StageError wraps a provider failure with the stage it happened in.
type StageError struct {
	Stage int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Stage, e.Name, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Exchange is the raw material of one stage invocation, handed to the
// observer for session logging before any extraction.
type Exchange struct {
	Stage     int
	Name      string
	Prompt    string
	RawOutput string
	Elapsed   time.Duration
}

// Observer receives per-stage progress. Implementations drive spinners and
// session logs; a nil observer is valid and means no reporting.
type Observer interface {
	// StageStarted fires before the provider is invoked.
	StageStarted(stage int, name string)

	// StageFinished fires after a successful invocation with the raw
	// exchange. Errors from the observer do not affect the run.
	StageFinished(ex Exchange)
}

// Options tune a pipeline run.
type Options struct {
	// StageTimeout bounds each provider invocation.
	StageTimeout time.Duration

	// MaxPromptBytes bounds the combined prompt size. Prior outputs are
	// head-truncated with explicit markers to fit. Zero means no bound.
	MaxPromptBytes int

	// Observer receives progress callbacks. May be nil.
	Observer Observer
}

// Run executes all five stages against p for the given repository. On
// success the returned StageContext holds exactly StageCount entries. On
// failure the error is a StageError naming the failing stage, and no
// partial context is returned.
func Run(ctx context.Context, p provider.Provider, r ref.Reference, opts Options) (StageContext, error) {
	logger := zerolog.Ctx(ctx)
	outputs := make(StageContext, StageCount)

	for stage := 1; stage <= StageCount; stage++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("analysis interrupted: %w", err)
		}

		name := StageName(stage)
		prompt := buildPrompt(stage, r, outputs, opts.MaxPromptBytes)

		if opts.Observer != nil {
			opts.Observer.StageStarted(stage, name)
		}

		logger.Debug().
			Int("stage", stage).
			Str("name", name).
			Str("provider", p.Name()).
			Int("prompt_bytes", len(prompt)).
			Msg("running analysis stage")

		started := time.Now()
		raw, err := p.Invoke(ctx, prompt, opts.StageTimeout)
		elapsed := time.Since(started)
		if err != nil {
			return nil, errors.WithStack(&StageError{Stage: stage, Name: name, Err: err})
		}

		if opts.Observer != nil {
			opts.Observer.StageFinished(Exchange{
				Stage:     stage,
				Name:      name,
				Prompt:    prompt,
				RawOutput: raw,
				Elapsed:   elapsed,
			})
		}

		outputs[stage] = text.ExtractPayload(raw)
	}

	return outputs, nil
}
