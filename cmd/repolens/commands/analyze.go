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

package commands

import (
	"context"

	"github.com/hmoritama/repolens/cmd/repolens/opts"
	"github.com/hmoritama/repolens/pkg/gh"
	"github.com/hmoritama/repolens/pkg/pipeline"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/hmoritama/repolens/pkg/report"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <repository-url>",
		Short: "Run the five-stage analysis against a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunAnalyze(cmd.Context(), o, args[0])
		},
	}
}

// stageObserver bridges pipeline progress to the console spinner and the
// raw session log.
type stageObserver struct {
	o   *opts.RootOpts
	log *report.SessionLog
}

func (s *stageObserver) StageStarted(stage int, name string) {
	s.o.UserLogger.StageStarted(stage, pipeline.StageCount, name)
}

func (s *stageObserver) StageFinished(ex pipeline.Exchange) {
	s.o.UserLogger.StageFinished(ex.Stage, pipeline.StageCount, ex.Name)
	if _, err := s.log.Record(ex); err != nil {
		s.o.UserLogger.Warn("could not write session log: %v", err)
	}
}

// RunAnalyze drives one full analysis: validate, probe, select a provider,
// run the pipeline, and write the document.
func RunAnalyze(ctx context.Context, o *opts.RootOpts, rawURL string) error {
	r, err := ref.Parse(rawURL)
	if err != nil {
		return err
	}

	// Advisory reachability check before spending provider time.
	result := gh.NewProber().Probe(ctx, r)
	switch result.Access {
	case gh.AccessNotFound:
		return errors.Errorf("repository %s is not reachable: %s", r.Slug(), result.Hint)
	case gh.AccessUnknown:
		o.UserLogger.Warn("%s", result.Hint)
	}

	selector := newSelector(o)
	p, err := selector.Select(ctx, o.ProviderName())
	if err != nil {
		return err
	}

	o.UserLogger.AnalysisStarted(r.Slug(), p.Name())

	observer := &stageObserver{
		o:   o,
		log: report.NewSessionLog(o.Config.LogDir, r.Name),
	}
	outputs, err := pipeline.Run(ctx, p, r, pipeline.Options{
		StageTimeout:   o.Config.Timeout(),
		MaxPromptBytes: o.Config.MaxPromptBytes,
		Observer:       observer,
	})
	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			o.UserLogger.StageFailed(stageErr.Stage, pipeline.StageCount, stageErr.Name, stageErr.Err)
		}
		return err
	}

	analysis, err := report.Assemble(r, outputs)
	if err != nil {
		return errors.Errorf("assembling analysis: %w", err)
	}

	path, err := report.WriteDocument(analysis, o.Config.OutputDir)
	if err != nil {
		return errors.Errorf("writing analysis document: %w", err)
	}

	o.UserLogger.Success("Analysis written to %s", path)
	return nil
}
