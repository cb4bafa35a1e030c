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

package log

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger gives human-readable feedback on the console while
// mirroring everything into zerolog for --debug runs.
type UserLogger struct {
	log     zerolog.Logger
	spinner *pterm.SpinnerPrinter
}

// 🎯 NewUserLogger creates a user logger bound to the context's zerolog.
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 🚀 AnalysisStarted announces the run header.
func (u *UserLogger) AnalysisStarted(repo, providerName string) {
	heading := color.New(color.FgCyan, color.Bold)
	pterm.Println()
	heading.Printf("Analyzing %s", repo)
	fmt.Printf(" via %s\n", providerName)
	u.log.Info().Str("repo", repo).Str("provider", providerName).Msg("analysis started")
}

// 🔄 StageStarted spins while a stage is in flight.
func (u *UserLogger) StageStarted(stage, total int, name string) {
	text := fmt.Sprintf("Stage %d/%d: %s", stage, total, name)
	spinner, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		// Non-TTY output still deserves a progress line.
		pterm.Info.Println(text)
		spinner = nil
	}
	u.spinner = spinner
	u.log.Info().Int("stage", stage).Str("name", name).Msg("stage started")
}

// ✅ StageFinished resolves the spinner for a completed stage.
func (u *UserLogger) StageFinished(stage, total int, name string) {
	if u.spinner != nil {
		u.spinner.Success(fmt.Sprintf("Stage %d/%d: %s", stage, total, name))
		u.spinner = nil
	}
	u.log.Info().Int("stage", stage).Str("name", name).Msg("stage finished")
}

// ❌ StageFailed resolves the spinner for a failed stage.
func (u *UserLogger) StageFailed(stage, total int, name string, err error) {
	if u.spinner != nil {
		u.spinner.Fail(fmt.Sprintf("Stage %d/%d: %s", stage, total, name))
		u.spinner = nil
	}
	u.log.Error().Err(err).Int("stage", stage).Str("name", name).Msg("stage failed")
}

// 📝 Success prints a green confirmation line.
func (u *UserLogger) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Success.Println(msg)
	u.log.Info().Msg(msg)
}

// ℹ️ Info prints an informational line.
func (u *UserLogger) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Info.Println(msg)
	u.log.Info().Msg(msg)
}

// ⚠️ Warn prints a warning line.
func (u *UserLogger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Warning.Println(msg)
	u.log.Warn().Msg(msg)
}

// 🚨 Error prints a failure line.
func (u *UserLogger) Error(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Error.Println(msg)
	if err != nil {
		pterm.Error.Println(err)
	}
	u.log.Error().Err(err).Msg(msg)
}

// 🔑 AskPassphrase prompts for the vault passphrase with masked input.
func (u *UserLogger) AskPassphrase(prompt string) (string, error) {
	return pterm.DefaultInteractiveTextInput.
		WithMask("*").
		Show(prompt)
}
