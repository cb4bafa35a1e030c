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

package provider

import (
	"context"
	"time"
)

// 🆔 Well-known provider IDs, in preference order: local CLI agents first,
// the metered HTTP API last.
const (
	IDClaude = "claude"
	IDGemini = "gemini"
	IDOpenAI = "openai"
)

// Kind distinguishes how a provider is invoked.
type Kind string

const (
	// KindCLI providers run an installed command-line agent as a subprocess.
	KindCLI Kind = "cli"
	// KindAPI providers call a hosted HTTP endpoint.
	KindAPI Kind = "api"
)

// 📇 Meta describes a provider independent of any live instance, so the
// catalog can be listed without constructing or probing anything.
type Meta struct {
	ID             string
	DisplayName    string
	Kind           Kind
	RequiresSecret bool
}

// Catalog returns the known providers in preference order.
func Catalog() []Meta {
	return []Meta{
		{ID: IDClaude, DisplayName: "Claude CLI", Kind: KindCLI},
		{ID: IDGemini, DisplayName: "Gemini CLI", Kind: KindCLI},
		{ID: IDOpenAI, DisplayName: "OpenAI API", Kind: KindAPI, RequiresSecret: true},
	}
}

// 🔌 Provider is one interchangeable analysis backend. Implementations
// wrap either a local CLI agent or a hosted API behind the same two calls.
type Provider interface {
	// 🆔 Name returns the provider's catalog ID
	Name() string

	// 🔍 Available checks whether the provider can be invoked right now.
	// A nil return means Invoke is expected to work; a non-nil return is
	// an UnavailableError explaining what is missing.
	Available(ctx context.Context) error

	// 🚀 Invoke sends one prompt and returns the model's raw output.
	// The timeout bounds the whole call, including process startup or
	// HTTP round trips.
	Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

// 🏭 Factory creates a new provider instance
type Factory func(ctx context.Context) (Provider, error)

var (
	// 🗺️ factories maps provider IDs to their factories
	factories = make(map[string]Factory)
)

// 📝 Register registers a provider factory under its catalog ID
func Register(id string, factory Factory) {
	factories[id] = factory
}

// 🎯 Get returns the factory for id, or nil if none is registered
func Get(id string) Factory {
	return factories[id]
}
