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

package config

import (
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// Config holds all tunables for an analysis run.
type Config struct {
	// Provider is the requested analysis provider: "auto" or a specific
	// provider name. "auto" probes the fixed preference order.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Model is the chat model used by the HTTP API provider.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// TimeoutSeconds bounds each single provider invocation (one stage).
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`

	// MaxPromptBytes bounds the combined prompt size per stage. Earlier
	// stage outputs are truncated (with markers) once this is exceeded.
	MaxPromptBytes int `json:"max_prompt_bytes,omitempty" yaml:"max_prompt_bytes,omitempty"`

	// OutputDir receives the generated analysis documents.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// LogDir receives the raw per-stage session logs.
	LogDir string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`

	// VaultDir holds encrypted credential records. Empty means the
	// per-user default under the OS config directory.
	VaultDir string `json:"vault_dir,omitempty" yaml:"vault_dir,omitempty"`

	// CleanPatterns are doublestar globs matched against session log
	// filenames by `repolens clean`.
	CleanPatterns []string `json:"clean_patterns,omitempty" yaml:"clean_patterns,omitempty"`

	// location is the file this config was loaded from, if any.
	location string
}

// DefaultConfigFile is tried when no --config flag is given.
const DefaultConfigFile = ".repolens.yaml"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Provider:       "auto",
		Model:          "gpt-4o",
		TimeoutSeconds: 300,
		MaxPromptBytes: 96 * 1024,
		OutputDir:      "use-cases",
		LogDir:         ".repolens/logs",
		CleanPatterns:  []string{"*.log"},
	}
}

// Timeout returns the per-invocation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location returns the path the config was loaded from ("" for defaults).
func (c *Config) Location() string {
	return c.location
}

// ResolveVaultDir returns the directory for credential records, deriving the
// per-user default when none is configured.
func (c *Config) ResolveVaultDir() (string, error) {
	if c.VaultDir != "" {
		return c.VaultDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "repolens", "credentials"), nil
}

// Validate checks invariants the decoders cannot express.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.New("provider must not be empty (use \"auto\")")
	}
	if c.TimeoutSeconds <= 0 {
		return errors.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxPromptBytes < 4096 {
		return errors.Errorf("max_prompt_bytes must be at least 4096, got %d", c.MaxPromptBytes)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.LogDir == "" {
		return errors.New("log_dir must not be empty")
	}
	return nil
}

// applyDefaults fills zero-valued fields after decoding a config file, so a
// partial file only overrides what it names.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.MaxPromptBytes == 0 {
		c.MaxPromptBytes = def.MaxPromptBytes
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.LogDir == "" {
		c.LogDir = def.LogDir
	}
	if len(c.CleanPatterns) == 0 {
		c.CleanPatterns = def.CleanPatterns
	}
}
