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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "full_config",
			config: `
provider: claude
model: gpt-4o-mini
timeout_seconds: 120
max_prompt_bytes: 8192
output_dir: docs/analyses
log_dir: .logs
vault_dir: /tmp/vault
clean_patterns:
  - "*.log"
  - "session-*.txt"
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "claude", cfg.Provider, "provider should match")
				assert.Equal(t, "gpt-4o-mini", cfg.Model, "model should match")
				assert.Equal(t, 120*time.Second, cfg.Timeout(), "timeout should match")
				assert.Equal(t, 8192, cfg.MaxPromptBytes, "max prompt bytes should match")
				assert.Equal(t, "docs/analyses", cfg.OutputDir, "output dir should match")
				assert.Equal(t, ".logs", cfg.LogDir, "log dir should match")
				assert.Equal(t, "/tmp/vault", cfg.VaultDir, "vault dir should match")
				assert.Len(t, cfg.CleanPatterns, 2, "should have 2 clean patterns")
			},
		},
		{
			name:   "partial_config_gets_defaults",
			config: "provider: gemini\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "gemini", cfg.Provider, "explicit value kept")
				assert.Equal(t, 300, cfg.TimeoutSeconds, "timeout should default")
				assert.Equal(t, "use-cases", cfg.OutputDir, "output dir should default")
				assert.Equal(t, 96*1024, cfg.MaxPromptBytes, "prompt budget should default")
			},
		},
		{
			name:        "unknown_field_rejected",
			config:      "providr: claude\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:        "invalid_timeout",
			config:      "timeout_seconds: -5\n",
			wantErr:     true,
			errContains: "timeout_seconds must be positive",
		},
		{
			name:        "prompt_budget_too_small",
			config:      "max_prompt_bytes: 100\n",
			wantErr:     true,
			errContains: "max_prompt_bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "repolens.yaml", tt.config)
			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err, "load should fail")
				assert.Contains(t, err.Error(), tt.errContains, "error should explain")
				return
			}
			require.NoError(t, err, "load should succeed")
			assert.Equal(t, path, cfg.Location(), "location should be recorded")
			tt.check(t, cfg)
		})
	}
}

func TestLoad_FormatsAgree(t *testing.T) {
	yamlPath := writeConfig(t, "cfg.yaml", `
provider: openai
timeout_seconds: 60
output_dir: out
`)
	hclPath := writeConfig(t, "cfg.hcl", `
provider        = "openai"
timeout_seconds = 60
output_dir      = "out"
`)
	jsonPath := writeConfig(t, "cfg.json", `{
  "provider": "openai",
  "timeout_seconds": 60,
  "output_dir": "out"
}`)

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err, "yaml should load")
	fromHCL, err := Load(hclPath)
	require.NoError(t, err, "hcl should load")
	fromJSON, err := Load(jsonPath)
	require.NoError(t, err, "json should load")

	// Ignore the source location when comparing.
	fromYAML.location, fromHCL.location, fromJSON.location = "", "", ""
	assert.Equal(t, fromYAML, fromHCL, "yaml and hcl should produce identical configs")
	assert.Equal(t, fromYAML, fromJSON, "yaml and json should produce identical configs")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Run("default_location_falls_back", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigFile))
		require.NoError(t, err, "missing default config is not an error")
		assert.Equal(t, DefaultConfig(), cfg, "defaults should be returned")
	})

	t.Run("explicit_location_errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "custom.yaml"))
		require.Error(t, err, "missing explicit config is an error")
	})
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "cfg.toml", "provider = \"auto\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config extension")
}
