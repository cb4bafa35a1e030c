package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file from the given path. The format is
// determined by the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL
// A missing file at the default location is not an error: the tool runs with
// defaults. A missing file at any other location is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && filepath.Base(path) == DefaultConfigFile {
			return DefaultConfig(), nil
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		cfg, err = loadJSON(data)
	case ".yaml", ".yml":
		cfg, err = loadYAML(data)
	case ".hcl":
		cfg, err = loadHCL(data, path)
	default:
		return nil, errors.Errorf("unsupported config extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	cfg.location = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// loadJSON loads a configuration from JSON data
func loadJSON(data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

// loadYAML loads a configuration from YAML data
func loadYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// loadHCL loads a configuration from HCL data
func loadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Decode into a dedicated struct so the Config type itself stays free
	// of decoder quirks.
	var raw struct {
		Provider       string   `hcl:"provider,optional"`
		Model          string   `hcl:"model,optional"`
		TimeoutSeconds int      `hcl:"timeout_seconds,optional"`
		MaxPromptBytes int      `hcl:"max_prompt_bytes,optional"`
		OutputDir      string   `hcl:"output_dir,optional"`
		LogDir         string   `hcl:"log_dir,optional"`
		VaultDir       string   `hcl:"vault_dir,optional"`
		CleanPatterns  []string `hcl:"clean_patterns,optional"`
	}
	diags = gohcl.DecodeBody(hclFile.Body, ctx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Provider:       raw.Provider,
		Model:          raw.Model,
		TimeoutSeconds: raw.TimeoutSeconds,
		MaxPromptBytes: raw.MaxPromptBytes,
		OutputDir:      raw.OutputDir,
		LogDir:         raw.LogDir,
		VaultDir:       raw.VaultDir,
		CleanPatterns:  raw.CleanPatterns,
	}, nil
}
