package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the server.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	InputsDir  string `json:"inputs_dir" yaml:"inputs_dir" toml:"inputs_dir"`
	OutputsDir string `json:"outputs_dir" yaml:"outputs_dir" toml:"outputs_dir"`

	// Device forces "cuda" or "cpu"; empty or "auto" probes the host.
	Device string `json:"device" yaml:"device" toml:"device"`

	// HubBase is the remote model repository root models are cloned from.
	HubBase string `json:"hub_base" yaml:"hub_base" toml:"hub_base"`
	GitBin  string `json:"git_bin" yaml:"git_bin" toml:"git_bin"`

	// Text runtime configuration (no envs; set by callers).
	LlamaCtx      int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads  int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	TextServerBin string `json:"text_server_bin" yaml:"text_server_bin" toml:"text_server_bin"`

	// External inference servers for the non-text modalities.
	SDServerURL         string `json:"sd_server_url" yaml:"sd_server_url" toml:"sd_server_url"`
	AudiocraftServerURL string `json:"audiocraft_server_url" yaml:"audiocraft_server_url" toml:"audiocraft_server_url"`
	TTSServerURL        string `json:"tts_server_url" yaml:"tts_server_url" toml:"tts_server_url"`
	WhisperServerURL    string `json:"whisper_server_url" yaml:"whisper_server_url" toml:"whisper_server_url"`

	// Admission gate: how long a queued request may wait for the single
	// generation slot before a busy rejection.
	MaxWaitSeconds int `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	MaxBodyMB      int `json:"max_body_mb" yaml:"max_body_mb" toml:"max_body_mb"`

	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// ShareMode binds the listener on all interfaces instead of localhost.
	ShareMode bool `json:"share_mode" yaml:"share_mode" toml:"share_mode"`

	// DisableSafetyChecker mirrors the historical behavior of dropping the
	// diffusion safety filter. Surfaced as a knob instead of hardcoded.
	DisableSafetyChecker *bool `json:"disable_safety_checker" yaml:"disable_safety_checker" toml:"disable_safety_checker"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// SafetyCheckerDisabled resolves the tri-state knob; the default matches the
// historical behavior (filter removed).
func (c Config) SafetyCheckerDisabled() bool {
	if c.DisableSafetyChecker == nil {
		return true
	}
	return *c.DisableSafetyChecker
}
