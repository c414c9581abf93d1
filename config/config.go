// Package config resolves the session configuration from layered file
// locations and process environment variables. The resolved snapshot is
// read-only for the process lifetime; a missing credential is reported only
// when the provider that needs it is actually invoked.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/clio-ai/clio/errors"
)

// Environment variable names recognized for provider credentials. These take
// precedence over values from any config file.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvOllamaURL    = "OLLAMA_URL"
)

// DefaultOllamaURL is used when no base URL is configured. The explicit IPv4
// address avoids IPv6 localhost resolution issues on some platforms.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// Config is the resolved session configuration.
type Config struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GroqAPIKey   string `yaml:"groq_api_key"`
	OllamaURL    string `yaml:"ollama_url"`

	// Model is the initially selected model id. Empty selects the
	// registry's first entry.
	Model string `yaml:"model"`

	// MaxRetries bounds provider-call retries on transient failures.
	MaxRetries int `yaml:"max_retries"`

	// TimeoutSeconds is the per-call provider deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Restricted are doublestar globs, relative to the sandbox root, that
	// file actions may never touch.
	Restricted []string `yaml:"restricted"`

	// Source records where each resolved file value came from, for /config.
	Sources []string `yaml:"-"`
}

// Paths returns the candidate config file locations in priority order:
// the project directory first, then the user-level locations. The second
// home location exists for compatibility with the older ~/.ai-cli layout.
func Paths() []string {
	paths := []string{filepath.Join(".clio", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".clio", "config.yaml"),
			filepath.Join(home, ".ai-cli", "config.yaml"),
		)
	}
	return paths
}

// Load resolves configuration. Files are merged first-found-wins per key in
// the order returned by Paths; environment variables override file values
// for the credential keys. Load never fails on a missing file, only on an
// unreadable or malformed one.
func Load() (*Config, error) {
	cfg := &Config{
		OllamaURL:      DefaultOllamaURL,
		MaxRetries:     3,
		TimeoutSeconds: 120,
		Restricted:     []string{".clio", ".clio/**", ".git", ".git/**"},
	}

	var layered Config
	for _, path := range Paths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		var file Config
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read config %s", path)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, "could not parse config %s", path)
		}
		if mergeMissing(&layered, &file) {
			cfg.Sources = append(cfg.Sources, path)
		}
	}
	mergeMissing(&layered, cfg)

	// Environment beats files for the credential keys.
	applyEnv(&layered)
	layered.Sources = cfg.Sources
	return &layered, nil
}

// mergeMissing copies fields from src into dst where dst has no value yet.
// Returns true when at least one field was taken from src.
func mergeMissing(dst, src *Config) bool {
	took := false
	take := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			took = true
		}
	}
	take(&dst.GeminiAPIKey, src.GeminiAPIKey)
	take(&dst.GroqAPIKey, src.GroqAPIKey)
	take(&dst.OllamaURL, src.OllamaURL)
	take(&dst.Model, src.Model)
	if dst.MaxRetries == 0 && src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
		took = true
	}
	if dst.TimeoutSeconds == 0 && src.TimeoutSeconds != 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
		took = true
	}
	if len(dst.Restricted) == 0 && len(src.Restricted) > 0 {
		dst.Restricted = append([]string(nil), src.Restricted...)
		took = true
	}
	return took
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv(EnvGroqAPIKey); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv(EnvOllamaURL); v != "" {
		cfg.OllamaURL = v
	}
}

// SourceDescription reports where configuration was resolved from, for the
// /config command.
func (c *Config) SourceDescription() string {
	if len(c.Sources) == 0 {
		return "no config file found; using defaults and environment (searched: " + joinPaths(Paths()) + ")"
	}
	return joinPaths(c.Sources)
}

func joinPaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
