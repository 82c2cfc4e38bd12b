package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"accent-detector/internal/domain"
)

// Config carries everything the pipeline needs at construction time.
// There is no ambient global lookup: callers build one Config and pass it in.
type Config struct {
	APIKey          string
	SpeechModel     string
	CompletionModel string
	Strategy        domain.Strategy
	RequestTimeout  time.Duration
}

// Default returns baseline configuration without credentials.
func Default() Config {
	return Config{
		SpeechModel:     "whisper-1",
		CompletionModel: "gpt-4o-mini",
		Strategy:        domain.StrategyModel,
		RequestTimeout:  5 * time.Minute,
	}
}

// FromEnv overlays environment variables onto defaults. Recognized keys:
// OPENAI_API_KEY, ACCENT_SPEECH_MODEL, ACCENT_COMPLETION_MODEL,
// ACCENT_STRATEGY, ACCENT_REQUEST_TIMEOUT.
func FromEnv() Config {
	cfg := Default()

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ACCENT_SPEECH_MODEL")); v != "" {
		cfg.SpeechModel = v
	}
	if v := strings.TrimSpace(os.Getenv("ACCENT_COMPLETION_MODEL")); v != "" {
		cfg.CompletionModel = v
	}
	if v := strings.TrimSpace(os.Getenv("ACCENT_STRATEGY")); v != "" {
		cfg.Strategy = domain.Strategy(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("ACCENT_REQUEST_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}

	return cfg
}

// ApplySettings overlays persisted non-secret settings onto the config.
// Environment values already present win over stored ones only for the
// API key, which is never persisted.
func (c Config) ApplySettings(s domain.Settings) Config {
	if v := strings.TrimSpace(s.SpeechModel); v != "" {
		c.SpeechModel = v
	}
	if v := strings.TrimSpace(s.CompletionModel); v != "" {
		c.CompletionModel = v
	}
	if v := strings.TrimSpace(s.Strategy); v != "" {
		c.Strategy = domain.Strategy(strings.ToLower(v))
	}
	return c
}

// Validate checks the config is complete enough to run a pipeline.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("API key is required (set OPENAI_API_KEY)")
	}
	if strings.TrimSpace(c.SpeechModel) == "" {
		return fmt.Errorf("speech model is required")
	}
	if c.Strategy != domain.StrategyModel && c.Strategy != domain.StrategyHeuristic {
		return fmt.Errorf("unknown classification strategy: %q", c.Strategy)
	}
	if c.Strategy == domain.StrategyModel && strings.TrimSpace(c.CompletionModel) == "" {
		return fmt.Errorf("completion model is required for the model strategy")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}
