package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dgnsrekt/chime/internal/cache"
)

// SynthesisOptions are passed through to the speech synthesizer on every
// request.
type SynthesisOptions struct {
	Format  string  `yaml:"format" env:"FORMAT"`
	Quality string  `yaml:"quality" env:"QUALITY"`
	Speed   float64 `yaml:"speed" env:"SPEED"`
}

// Config holds the orchestrator settings.
type Config struct {
	// DefaultVoice is used when a request's tone has no mapping.
	DefaultVoice string `yaml:"default_voice" env:"DEFAULT_VOICE"`

	// Voices maps a request tone to a synthesizer voice.
	Voices map[string]string `yaml:"voices" env:"VOICES"`

	// PreGenerateHorizon bounds how far ahead PreGenerate will work.
	PreGenerateHorizon time.Duration `yaml:"pregenerate_horizon" env:"PREGENERATE_HORIZON"`

	Synthesis SynthesisOptions `yaml:"synthesis" envPrefix:"SYNTHESIS_"`
	Cache     cache.Config     `yaml:"cache" envPrefix:"CACHE_"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DefaultVoice: "ava",
		Voices: map[string]string{
			"energetic": "nova",
			"calm":      "willow",
			"stern":     "atlas",
		},
		PreGenerateHorizon: 24 * time.Hour,
		Synthesis: SynthesisOptions{
			Format:  "wav",
			Quality: "standard",
			Speed:   1.0,
		},
		Cache: cache.DefaultConfig(),
	}
}

// ConfigFromEnv builds a Config from defaults overridden by CHIME_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CHIME_"}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultVoice) == "" {
		return fmt.Errorf("default voice must not be empty")
	}
	if c.PreGenerateHorizon <= 0 {
		return fmt.Errorf("pregenerate horizon must be positive, got %s", c.PreGenerateHorizon)
	}
	switch c.Synthesis.Format {
	case "wav", "pcm":
	default:
		return fmt.Errorf("unsupported synthesis format: %q", c.Synthesis.Format)
	}
	if c.Synthesis.Speed < 0.5 || c.Synthesis.Speed > 2.0 {
		return fmt.Errorf("synthesis speed must be between 0.5 and 2.0, got %.2f", c.Synthesis.Speed)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

// VoiceFor resolves the synthesizer voice for a tone, falling back to the
// default voice for unmapped or empty tones.
func (c Config) VoiceFor(tone string) string {
	if v, ok := c.Voices[strings.ToLower(strings.TrimSpace(tone))]; ok && v != "" {
		return v
	}
	return c.DefaultVoice
}
