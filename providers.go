package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/chime/internal/cache"
	"github.com/dgnsrekt/chime/pipeline"
	"github.com/dgnsrekt/chime/pipeline/eleven"
	"github.com/dgnsrekt/chime/pipeline/mock"
	"github.com/dgnsrekt/chime/pipeline/openai"
)

// buildPipeline wires the configured providers and the artifact cache. The
// caller owns the result and must Close it.
func buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := resolvePipelineConfig()
	if err != nil {
		return nil, err
	}

	scripts, err := scriptProvider()
	if err != nil {
		return nil, err
	}
	speech, err := speechProvider()
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg, scripts, speech,
		pipeline.WithLogger(log.Default().WithPrefix("pipeline")))
}

// buildCache opens the artifact cache on its own, for commands that inspect
// or prune it without generating anything.
func buildCache() (*cache.Manager, error) {
	cfg, err := resolvePipelineConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache, cache.WithLogger(log.Default().WithPrefix("cache")))
}

func resolvePipelineConfig() (pipeline.Config, error) {
	cfg, err := pipeline.ConfigFromViper()
	if err != nil {
		return cfg, err
	}
	dir, err := homedir.Expand(cfg.Cache.Dir)
	if err != nil {
		return cfg, fmt.Errorf("unable to expand cache dir: %w", err)
	}
	cfg.Cache.Dir = dir
	return cfg, nil
}

func scriptProvider() (pipeline.ScriptGenerator, error) {
	if offline {
		return mock.NewScriptGenerator(), nil
	}
	switch name := viper.GetString("scripts.provider"); name {
	case "openai":
		cfg, err := openaiConfig()
		if err != nil {
			return nil, err
		}
		if cfg.APIKey == "" {
			return nil, errors.New("no OpenAI key: set CHIME_OPENAI_API_KEY, add openai.api_key to the config, or pass --offline")
		}
		return openai.New(cfg, openai.WithLogger(log.Default().WithPrefix("openai")))
	case "mock":
		return mock.NewScriptGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown script provider %q", name)
	}
}

func speechProvider() (pipeline.SpeechSynthesizer, error) {
	if offline {
		return mock.NewSynthesizer(), nil
	}
	switch name := viper.GetString("speech.provider"); name {
	case "eleven":
		cfg, err := elevenConfig()
		if err != nil {
			return nil, err
		}
		if cfg.APIKey == "" {
			return nil, errors.New("no ElevenLabs key: set CHIME_ELEVEN_API_KEY, add eleven.api_key to the config, or pass --offline")
		}
		return eleven.New(cfg, eleven.WithLogger(log.Default().WithPrefix("eleven")))
	case "mock":
		return mock.NewSynthesizer(), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", name)
	}
}

// openaiConfig resolves provider settings in layers: built-in defaults,
// config file keys, then CHIME_OPENAI_* environment variables.
func openaiConfig() (openai.Config, error) {
	cfg := openai.DefaultConfig()
	if viper.IsSet("openai.base_url") {
		cfg.BaseURL = viper.GetString("openai.base_url")
	}
	if viper.IsSet("openai.api_key") {
		cfg.APIKey = viper.GetString("openai.api_key")
	}
	if viper.IsSet("openai.model") {
		cfg.Model = viper.GetString("openai.model")
	}
	if viper.IsSet("openai.temperature") {
		cfg.Temperature = viper.GetFloat64("openai.temperature")
	}
	if viper.IsSet("openai.max_tokens") {
		cfg.MaxTokens = viper.GetInt("openai.max_tokens")
	}
	if viper.IsSet("openai.timeout") {
		d, err := time.ParseDuration(viper.GetString("openai.timeout"))
		if err != nil {
			return cfg, fmt.Errorf("invalid openai.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if viper.IsSet("openai.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("openai.requests_per_minute")
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CHIME_OPENAI_"}); err != nil {
		return cfg, fmt.Errorf("reading openai environment: %w", err)
	}
	return cfg, nil
}

// elevenConfig mirrors openaiConfig for the speech provider.
func elevenConfig() (eleven.Config, error) {
	cfg := eleven.DefaultConfig()
	if viper.IsSet("eleven.base_url") {
		cfg.BaseURL = viper.GetString("eleven.base_url")
	}
	if viper.IsSet("eleven.api_key") {
		cfg.APIKey = viper.GetString("eleven.api_key")
	}
	if viper.IsSet("eleven.model") {
		cfg.Model = viper.GetString("eleven.model")
	}
	if viper.IsSet("eleven.stability") {
		cfg.Stability = viper.GetFloat64("eleven.stability")
	}
	if viper.IsSet("eleven.similarity_boost") {
		cfg.SimilarityBoost = viper.GetFloat64("eleven.similarity_boost")
	}
	if viper.IsSet("eleven.timeout") {
		d, err := time.ParseDuration(viper.GetString("eleven.timeout"))
		if err != nil {
			return cfg, fmt.Errorf("invalid eleven.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if viper.IsSet("eleven.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("eleven.requests_per_minute")
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CHIME_ELEVEN_"}); err != nil {
		return cfg, fmt.Errorf("reading eleven environment: %w", err)
	}
	return cfg, nil
}
