package pipeline

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFromViper overlays whatever the config file and bound flags set
// onto the defaults. Only keys that are actually present override, so a
// partial chime.yml keeps defaults for everything it omits.
func ConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("default_voice") {
		cfg.DefaultVoice = viper.GetString("default_voice")
	}
	if viper.IsSet("voices") {
		cfg.Voices = viper.GetStringMapString("voices")
	}
	if viper.IsSet("pregenerate_horizon") {
		d, err := time.ParseDuration(viper.GetString("pregenerate_horizon"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid pregenerate_horizon: %w", err)
		}
		cfg.PreGenerateHorizon = d
	}

	if viper.IsSet("synthesis.format") {
		cfg.Synthesis.Format = viper.GetString("synthesis.format")
	}
	if viper.IsSet("synthesis.quality") {
		cfg.Synthesis.Quality = viper.GetString("synthesis.quality")
	}
	if viper.IsSet("synthesis.speed") {
		cfg.Synthesis.Speed = viper.GetFloat64("synthesis.speed")
	}

	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.max_size") {
		cfg.Cache.MaxSize = viper.GetInt64("cache.max_size")
	}
	if viper.IsSet("cache.ttl") {
		d, err := time.ParseDuration(viper.GetString("cache.ttl"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid cache.ttl: %w", err)
		}
		cfg.Cache.TTL = d
	}
	if viper.IsSet("cache.evict_target") {
		cfg.Cache.EvictTarget = viper.GetFloat64("cache.evict_target")
	}
	if viper.IsSet("cache.compress_index") {
		cfg.Cache.CompressIndex = viper.GetBool("cache.compress_index")
	}
	if viper.IsSet("cache.watch") {
		cfg.Cache.Watch = viper.GetBool("cache.watch")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetViperDefaults registers every pipeline key so partial config files
// work and the config command can print the full effective settings.
func SetViperDefaults() {
	def := DefaultConfig()

	viper.SetDefault("default_voice", def.DefaultVoice)
	viper.SetDefault("voices", def.Voices)
	viper.SetDefault("pregenerate_horizon", def.PreGenerateHorizon.String())

	viper.SetDefault("synthesis.format", def.Synthesis.Format)
	viper.SetDefault("synthesis.quality", def.Synthesis.Quality)
	viper.SetDefault("synthesis.speed", def.Synthesis.Speed)

	viper.SetDefault("cache.dir", def.Cache.Dir)
	viper.SetDefault("cache.max_size", def.Cache.MaxSize)
	viper.SetDefault("cache.ttl", def.Cache.TTL.String())
	viper.SetDefault("cache.evict_target", def.Cache.EvictTarget)
	viper.SetDefault("cache.compress_index", def.Cache.CompressIndex)
	viper.SetDefault("cache.watch", def.Cache.Watch)
}
