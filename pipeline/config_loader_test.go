package pipeline

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestConfigFromViperOverlaysDefaults(t *testing.T) {
	resetViper(t)
	SetViperDefaults()
	viper.Set("cache.dir", t.TempDir())
	viper.Set("default_voice", "echo")
	viper.Set("pregenerate_horizon", "6h")
	viper.Set("cache.ttl", "36h")
	viper.Set("cache.watch", true)

	cfg, err := ConfigFromViper()
	if err != nil {
		t.Fatalf("ConfigFromViper: %v", err)
	}

	if cfg.DefaultVoice != "echo" {
		t.Errorf("default voice = %q, want echo", cfg.DefaultVoice)
	}
	if cfg.PreGenerateHorizon != 6*time.Hour {
		t.Errorf("horizon = %v, want 6h", cfg.PreGenerateHorizon)
	}
	if cfg.Cache.TTL != 36*time.Hour {
		t.Errorf("ttl = %v, want 36h", cfg.Cache.TTL)
	}
	if !cfg.Cache.Watch {
		t.Error("watch not picked up")
	}

	// keys never set keep their defaults
	def := DefaultConfig()
	if cfg.Synthesis.Speed != def.Synthesis.Speed {
		t.Errorf("speed = %v, want default %v", cfg.Synthesis.Speed, def.Synthesis.Speed)
	}
	if cfg.Cache.MaxSize != def.Cache.MaxSize {
		t.Errorf("max size = %d, want default %d", cfg.Cache.MaxSize, def.Cache.MaxSize)
	}
}

func TestConfigFromViperRejectsBadDuration(t *testing.T) {
	resetViper(t)
	SetViperDefaults()
	viper.Set("cache.dir", t.TempDir())
	viper.Set("cache.ttl", "soon")

	if _, err := ConfigFromViper(); err == nil {
		t.Fatal("bad duration accepted")
	}
}

func TestConfigFromViperRequiresCacheDir(t *testing.T) {
	resetViper(t)
	SetViperDefaults()

	// nothing registered a concrete cache dir, so validation must fail
	if _, err := ConfigFromViper(); err == nil {
		t.Fatal("config without cache dir accepted")
	}
}
