// Package eleven implements pipeline.SpeechSynthesizer against an
// ElevenLabs-style text-to-speech HTTP API. The service returns raw PCM;
// WAV requests are wrapped in a RIFF header locally.
package eleven

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/chime/internal/audio"
	"github.com/dgnsrekt/chime/pipeline"
)

var (
	_ pipeline.SpeechSynthesizer = (*Synthesizer)(nil)
	_ pipeline.VoiceLister       = (*Synthesizer)(nil)
)

const headerAPIKey = "xi-api-key"

// Config holds the text-to-speech client settings. The voice strings the
// pipeline passes in are used verbatim as voice IDs, so the tone table in
// the pipeline config should map to real voice IDs of the service.
type Config struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	Model             string        `yaml:"model" env:"MODEL"`
	Stability         float64       `yaml:"stability" env:"STABILITY"`
	SimilarityBoost   float64       `yaml:"similarity_boost" env:"SIMILARITY_BOOST"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.elevenlabs.io",
		Model:             "eleven_turbo_v2",
		Stability:         0.5,
		SimilarityBoost:   0.75,
		Timeout:           30 * time.Second,
		RequestsPerMinute: 60,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("api key must be set")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base url must be set")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must be set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute must be positive, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Synthesizer is a rate-limited client for the speech endpoint.
type Synthesizer struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

func New(cfg Config, opts ...Option) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	s := &Synthesizer{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// sampleRateFor maps the requested quality tier to a PCM output rate.
func sampleRateFor(quality string) int {
	switch quality {
	case "low":
		return 16000
	case "high":
		return 44100
	default:
		return 22050
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, script, voice string, opts pipeline.SynthesisOptions) ([]byte, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("script must not be empty")
	}
	if strings.TrimSpace(voice) == "" {
		return nil, errors.New("voice must not be empty")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body := synthesisRequest{
		Text:    script,
		ModelID: s.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
		},
	}
	if opts.Speed != 0 && opts.Speed != 1.0 {
		body.VoiceSettings.Speed = opts.Speed
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	sampleRate := sampleRateFor(opts.Quality)
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=pcm_%d",
		s.cfg.BaseURL, url.PathEscape(voice), sampleRate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request to %s: %w", s.cfg.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.apiError(resp)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(pcm) == 0 {
		return nil, errors.New("service returned empty audio")
	}

	s.log.Debug("synthesized", "voice", voice, "bytes", len(pcm), "rate", sampleRate)

	if opts.Format == "pcm" {
		return pcm, nil
	}
	return audio.EncodeWAV(pcm, audio.Format{SampleRate: sampleRate, Channels: 1, BitDepth: 16}), nil
}

// Voices lists the voices available to the configured API key.
func (s *Synthesizer) Voices(ctx context.Context) ([]pipeline.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/v1/voices", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(headerAPIKey, s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice list request to %s: %w", s.cfg.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.apiError(resp)
	}

	var listing struct {
		Voices []struct {
			VoiceID     string `json:"voice_id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding voice list: %w", err)
	}

	voices := make([]pipeline.Voice, 0, len(listing.Voices))
	for _, v := range listing.Voices {
		voices = append(voices, pipeline.Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Description: v.Description,
		})
	}
	return voices, nil
}

// apiError decodes the service's structured error body, falling back to
// the raw body so diagnostics survive non-JSON failures.
func (s *Synthesizer) apiError(resp *http.Response) error {
	var detail struct {
		Detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail.Message != "" {
		return fmt.Errorf("speech service error (%s): %s (%s)",
			resp.Status, detail.Detail.Message, detail.Detail.Status)
	}
	return fmt.Errorf("speech service returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
}
