// Package openai implements pipeline.ScriptGenerator against an
// OpenAI-compatible chat-completions API. Anything speaking that wire
// format works by pointing BaseURL at it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/chime/internal/prompt"
	"github.com/dgnsrekt/chime/pipeline"
)

var _ pipeline.ScriptGenerator = (*Generator)(nil)

// systemPrompt pins the output register: one short spoken line, nothing
// the synthesizer would stumble over.
const systemPrompt = "You write one-line spoken messages for alarms and reminders. " +
	"Reply with the line itself: at most two sentences, plain text, " +
	"no emojis, no hashtags, no quotation marks."

// Config holds the chat-completions client settings.
type Config struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	Model             string        `yaml:"model" env:"MODEL"`
	Temperature       float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens         int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.openai.com/v1",
		Model:             gopenai.GPT4oMini,
		Temperature:       0.8,
		MaxTokens:         120,
		Timeout:           30 * time.Second,
		RequestsPerMinute: 30,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("api key must be set")
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

// Generator turns goals into spoken one-liners via chat completions.
// Calls are rate limited client-side so a burst of PreGenerate work
// cannot trip the provider's quota.
type Generator struct {
	cfg     Config
	client  *gopenai.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.log = l }
}

func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cc := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	g := &Generator{
		cfg:     cfg,
		client:  gopenai.NewClientWithConfig(cc),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Generator) GenerateScript(ctx context.Context, goal, tone string, extra map[string]string) (string, error) {
	if strings.TrimSpace(goal) == "" {
		return "", errors.New("goal must not be empty")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	instruction := prompt.Build(goal, tone, extra)
	resp, err := g.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: instruction},
		},
		Temperature: float32(g.cfg.Temperature),
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	line := strings.TrimSpace(resp.Choices[0].Message.Content)
	if line == "" {
		return "", errors.New("completion returned an empty message")
	}

	g.log.Debug("script generated",
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"chars", len(line))
	return line, nil
}
