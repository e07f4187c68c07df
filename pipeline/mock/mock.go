// Package mock provides deterministic, offline implementations of the
// pipeline provider interfaces. They power the unit tests and the CLI's
// offline mode: no network, no credentials, stable output for a given
// input.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/chime/internal/audio"
	"github.com/dgnsrekt/chime/pipeline"
)

var (
	_ pipeline.ScriptGenerator   = (*ScriptGenerator)(nil)
	_ pipeline.SpeechSynthesizer = (*Synthesizer)(nil)
	_ pipeline.VoiceLister       = (*Synthesizer)(nil)
)

// ScriptGenerator returns a canned spoken line built from the goal and
// tone. Failure injection and artificial delay are settable at any time.
type ScriptGenerator struct {
	mu     sync.Mutex
	script string
	err    error
	delay  time.Duration

	calls atomic.Int64
}

func NewScriptGenerator() *ScriptGenerator {
	return &ScriptGenerator{}
}

// SetScript pins the returned line. Empty reverts to the built-in one.
func (g *ScriptGenerator) SetScript(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = s
}

// SetFailure makes every following call return err. Nil clears it.
func (g *ScriptGenerator) SetFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// SetDelay adds an artificial per-call delay, honoring context
// cancellation.
func (g *ScriptGenerator) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// Calls reports how many times GenerateScript ran.
func (g *ScriptGenerator) Calls() int64 {
	return g.calls.Load()
}

func (g *ScriptGenerator) GenerateScript(ctx context.Context, goal, tone string, extra map[string]string) (string, error) {
	g.calls.Add(1)

	g.mu.Lock()
	script, err, delay := g.script, g.err, g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if script != "" {
		return script, nil
	}
	if tone != "" {
		return fmt.Sprintf("Stay %s. This is your moment: %s.", tone, goal), nil
	}
	return fmt.Sprintf("This is your moment: %s.", goal), nil
}

// Synthesizer renders scripts as silent WAV clips whose length scales
// with the word count, so duration math stays meaningful in tests.
type Synthesizer struct {
	mu      sync.Mutex
	err     error
	delay   time.Duration
	perWord time.Duration

	calls      atomic.Int64
	lastScript string
	lastVoice  string
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{perWord: 300 * time.Millisecond}
}

// SetFailure makes every following call return err. Nil clears it.
func (s *Synthesizer) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetDelay adds an artificial per-call delay, honoring context
// cancellation.
func (s *Synthesizer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetPerWord changes the synthesized length per script word. Zero makes
// every clip empty, which is useful for exercising storage errors.
func (s *Synthesizer) SetPerWord(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perWord = d
}

// Calls reports how many times Synthesize ran.
func (s *Synthesizer) Calls() int64 {
	return s.calls.Load()
}

// Last returns the script and voice of the most recent synthesis.
func (s *Synthesizer) Last() (script, voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScript, s.lastVoice
}

func (s *Synthesizer) Synthesize(ctx context.Context, script, voice string, opts pipeline.SynthesisOptions) ([]byte, error) {
	s.calls.Add(1)

	s.mu.Lock()
	s.lastScript, s.lastVoice = script, voice
	err, delay, perWord := s.err, s.delay, s.perWord
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	words := len(strings.Fields(script))
	if words == 0 {
		words = 1
	}
	clip := time.Duration(words) * perWord
	if clip > 10*time.Second {
		clip = 10 * time.Second
	}

	f := audio.DefaultFormat()
	pcm := audio.Silence(clip, f)
	if opts.Format == "pcm" {
		return pcm, nil
	}
	return audio.EncodeWAV(pcm, f), nil
}

// Voices lists the fixed voice set the offline mode pretends to have.
func (s *Synthesizer) Voices(ctx context.Context) ([]pipeline.Voice, error) {
	return []pipeline.Voice{
		{ID: "ava", Name: "Ava", Description: "warm, neutral"},
		{ID: "nova", Name: "Nova", Description: "bright, energetic"},
		{ID: "willow", Name: "Willow", Description: "soft, calm"},
		{ID: "atlas", Name: "Atlas", Description: "deep, firm"},
	}, nil
}
