package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto permits a single context per process, so initialization is shared by
// every Player regardless of how the rest of the stack is wired.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoFmt  Format
	otoErr  error
)

func sharedContext(f Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("audio device init: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
		otoFmt = f
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if f != otoFmt {
		return nil, fmt.Errorf("audio device opened at %dHz/%dch, cannot play %dHz/%dch",
			otoFmt.SampleRate, otoFmt.Channels, f.SampleRate, f.Channels)
	}
	return otoCtx, nil
}

// Player plays WAV or raw PCM clips on the default output device.
type Player struct {
	mu      sync.Mutex
	current *oto.Player
}

func NewPlayer() *Player {
	return &Player{}
}

// Play decodes the clip and blocks until playback finishes or ctx is
// cancelled. Non-WAV input is assumed to be raw PCM in the default format.
func (p *Player) Play(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty audio data")
	}

	f := DefaultFormat()
	pcm := data
	if IsWAV(data) {
		var err error
		f, pcm, err = DecodeWAV(data)
		if err != nil {
			return err
		}
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d (16-bit PCM only)", f.BitDepth)
	}

	octx, err := sharedContext(f)
	if err != nil {
		return err
	}

	player := octx.NewPlayer(bytes.NewReader(pcm))
	p.mu.Lock()
	p.current = player
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		player.Close()
	}()

	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				return nil
			}
		}
	}
}

// Stop halts the clip currently playing, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Pause()
	}
}
