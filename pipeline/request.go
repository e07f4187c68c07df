package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Request describes one clip to generate. ID is the caller's stable
// identifier for the alarm or reminder; it is part of the cache key, so
// two requests with identical text but different IDs cache independently.
type Request struct {
	ID           string            `json:"id"`
	Goal         string            `json:"goal"`
	Tone         string            `json:"tone,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
	ScheduledFor time.Time         `json:"scheduled_for,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing request id", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Goal) == "" {
		return fmt.Errorf("%w: missing goal", ErrInvalidRequest)
	}
	return nil
}

// Result is what GetOrGenerate hands back, whether the clip was freshly
// generated or served from the cache.
type Result struct {
	AudioPath   string        `json:"audio_path"`
	Script      string        `json:"script"`
	Duration    time.Duration `json:"duration"`
	Voice       string        `json:"voice"`
	GeneratedAt time.Time     `json:"generated_at"`
	FromCache   bool          `json:"from_cache"`
}
