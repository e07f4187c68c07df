package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies the phase of the generation flow an error came from.
type Stage int

const (
	StageScript Stage = iota
	StageSynthesis
	StageCache
)

func (s Stage) String() string {
	switch s {
	case StageScript:
		return "script-generation"
	case StageSynthesis:
		return "speech-synthesis"
	case StageCache:
		return "cache-insert"
	default:
		return "unknown"
	}
}

// Error classes. Callers match these with errors.Is; the root cause stays
// reachable through the same chain.
var (
	// ErrInvalidRequest marks requests the pipeline refuses to run.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrScriptGeneration marks a text-provider failure.
	ErrScriptGeneration = errors.New("script generation failed")

	// ErrSpeechSynthesis marks a speech-provider failure.
	ErrSpeechSynthesis = errors.New("speech synthesis failed")

	// ErrStorage marks a cache write failure after synthesis succeeded.
	ErrStorage = errors.New("artifact storage failed")
)

// Error wraps a stage failure. Unwrap exposes both the class sentinel and
// the root cause, so errors.Is(err, ErrSpeechSynthesis) and
// errors.Is(err, context.DeadlineExceeded) can both hold for one failure.
type Error struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
