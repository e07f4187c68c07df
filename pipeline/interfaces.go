package pipeline

import "context"

// ScriptGenerator produces one short spoken line for a goal. The pipeline
// cleans whatever comes back, so generators may return light markdown.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, goal, tone string, extra map[string]string) (string, error)
}

// SpeechSynthesizer renders a script into finished audio bytes for the
// given voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script, voice string, opts SynthesisOptions) ([]byte, error)
}

// VoiceLister is implemented by synthesizers that can enumerate their
// voices. Discovery only; the pipeline itself never calls it.
type VoiceLister interface {
	Voices(ctx context.Context) ([]Voice, error)
}

// Voice describes one synthesizer voice.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
