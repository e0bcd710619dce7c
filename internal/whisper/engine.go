package whisper

import "context"

// Segment is one chronologically-ordered unit of recognized speech.
// Timestamps are in seconds from the start of the audio.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the outcome of one inference call. Segments keep the order the
// engine emitted them in.
type Result struct {
	Language string
	Duration float64
	Segments []Segment
}

type Request struct {
	AudioPath string
}

type Engine interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}
