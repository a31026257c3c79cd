// Package capability abstracts the platform features the core logic
// needs but cannot own: reading text aloud, recognizing speech, and
// capturing photos. Core packages depend only on these interfaces; a
// platform wires in its implementation and tests use the fake.
package capability

import "context"

// Synthesizer reads text aloud. Speak blocks until playback finishes
// or ctx is cancelled; cancellation stops the audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string, language string) error
}

// Recognizer records speech and returns either a transcript or the
// raw audio for server-side recognition, depending on the platform.
type Recognizer interface {
	Listen(ctx context.Context) (Recognition, error)
}

// Recognition is the outcome of one listening session. Exactly one of
// Transcript and AudioData is set.
type Recognition struct {
	Transcript string
	AudioData  string // base64 payload for server-side recognition
}

// Camera captures a photo and returns it base64-encoded.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}
