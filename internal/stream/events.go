// Package stream decodes the backend's chunked event-stream responses
// into a strictly ordered sequence of typed application events. Frames
// arrive as `event:`/`data:` line pairs separated by blank lines and
// may be split across chunk boundaries arbitrarily.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType names one event in the closed wire vocabulary.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventMessage         EventType = "message"
	EventVoiceRecognized EventType = "voice_recognized"
	EventImageUploaded   EventType = "image_uploaded"
	EventImageProgress   EventType = "image_progress"
	EventImageDone       EventType = "image_done"
	EventCard            EventType = "card"
	EventError           EventType = "error"
	EventDone            EventType = "done"
)

// ErrCancelled is the distinct cancelled-not-failed termination of a
// read loop. It is never surfaced through the transport error path.
var ErrCancelled = errors.New("stream cancelled")

// Event is one decoded stream event. Content is kept raw; typed
// accessors decode it per event type.
type Event struct {
	Type      EventType       `json:"type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Index     int             `json:"index,omitempty"`
	Progress  int             `json:"progress,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Message   string          `json:"message,omitempty"`
	Markdown  bool            `json:"markdown,omitempty"`
}

// Terminal reports whether this event ends the logical stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// Text decodes the content as a plain text fragment. Message fragments
// are JSON strings; a raw unquoted payload is returned as-is.
func (e Event) Text() string {
	if len(e.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Content, &s); err == nil {
		return s
	}
	return string(e.Content)
}

// CardPayload is the complete knowledge card carried by a card event.
// Content stays raw here; normalization into the canonical model shape
// happens at the reconciler boundary.
type CardPayload struct {
	ID            string          `json:"id"`
	ExplorationID string          `json:"explorationId,omitempty"`
	Type          string          `json:"type"`
	Title         string          `json:"title,omitempty"`
	Content       json.RawMessage `json:"content"`
}

// Card decodes the content of a card event.
func (e Event) Card() (CardPayload, error) {
	var p CardPayload
	if e.Type != EventCard {
		return p, fmt.Errorf("event %s is not a card event", e.Type)
	}
	if err := json.Unmarshal(e.Content, &p); err != nil {
		return p, fmt.Errorf("decode card payload: %w", err)
	}
	return p, nil
}

// ImagePayload is the content of image_progress/image_done events.
type ImagePayload struct {
	URL      string `json:"url,omitempty"`
	Progress int    `json:"progress,omitempty"`
}

// Image decodes the content of an image event, falling back to the
// frame-level progress field when the content omits it.
func (e Event) Image() (ImagePayload, error) {
	var p ImagePayload
	if e.Type != EventImageProgress && e.Type != EventImageDone && e.Type != EventImageUploaded {
		return p, fmt.Errorf("event %s is not an image event", e.Type)
	}
	if len(e.Content) > 0 {
		if err := json.Unmarshal(e.Content, &p); err != nil {
			// A bare string content is the image URL.
			var s string
			if err2 := json.Unmarshal(e.Content, &s); err2 != nil {
				return p, fmt.Errorf("decode image payload: %w", err)
			}
			p.URL = s
		}
	}
	if p.Progress == 0 {
		p.Progress = e.Progress
	}
	return p, nil
}
