package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"wonderlens/internal/logging"
)

// Decoder reassembles event-stream frames from arbitrarily chunked
// input and yields typed events in arrival order. It buffers only what
// frame reassembly requires; there is no reordering. After a terminal
// event (done or error) further bytes are ignored, since the transport
// may close asynchronously.
type Decoder struct {
	rest       string
	eventName  string
	dataLines  []string
	terminated bool
	frames     int
	dropped    int
}

// NewDecoder returns a decoder for one logical stream.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Terminated reports whether a terminal event has been decoded.
func (d *Decoder) Terminated() bool {
	return d.terminated
}

// Feed appends one chunk and returns every event completed by it, in
// order. A chunk may complete zero, one, or many frames; a frame may
// need many chunks. Feed after termination is a no-op.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.terminated || len(chunk) == 0 {
		return nil
	}

	data := d.rest + string(chunk)
	var events []Event
	for {
		idx := strings.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(data[:idx], "\r")
		data = data[idx+1:]

		if ev, ok := d.processLine(line); ok {
			events = append(events, ev)
			if ev.Terminal() {
				d.terminated = true
				d.rest = ""
				logging.StreamDebug("Stream terminated by %s event (frames=%d dropped=%d)", ev.Type, d.frames, d.dropped)
				return events
			}
		}
	}
	// Retain the trailing incomplete line for the next chunk.
	d.rest = data
	return events
}

// processLine accumulates one complete line into the pending frame. A
// blank line completes the frame; the returned bool reports whether a
// decoded event is ready.
func (d *Decoder) processLine(line string) (Event, bool) {
	if line == "" {
		return d.completeFrame()
	}

	switch {
	case strings.HasPrefix(line, "event:"):
		d.eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
	case strings.HasPrefix(line, "data:"):
		value := strings.TrimPrefix(line, "data:")
		value = strings.TrimPrefix(value, " ")
		d.dataLines = append(d.dataLines, value)
	case strings.HasPrefix(line, ":"):
		// Comment line, ignored.
	default:
		// Unrecognized field: ignored without failing the frame.
	}
	return Event{}, false
}

// completeFrame parses the pending frame's data as JSON into a typed
// event. A parse failure drops the frame and never aborts the stream.
func (d *Decoder) completeFrame() (Event, bool) {
	eventName := d.eventName
	dataLines := d.dataLines
	d.eventName = ""
	d.dataLines = nil

	if eventName == "" && len(dataLines) == 0 {
		// Keep-alive separator, nothing pending.
		return Event{}, false
	}
	d.frames++

	payload := strings.Join(dataLines, "\n")
	var ev Event
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			d.dropped++
			logging.Get(logging.CategoryStream).Warn("Dropping frame with invalid JSON payload (event=%s): %v", eventName, err)
			return Event{}, false
		}
	}
	if ev.Type == "" {
		ev.Type = EventType(eventName)
	}
	if ev.Type == "" {
		d.dropped++
		logging.StreamDebug("Dropping untyped frame")
		return Event{}, false
	}
	return ev, true
}

// ReadLoop drives the decoder from a chunked response body, invoking
// emit for every decoded event in order. It returns nil once a terminal
// event arrives, ErrCancelled when ctx is cancelled, and a transport
// error when the underlying read fails before a clean termination.
func ReadLoop(ctx context.Context, body io.Reader, emit func(Event)) error {
	d := NewDecoder()
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			logging.StreamDebug("Read loop cancelled before next chunk")
			return ErrCancelled
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range d.Feed(buf[:n]) {
				emit(ev)
			}
			if d.Terminated() {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if d.Terminated() {
					return nil
				}
				return fmt.Errorf("stream ended without terminal event: %w", io.ErrUnexpectedEOF)
			}
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				// Abort closed the body under us: cancelled, not failed.
				return ErrCancelled
			}
			return fmt.Errorf("stream read: %w", err)
		}
	}
}
