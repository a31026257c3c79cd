package capability

import (
	"context"
	"sync"
)

// Fake implements every capability interface for tests and for running
// the CLI without real hardware. It records what was spoken and serves
// queued recognitions and captures.
type Fake struct {
	mu           sync.Mutex
	spoken       []string
	recognitions []Recognition
	captures     []string
	err          error
}

// NewFake returns an empty fake.
func NewFake() *Fake {
	return &Fake{}
}

// Fail makes every subsequent call return err.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// QueueRecognition adds a recognition for the next Listen call.
func (f *Fake) QueueRecognition(r Recognition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recognitions = append(f.recognitions, r)
}

// QueueCapture adds a photo for the next Capture call.
func (f *Fake) QueueCapture(imageData string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, imageData)
}

// Spoken returns everything spoken so far.
func (f *Fake) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func (f *Fake) Speak(ctx context.Context, text string, language string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *Fake) Listen(ctx context.Context) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Recognition{}, f.err
	}
	if len(f.recognitions) == 0 {
		return Recognition{}, nil
	}
	r := f.recognitions[0]
	f.recognitions = f.recognitions[1:]
	return r, nil
}

func (f *Fake) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(f.captures) == 0 {
		return "", nil
	}
	c := f.captures[0]
	f.captures = f.captures[1:]
	return c, nil
}

var (
	_ Synthesizer = (*Fake)(nil)
	_ Recognizer  = (*Fake)(nil)
	_ Camera      = (*Fake)(nil)
)
