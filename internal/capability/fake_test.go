package capability

import (
	"context"
	"errors"
	"testing"
)

func TestFakeRecordsAndServes(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	if err := f.Speak(ctx, "你好", "zh"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if spoken := f.Spoken(); len(spoken) != 1 || spoken[0] != "你好" {
		t.Errorf("unexpected spoken log: %v", spoken)
	}

	f.QueueRecognition(Recognition{Transcript: "这是什么"})
	r, err := f.Listen(ctx)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if r.Transcript != "这是什么" {
		t.Errorf("Transcript = %q", r.Transcript)
	}

	f.QueueCapture("base64photo")
	img, err := f.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if img != "base64photo" {
		t.Errorf("Capture = %q", img)
	}
}

func TestFakeFailAndCancellation(t *testing.T) {
	f := NewFake()
	f.Fail(errors.New("no microphone"))
	if _, err := f.Listen(context.Background()); err == nil {
		t.Error("expected injected failure")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewFake()
	if err := g.Speak(ctx, "hi", "en"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
}
