// Package conversation reconciles a decoded event stream into persisted
// conversation state. One reconciliation runs per session at a time:
// fragments accumulate into a single assistant message that is snapshot
// to the UI on every fragment and persisted exactly once on completion,
// while card/image/voice events become discrete messages persisted as
// they arrive.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
	"wonderlens/internal/stream"
)

// State names one phase of a reconciliation.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateStreaming
	StateDone
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Once the accumulated text reaches this length, each fragment append
// re-checks for formatting markers until the flag latches.
const markdownScanThreshold = 24

// Store is the persistence surface the reconciler needs.
type Store interface {
	SaveMessage(model.ConversationMessage) error
}

// Callbacks deliver reconciliation output to the UI layer. Nil
// callbacks are skipped. OnMessage fires for every fragment snapshot
// and every discrete non-text message, in arrival order.
type Callbacks struct {
	OnMessage  func(model.ConversationMessage)
	OnDone     func(model.ConversationMessage)
	OnError    func(error)
	OnProgress func(percent int)
}

// Reconciler owns the per-session active reconciliations.
type Reconciler struct {
	store Store

	mu     sync.Mutex
	active map[string]*run
}

// run is one in-flight reconciliation.
type run struct {
	sessionID string
	cancel    context.CancelFunc
	finished  chan struct{}

	state     State
	messageID string
	createdAt time.Time
	buf       strings.Builder
	markdown  bool
	persisted bool
}

// NewReconciler returns a reconciler persisting through store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{
		store:  store,
		active: make(map[string]*run),
	}
}

// SaveUserMessage persists the user's outgoing message before the
// response stream starts, so it survives even when the stream fails.
func (r *Reconciler) SaveUserMessage(sessionID string, msgType model.MessageType, content model.MessageContent) (model.ConversationMessage, error) {
	msg := model.ConversationMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      msgType,
		Sender:    model.SenderUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := r.store.SaveMessage(msg); err != nil {
		return model.ConversationMessage{}, fmt.Errorf("persist user message: %w", err)
	}
	return msg, nil
}

// Start begins reconciling the response body for sessionID, aborting
// and waiting out any prior active reconciliation for the same session.
// It blocks until the stream terminates; callers wanting concurrency
// run it in a goroutine. The returned error is nil for both a clean
// done and an explicit abort.
func (r *Reconciler) Start(ctx context.Context, sessionID string, body io.Reader, cb Callbacks) error {
	runCtx, cancel := context.WithCancel(ctx)

	// The slot may be re-taken by a concurrent Start while the lock is
	// dropped to wait out the prior run; keep re-checking until the
	// session is empty, so exactly one run ever occupies it and every
	// run stays reachable through the map.
	r.mu.Lock()
	for {
		prior, ok := r.active[sessionID]
		if !ok {
			break
		}
		prior.cancel()
		r.mu.Unlock()
		<-prior.finished
		r.mu.Lock()
	}
	cur := &run{
		sessionID: sessionID,
		cancel:    cancel,
		finished:  make(chan struct{}),
		state:     StateIdle,
		createdAt: time.Now(),
	}
	r.active[sessionID] = cur
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		if r.active[sessionID] == cur {
			delete(r.active, sessionID)
		}
		r.mu.Unlock()
		close(cur.finished)
	}()

	// Cancellation must unblock a read in progress, the way an aborted
	// HTTP request closes its response body under the reader.
	if closer, ok := body.(io.Closer); ok {
		go func() {
			<-runCtx.Done()
			closer.Close()
		}()
	}

	err := stream.ReadLoop(runCtx, body, func(ev stream.Event) {
		r.handleEvent(cur, ev, cb)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stream.ErrCancelled):
		cur.state = StateCancelled
		logging.Conv("Session %s: stream cancelled after %d bytes of text", sessionID, cur.buf.Len())
		return nil
	default:
		cur.state = StateErrored
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}
}

// Abort cancels the active reconciliation for sessionID, if any, and
// waits for it to wind down. The partial buffer is discarded.
func (r *Reconciler) Abort(sessionID string) {
	r.mu.Lock()
	cur, ok := r.active[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}
	cur.cancel()
	<-cur.finished
}

// Active reports whether a reconciliation is in flight for sessionID.
func (r *Reconciler) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[sessionID]
	return ok
}

func (r *Reconciler) handleEvent(cur *run, ev stream.Event, cb Callbacks) {
	switch ev.Type {
	case stream.EventConnected:
		cur.state = StateConnected
		cur.messageID = ev.MessageID
		if cur.messageID == "" {
			cur.messageID = uuid.NewString()
		}
		logging.ConvDebug("Session %s: connected, assistant message %s", cur.sessionID, cur.messageID)

	case stream.EventMessage:
		cur.state = StateStreaming
		if cur.messageID == "" {
			cur.messageID = uuid.NewString()
		}
		cur.buf.WriteString(ev.Text())
		if ev.Markdown {
			cur.markdown = true
		}
		if !cur.markdown && cur.buf.Len() >= markdownScanThreshold {
			cur.markdown = looksLikeMarkdown(cur.buf.String())
		}
		if cb.OnMessage != nil {
			cb.OnMessage(cur.snapshot(true))
		}

	case stream.EventVoiceRecognized:
		msg := model.ConversationMessage{
			ID:        uuid.NewString(),
			SessionID: cur.sessionID,
			Type:      model.MessageVoice,
			Sender:    model.SenderUser,
			Content:   model.MessageContent{Voice: &model.VoiceContent{Transcript: ev.Text()}},
			Timestamp: time.Now(),
		}
		r.persistDiscrete(cur, msg, cb)

	case stream.EventCard:
		payload, err := ev.Card()
		if err != nil {
			logging.Conv("Session %s: dropping undecodable card event: %v", cur.sessionID, err)
			return
		}
		cardType := model.CardType(payload.Type)
		content, err := model.NormalizeCardContent(cardType, payload.Content)
		if err != nil {
			logging.Conv("Session %s: dropping card %s with bad content: %v", cur.sessionID, payload.ID, err)
			return
		}
		card := &model.KnowledgeCard{
			ID:            payload.ID,
			ExplorationID: payload.ExplorationID,
			Type:          cardType,
			Title:         payload.Title,
			Content:       content,
		}
		if card.ID == "" {
			card.ID = uuid.NewString()
		}
		msg := model.ConversationMessage{
			ID:        uuid.NewString(),
			SessionID: cur.sessionID,
			Type:      model.MessageCard,
			Sender:    model.SenderAssistant,
			Content:   model.MessageContent{Card: card},
			Timestamp: time.Now(),
		}
		r.persistDiscrete(cur, msg, cb)

	case stream.EventImageUploaded, stream.EventImageDone:
		img, err := ev.Image()
		if err != nil {
			logging.Conv("Session %s: dropping undecodable image event: %v", cur.sessionID, err)
			return
		}
		msg := model.ConversationMessage{
			ID:        uuid.NewString(),
			SessionID: cur.sessionID,
			Type:      model.MessageImage,
			Sender:    model.SenderAssistant,
			Content: model.MessageContent{Image: &model.ImageContent{
				URL:  img.URL,
				Done: ev.Type == stream.EventImageDone,
			}},
			Timestamp: time.Now(),
		}
		if ev.Type == stream.EventImageUploaded {
			msg.Sender = model.SenderUser
		}
		r.persistDiscrete(cur, msg, cb)

	case stream.EventImageProgress:
		// Ephemeral: forwarded, never persisted.
		img, err := ev.Image()
		if err != nil {
			return
		}
		if cb.OnProgress != nil {
			cb.OnProgress(img.Progress)
		}

	case stream.EventDone:
		cur.state = StateDone
		r.finalize(cur, cb)

	case stream.EventError:
		cur.state = StateErrored
		logging.Conv("Session %s: backend error: %s", cur.sessionID, ev.Message)
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("backend: %s", ev.Message))
		}
	}
}

// snapshot builds the current in-memory assistant message.
func (cur *run) snapshot(streaming bool) model.ConversationMessage {
	return model.ConversationMessage{
		ID:          cur.messageID,
		SessionID:   cur.sessionID,
		Type:        model.MessageText,
		Sender:      model.SenderAssistant,
		Content:     model.MessageContent{Text: cur.buf.String()},
		Timestamp:   cur.createdAt,
		IsStreaming: streaming,
		Markdown:    cur.markdown,
	}
}

// finalize persists the accumulated assistant message exactly once and
// signals completion. A done event with no preceding fragments still
// completes, it just has nothing to persist.
func (r *Reconciler) finalize(cur *run, cb Callbacks) {
	if cur.persisted {
		return
	}
	cur.persisted = true

	final := cur.snapshot(false)
	if cur.buf.Len() > 0 {
		if err := r.store.SaveMessage(final); err != nil {
			logging.Conv("Session %s: persisting final message %s failed: %v", cur.sessionID, final.ID, err)
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("persist assistant message: %w", err))
			}
			return
		}
		logging.ConvDebug("Session %s: finalized message %s (%d chars, markdown=%t)", cur.sessionID, final.ID, len(final.Content.Text), final.Markdown)
	}
	if cb.OnDone != nil {
		cb.OnDone(final)
	}
}

// persistDiscrete saves a non-text event's message immediately and
// forwards it. A storage failure is surfaced but does not stop the
// stream.
func (r *Reconciler) persistDiscrete(cur *run, msg model.ConversationMessage, cb Callbacks) {
	if err := r.store.SaveMessage(msg); err != nil {
		logging.Conv("Session %s: persisting %s message failed: %v", cur.sessionID, msg.Type, err)
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("persist %s message: %w", msg.Type, err))
		}
	}
	if cb.OnMessage != nil {
		cb.OnMessage(msg)
	}
}

// looksLikeMarkdown scans for the formatting markers that warrant rich
// rendering: headings, emphasis, code spans, blockquotes, links, and
// list items.
func looksLikeMarkdown(s string) bool {
	if strings.ContainsAny(s, "#*`") {
		return true
	}
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "- "), strings.HasPrefix(t, "> "), strings.HasPrefix(t, "["):
			return true
		case len(t) > 2 && t[0] >= '0' && t[0] <= '9' && t[1] == '.' && t[2] == ' ':
			return true
		}
	}
	return false
}
