package store

import (
	"fmt"
	"testing"
	"time"

	"wonderlens/internal/model"
)

func textMessage(id, sessionID, text string, sender model.Sender, ts time.Time) model.ConversationMessage {
	return model.ConversationMessage{
		ID:        id,
		SessionID: sessionID,
		Type:      model.MessageText,
		Sender:    sender,
		Content:   model.MessageContent{Text: text},
		Timestamp: ts,
	}
}

func TestMessageUpsertSameID(t *testing.T) {
	st := newTestStore(t)

	ts := time.Now()
	msg := textMessage("m1", "s1", "Hel", model.SenderAssistant, ts)
	msg.IsStreaming = true
	if err := st.SaveMessage(msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	// Streaming updates reuse the id with growing content.
	msg.Content.Text = "Hello!"
	msg.IsStreaming = false
	if err := st.SaveMessage(msg); err != nil {
		t.Fatalf("SaveMessage update failed: %v", err)
	}

	msgs, err := st.ListMessagesBySession("s1")
	if err != nil {
		t.Fatalf("ListMessagesBySession failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Content.Text != "Hello!" || msgs[0].IsStreaming {
		t.Errorf("final message wrong: %+v", msgs[0])
	}
}

func TestMessagesOrderedByTimestamp(t *testing.T) {
	st := newTestStore(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		msg := textMessage(fmt.Sprintf("m%d", i), "s1", fmt.Sprintf("msg %d", i), model.SenderUser, base.Add(time.Duration(i)*time.Second))
		if err := st.SaveMessage(msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	msgs, err := st.ListMessagesBySession("s1")
	if err != nil {
		t.Fatalf("ListMessagesBySession failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("message %d out of order: %s", i, m.ID)
		}
	}
}

func TestCardMessageRoundTrip(t *testing.T) {
	st := newTestStore(t)

	msg := model.ConversationMessage{
		ID:        "m1",
		SessionID: "s1",
		Type:      model.MessageCard,
		Sender:    model.SenderAssistant,
		Content: model.MessageContent{Card: &model.KnowledgeCard{
			ID:      "c1",
			Type:    model.CardEnglish,
			Content: model.CardContent{English: &model.EnglishContent{Word: "sparrow"}},
		}},
		Timestamp: time.Now(),
	}
	if err := st.SaveMessage(msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	got, err := st.GetMessage("m1")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if got.Content.Card == nil || got.Content.Card.Content.English.Word != "sparrow" {
		t.Errorf("card content lost: %+v", got.Content)
	}
}

func TestSessionsDerivedFromMessages(t *testing.T) {
	st := newTestStore(t)

	base := time.Now().Truncate(time.Second)
	st.SaveMessage(textMessage("m1", "s1", "hi", model.SenderUser, base))
	st.SaveMessage(textMessage("m2", "s1", "hello", model.SenderAssistant, base.Add(time.Minute)))
	st.SaveMessage(textMessage("m3", "s2", "hey", model.SenderUser, base.Add(2*time.Minute)))

	sessions, err := st.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	// Most recently active first.
	if sessions[0].ID != "s2" {
		t.Errorf("expected s2 first, got %s", sessions[0].ID)
	}
	var s1 model.ConversationSession
	for _, s := range sessions {
		if s.ID == "s1" {
			s1 = s
		}
	}
	if s1.MessageCount != 2 {
		t.Errorf("s1 message count = %d, want 2", s1.MessageCount)
	}
	if !s1.CreatedAt.Equal(base) || !s1.LastActive.Equal(base.Add(time.Minute)) {
		t.Errorf("s1 window wrong: created=%v lastActive=%v", s1.CreatedAt, s1.LastActive)
	}
}

func TestDeleteSessionRemovesGrouping(t *testing.T) {
	st := newTestStore(t)

	st.SaveMessage(textMessage("m1", "s1", "hi", model.SenderUser, time.Now()))
	st.SaveMessage(textMessage("m2", "s1", "there", model.SenderUser, time.Now()))

	if err := st.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	sessions, err := st.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions after delete, got %d", len(sessions))
	}
}
