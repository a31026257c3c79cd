package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// =============================================================================
// CONVERSATIONS COLLECTION
// Primary key: id. Secondary indexes: session_id, timestamp.
// Assistant messages are upserted repeatedly during streaming (same id,
// growing content) and finalized once the terminal event arrives.
// =============================================================================

// SaveMessage upserts a conversation message by primary key.
func (s *LocalStore) SaveMessage(msg model.ConversationMessage) error {
	if err := model.ValidateStruct(msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	contentJSON, err := json.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("encode message content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO conversations
		 (id, session_id, type, sender, content_json, timestamp, is_streaming, markdown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.SessionID,
		string(msg.Type),
		string(msg.Sender),
		string(contentJSON),
		toTS(msg.Timestamp),
		boolToInt(msg.IsStreaming),
		boolToInt(msg.Markdown),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to save message %s: %v", msg.ID, err)
		return unavailable("save message", err)
	}
	logging.StoreDebug("Message saved: id=%s session=%s type=%s streaming=%v", msg.ID, msg.SessionID, msg.Type, msg.IsStreaming)
	return nil
}

const messageColumns = "id, session_id, type, sender, content_json, timestamp, is_streaming, markdown"

func scanMessage(scan func(dest ...any) error) (model.ConversationMessage, error) {
	var msg model.ConversationMessage
	var msgType, sender, contentJSON, ts string
	var isStreaming, markdown int
	err := scan(&msg.ID, &msg.SessionID, &msgType, &sender, &contentJSON, &ts, &isStreaming, &markdown)
	if err != nil {
		return msg, err
	}
	msg.Type = model.MessageType(msgType)
	msg.Sender = model.Sender(sender)
	msg.Timestamp = fromTS(ts)
	msg.IsStreaming = intToBool(isStreaming)
	msg.Markdown = intToBool(markdown)
	if err := json.Unmarshal([]byte(contentJSON), &msg.Content); err != nil {
		return msg, fmt.Errorf("decode content for message %s: %w", msg.ID, err)
	}
	return msg, nil
}

// GetMessage returns one message by id, or ErrNotFound.
func (s *LocalStore) GetMessage(id string) (model.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+messageColumns+" FROM conversations WHERE id = ?", id)
	msg, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return msg, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return msg, unavailable("get message", err)
	}
	return msg, nil
}

// ListMessagesBySession returns a session's messages in timestamp order.
func (s *LocalStore) ListMessagesBySession(sessionID string) ([]model.ConversationMessage, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListMessagesBySession")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT "+messageColumns+" FROM conversations WHERE session_id = ? ORDER BY timestamp ASC",
		sessionID,
	)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	defer rows.Close()

	var messages []model.ConversationMessage
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			logging.StoreDebug("Skipping unreadable message row: %v", err)
			continue
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return messages, unavailable("iterate messages", err)
	}
	return messages, nil
}

// ListSessions derives the conversation sessions from the stored
// messages: grouped by session id with created/last-active computed
// from the min/max timestamp of the group. Sessions are never stored
// directly.
func (s *LocalStore) ListSessions() ([]model.ConversationSession, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListSessions")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT session_id, MIN(timestamp), MAX(timestamp), COUNT(*)
		 FROM conversations
		 GROUP BY session_id
		 ORDER BY MAX(timestamp) DESC`,
	)
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	defer rows.Close()

	var sessions []model.ConversationSession
	for rows.Next() {
		var sess model.ConversationSession
		var created, lastActive string
		if err := rows.Scan(&sess.ID, &created, &lastActive, &sess.MessageCount); err != nil {
			continue
		}
		sess.CreatedAt = fromTS(created)
		sess.LastActive = fromTS(lastActive)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return sessions, unavailable("iterate sessions", err)
	}
	return sessions, nil
}

// DeleteMessage removes one message by primary key.
func (s *LocalStore) DeleteMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		return unavailable("delete message", err)
	}
	return nil
}

// DeleteSession removes every message of a session. The derived session
// grouping disappears with its last message.
func (s *LocalStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM conversations WHERE session_id = ?", sessionID); err != nil {
		return unavailable("delete session", err)
	}
	logging.StoreDebug("Session deleted: session=%s", sessionID)
	return nil
}

// SaveMessageBatch applies each save independently (no cross-batch
// atomicity; failures are joined).
func (s *LocalStore) SaveMessageBatch(messages []model.ConversationMessage) error {
	var errs []error
	for _, msg := range messages {
		if err := s.SaveMessage(msg); err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", msg.ID, err))
		}
	}
	return errors.Join(errs...)
}
