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
// CARDS COLLECTION
// Primary key: id. Secondary indexes: exploration_id, type.
// Membership in this collection IS the collected state: saving a card
// collects it, deleting it uncollects it. There is no separate flag.
// =============================================================================

// SaveCard upserts a knowledge card by primary key (full overwrite).
func (s *LocalStore) SaveCard(card model.KnowledgeCard) error {
	if err := model.ValidateStruct(card); err != nil {
		return fmt.Errorf("invalid card: %w", err)
	}

	contentJSON, err := json.Marshal(card.Content)
	if err != nil {
		return fmt.Errorf("encode card content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO cards
		 (id, exploration_id, type, title, content_json, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		card.ID,
		card.ExplorationID,
		string(card.Type),
		card.Title,
		string(contentJSON),
		nullableTS(card.CollectedAt),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to save card %s: %v", card.ID, err)
		return unavailable("save card", err)
	}
	logging.StoreDebug("Card saved: id=%s type=%s", card.ID, card.Type)
	return nil
}

const cardColumns = "id, exploration_id, type, title, content_json, collected_at"

func scanCard(scan func(dest ...any) error) (model.KnowledgeCard, error) {
	var card model.KnowledgeCard
	var explorationID, title sql.NullString
	var cardType, contentJSON string
	var collectedAt sql.NullString
	err := scan(&card.ID, &explorationID, &cardType, &title, &contentJSON, &collectedAt)
	if err != nil {
		return card, err
	}
	card.ExplorationID = explorationID.String
	card.Type = model.CardType(cardType)
	card.Title = title.String
	card.CollectedAt = fromNullableTS(collectedAt)
	if err := json.Unmarshal([]byte(contentJSON), &card.Content); err != nil {
		return card, fmt.Errorf("decode content for card %s: %w", card.ID, err)
	}
	return card, nil
}

// GetCard returns one card by id, or ErrNotFound.
func (s *LocalStore) GetCard(id string) (model.KnowledgeCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	card, err := scanCard(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return card, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return card, unavailable("get card", err)
	}
	return card, nil
}

// HasCard reports whether a card is present, which is exactly the
// collected state.
func (s *LocalStore) HasCard(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cards WHERE id = ?", id).Scan(&count); err != nil {
		return false, unavailable("check card", err)
	}
	return count > 0, nil
}

// ListCards returns all collected cards, most recently collected first.
func (s *LocalStore) ListCards() ([]model.KnowledgeCard, error) {
	return s.queryCards("SELECT " + cardColumns + " FROM cards ORDER BY collected_at DESC")
}

// ListCardsByExploration returns the cards referencing one exploration.
func (s *LocalStore) ListCardsByExploration(explorationID string) ([]model.KnowledgeCard, error) {
	return s.queryCards(
		"SELECT "+cardColumns+" FROM cards WHERE exploration_id = ? ORDER BY collected_at DESC",
		explorationID,
	)
}

// ListCardsByType returns collected cards of one variant.
func (s *LocalStore) ListCardsByType(cardType model.CardType) ([]model.KnowledgeCard, error) {
	return s.queryCards(
		"SELECT "+cardColumns+" FROM cards WHERE type = ? ORDER BY collected_at DESC",
		string(cardType),
	)
}

func (s *LocalStore) queryCards(query string, args ...any) ([]model.KnowledgeCard, error) {
	timer := logging.StartTimer(logging.CategoryStore, "queryCards")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, unavailable("list cards", err)
	}
	defer rows.Close()

	var cards []model.KnowledgeCard
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			logging.StoreDebug("Skipping unreadable card row: %v", err)
			continue
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return cards, unavailable("iterate cards", err)
	}
	return cards, nil
}

// DeleteCard removes a card by primary key (uncollect).
func (s *LocalStore) DeleteCard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM cards WHERE id = ?", id); err != nil {
		return unavailable("delete card", err)
	}
	logging.StoreDebug("Card deleted: id=%s", id)
	return nil
}

// SaveCardBatch applies each save independently; partial failure leaves
// the succeeding subset applied (documented looseness, not atomicity).
func (s *LocalStore) SaveCardBatch(cards []model.KnowledgeCard) error {
	var errs []error
	for _, card := range cards {
		if err := s.SaveCard(card); err != nil {
			errs = append(errs, fmt.Errorf("card %s: %w", card.ID, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteCardBatch deletes each id independently; same semantics as
// SaveCardBatch.
func (s *LocalStore) DeleteCardBatch(ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.DeleteCard(id); err != nil {
			errs = append(errs, fmt.Errorf("card %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
