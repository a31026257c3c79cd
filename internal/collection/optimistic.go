// Package collection applies collect/uncollect toggles optimistically:
// the in-memory state flips synchronously and persistence settles in
// the background, rolling the flip back if the write fails.
package collection

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// Store is the persistence surface the manager needs. Collected cards
// live in the cards table, so collecting saves and uncollecting
// deletes; exploration records always exist and only flip a flag.
type Store interface {
	SaveCard(model.KnowledgeCard) error
	DeleteCard(id string) error
	ListCards() ([]model.KnowledgeCard, error)
	SaveExploration(model.ExplorationRecord) error
	ListExplorations() ([]model.ExplorationRecord, error)
}

// Manager mirrors the collected state in memory and reconciles it with
// the store. Concurrent toggles on the same entity are not serialized;
// whichever persistence call completes last wins.
type Manager struct {
	store Store

	mu           sync.RWMutex
	cards        map[string]model.KnowledgeCard
	explorations map[string]model.ExplorationRecord
}

// NewManager returns an empty manager; call Load to hydrate it.
func NewManager(store Store) *Manager {
	return &Manager{
		store:        store,
		cards:        make(map[string]model.KnowledgeCard),
		explorations: make(map[string]model.ExplorationRecord),
	}
}

// Load hydrates the in-memory mirror from the store. A storage failure
// leaves the mirror empty; the caller keeps running degraded.
func (m *Manager) Load() error {
	cards, cardsErr := m.store.ListCards()
	recs, recsErr := m.store.ListExplorations()
	if cardsErr != nil || recsErr != nil {
		logging.Collection("Hydration degraded (cards: %v, explorations: %v)", cardsErr, recsErr)
		if cardsErr != nil {
			return fmt.Errorf("hydrate collection: %w", cardsErr)
		}
		return fmt.Errorf("hydrate collection: %w", recsErr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cards {
		m.cards[c.ID] = c
	}
	for _, r := range recs {
		m.explorations[r.ID] = r
	}
	logging.CollectionDebug("Hydrated %d cards, %d explorations", len(cards), len(recs))
	return nil
}

// IsCollected reports the in-memory collected state of a card.
func (m *Manager) IsCollected(cardID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cards[cardID]
	return ok
}

// CollectedCards returns a snapshot of the collected cards, most
// recently collected first.
func (m *Manager) CollectedCards() []model.KnowledgeCard {
	m.mu.RLock()
	out := make([]model.KnowledgeCard, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CollectedAt, out[j].CollectedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

// ExplorationCollected reports the in-memory collected flag of an
// exploration record.
func (m *Manager) ExplorationCollected(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.explorations[id].Collected
}

// ToggleCard flips the card's collected state. The in-memory flip is
// synchronous; the returned channel settles with the persistence
// outcome. On failure the flip has already been rolled back by the
// time the channel delivers.
func (m *Manager) ToggleCard(card model.KnowledgeCard) <-chan error {
	settled := make(chan error, 1)

	m.mu.Lock()
	prior, wasCollected := m.cards[card.ID]
	if wasCollected {
		delete(m.cards, card.ID)
	} else {
		now := time.Now()
		card.CollectedAt = &now
		m.cards[card.ID] = card
	}
	m.mu.Unlock()

	go func() {
		var err error
		if wasCollected {
			err = m.store.DeleteCard(card.ID)
		} else {
			err = m.store.SaveCard(card)
		}
		if err != nil {
			m.mu.Lock()
			if wasCollected {
				m.cards[card.ID] = prior
			} else {
				delete(m.cards, card.ID)
			}
			m.mu.Unlock()
			logging.Collection("Card %s toggle rolled back: %v", card.ID, err)
			settled <- fmt.Errorf("toggle card %s: %w", card.ID, err)
			return
		}
		logging.CollectionDebug("Card %s now collected=%t", card.ID, !wasCollected)
		settled <- nil
	}()
	return settled
}

// ToggleExploration flips the record's collected flag with the same
// optimistic contract as ToggleCard.
func (m *Manager) ToggleExploration(rec model.ExplorationRecord) <-chan error {
	settled := make(chan error, 1)

	m.mu.Lock()
	if current, ok := m.explorations[rec.ID]; ok {
		rec = current
	}
	prior := rec.Collected
	rec.Collected = !prior
	m.explorations[rec.ID] = rec
	m.mu.Unlock()

	go func() {
		if err := m.store.SaveExploration(rec); err != nil {
			m.mu.Lock()
			reverted := rec
			reverted.Collected = prior
			m.explorations[rec.ID] = reverted
			m.mu.Unlock()
			logging.Collection("Exploration %s toggle rolled back: %v", rec.ID, err)
			settled <- fmt.Errorf("toggle exploration %s: %w", rec.ID, err)
			return
		}
		logging.CollectionDebug("Exploration %s now collected=%t", rec.ID, rec.Collected)
		settled <- nil
	}()
	return settled
}
