package collection

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wonderlens/internal/model"
)

type fakeStore struct {
	mu           sync.Mutex
	cards        map[string]model.KnowledgeCard
	explorations map[string]model.ExplorationRecord
	failSave     error
	failDelete   error
	release      chan struct{} // when set, writes block until closed
	started      chan struct{} // when set, signalled as a write arrives
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards:        make(map[string]model.KnowledgeCard),
		explorations: make(map[string]model.ExplorationRecord),
	}
}

func (f *fakeStore) gate() {
	f.mu.Lock()
	release := f.release
	started := f.started
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
}

// setGate arms the gate for the next write(s).
func (f *fakeStore) setGate(release, started chan struct{}) {
	f.mu.Lock()
	f.release = release
	f.started = started
	f.mu.Unlock()
}

func (f *fakeStore) SaveCard(c model.KnowledgeCard) error {
	f.gate()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCard(id string) error {
	f.gate()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.cards, id)
	return nil
}

func (f *fakeStore) ListCards() ([]model.KnowledgeCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.KnowledgeCard, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) SaveExploration(r model.ExplorationRecord) error {
	f.gate()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	f.explorations[r.ID] = r
	return nil
}

func (f *fakeStore) ListExplorations() ([]model.ExplorationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ExplorationRecord, 0, len(f.explorations))
	for _, r := range f.explorations {
		out = append(out, r)
	}
	return out, nil
}

func testCard(id string) model.KnowledgeCard {
	return model.KnowledgeCard{
		ID:   id,
		Type: model.CardScience,
		Content: model.CardContent{
			Science: &model.ScienceContent{Fact: "sparrows dust-bathe"},
		},
	}
}

func TestToggleCollectIsSynchronousThenPersists(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)

	settled := m.ToggleCard(testCard("c1"))

	// The flip is visible before persistence completes.
	assert.True(t, m.IsCollected("c1"))

	require.NoError(t, <-settled)
	st.mu.Lock()
	saved, ok := st.cards["c1"]
	st.mu.Unlock()
	require.True(t, ok)
	require.NotNil(t, saved.CollectedAt, "collect must stamp the timestamp")
}

func TestToggleUncollectDeletes(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)

	require.NoError(t, <-m.ToggleCard(testCard("c1")))
	require.True(t, m.IsCollected("c1"))

	require.NoError(t, <-m.ToggleCard(testCard("c1")))
	assert.False(t, m.IsCollected("c1"))
	st.mu.Lock()
	_, ok := st.cards["c1"]
	st.mu.Unlock()
	assert.False(t, ok, "uncollect must delete the row")
}

func TestToggleRollsBackOnPersistFailure(t *testing.T) {
	st := newFakeStore()
	st.failSave = errors.New("disk full")
	m := NewManager(st)

	settled := m.ToggleCard(testCard("c1"))
	assert.True(t, m.IsCollected("c1"), "optimistic flip applies first")

	err := <-settled
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, m.IsCollected("c1"), "flip must be rolled back")
}

func TestUncollectRollbackRestoresCard(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)
	require.NoError(t, <-m.ToggleCard(testCard("c1")))

	st.mu.Lock()
	st.failDelete = errors.New("database locked")
	st.mu.Unlock()

	err := <-m.ToggleCard(testCard("c1"))
	require.Error(t, err)
	assert.True(t, m.IsCollected("c1"), "failed uncollect restores the card")

	// The restored card keeps its original collection timestamp.
	cards := m.CollectedCards()
	require.Len(t, cards, 1)
	assert.NotNil(t, cards[0].CollectedAt)
}

func TestToggleExplorationFlipsFlag(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)

	rec := model.ExplorationRecord{
		ID:             "e1",
		Timestamp:      time.Now(),
		ObjectName:     "sparrow",
		ObjectCategory: model.CategoryAnimal,
		Confidence:     0.9,
		Age:            6,
	}
	require.NoError(t, <-m.ToggleExploration(rec))
	assert.True(t, m.ExplorationCollected("e1"))
	st.mu.Lock()
	assert.True(t, st.explorations["e1"].Collected)
	st.mu.Unlock()

	require.NoError(t, <-m.ToggleExploration(rec))
	assert.False(t, m.ExplorationCollected("e1"))
}

func TestRapidDoubleToggleLastWriteWins(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)

	// Collect, then uncollect before the collect's save settles. The
	// two persistence calls run independently; with the store applying
	// same-key writes in issue order, the uncollect's delete lands
	// last and wins.
	started := make(chan struct{}, 1)
	saveGate := make(chan struct{})
	deleteGate := make(chan struct{})

	st.setGate(saveGate, started)
	first := m.ToggleCard(testCard("c1"))
	<-started // save is in flight, still blocked

	st.setGate(deleteGate, started)
	second := m.ToggleCard(testCard("c1"))
	<-started // delete is in flight behind it

	assert.False(t, m.IsCollected("c1"), "two flips net out in memory")

	close(saveGate)
	require.NoError(t, <-first)
	close(deleteGate)
	require.NoError(t, <-second)

	// Delete completed last: the store ends with no c1.
	st.mu.Lock()
	_, exists := st.cards["c1"]
	st.mu.Unlock()
	assert.False(t, exists, "last write (delete) must win in the store")
}

func TestLoadHydratesFromStore(t *testing.T) {
	st := newFakeStore()
	now := time.Now()
	card := testCard("c1")
	card.CollectedAt = &now
	st.cards["c1"] = card
	st.explorations["e1"] = model.ExplorationRecord{ID: "e1", Collected: true}

	m := NewManager(st)
	require.NoError(t, m.Load())
	assert.True(t, m.IsCollected("c1"))
	assert.True(t, m.ExplorationCollected("e1"))
}

func TestCollectedCardsNewestFirst(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st)

	require.NoError(t, <-m.ToggleCard(testCard("c1")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, <-m.ToggleCard(testCard("c2")))

	cards := m.CollectedCards()
	require.Len(t, cards, 2)
	assert.Equal(t, "c2", cards[0].ID)
	assert.Equal(t, "c1", cards[1].ID)
}
