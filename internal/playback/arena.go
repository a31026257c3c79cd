// Package playback arbitrates the single audio playback slot. Only one
// card or message reads aloud at a time; claiming the slot evicts the
// current owner, which observes its eviction channel and stops.
package playback

import (
	"sync"

	"wonderlens/internal/logging"
)

// Arena is the playback slot. The zero value is not usable; use New.
type Arena struct {
	mu       sync.Mutex
	owner    string
	evicted  chan struct{}
	watchers []chan string
}

// New returns an empty arena with no owner.
func New() *Arena {
	return &Arena{}
}

// Claim takes the slot for ownerID, evicting any current owner. The
// returned channel closes when a later claim (or Stop) evicts this
// owner. Re-claiming by the current owner is a no-op returning the
// same channel.
func (a *Arena) Claim(ownerID string) <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.owner == ownerID && a.evicted != nil {
		return a.evicted
	}
	if a.evicted != nil {
		close(a.evicted)
		logging.PlaybackDebug("Evicting %s for %s", a.owner, ownerID)
	}
	a.owner = ownerID
	a.evicted = make(chan struct{})
	a.notify(ownerID)
	return a.evicted
}

// Release gives the slot up, but only if ownerID still holds it. A
// stale release after eviction is a no-op.
func (a *Arena) Release(ownerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.owner != ownerID {
		return
	}
	close(a.evicted)
	a.owner = ""
	a.evicted = nil
	a.notify("")
}

// Stop evicts whoever currently holds the slot.
func (a *Arena) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.evicted == nil {
		return
	}
	close(a.evicted)
	a.owner = ""
	a.evicted = nil
	a.notify("")
}

// Current returns the id holding the slot, or "" when idle.
func (a *Arena) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owner
}

// Watch returns a channel receiving the owner id on every slot change
// ("" for idle). Slow watchers miss intermediate changes rather than
// blocking claims.
func (a *Arena) Watch() <-chan string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan string, 4)
	a.watchers = append(a.watchers, ch)
	return ch
}

func (a *Arena) notify(owner string) {
	for _, ch := range a.watchers {
		select {
		case ch <- owner:
		default:
		}
	}
}
