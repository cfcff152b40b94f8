package http

import (
	"fmt"
	"sync"
	"time"

	"github.com/JoseEM26/StoreCollection-sub000/internal/cart"
)

// Session tokens are minted per anonymous visitor, so without eviction the
// registry grows for the server's whole lifetime. An idle synchronizer is
// just a mirror; dropping it loses nothing a refresh cannot rebuild.
const (
	idleTTL       = 30 * time.Minute
	sweepInterval = time.Minute
)

// SyncRegistry hands out one cart synchronizer per (session, store). The
// synchronizer is the only path to cart state; handlers never talk to the
// backend cart endpoints directly.
type SyncRegistry struct {
	backend cart.Backend
	now     func() time.Time

	mu        sync.Mutex
	syncs     map[string]*registryEntry
	lastSweep time.Time
}

type registryEntry struct {
	sync     *cart.Synchronizer
	lastUsed time.Time
}

func NewSyncRegistry(backend cart.Backend) *SyncRegistry {
	return &SyncRegistry{
		backend: backend,
		now:     time.Now,
		syncs:   make(map[string]*registryEntry),
	}
}

func (r *SyncRegistry) For(session string, store int64) *cart.Synchronizer {
	key := fmt.Sprintf("%s/%d", session, store)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if e, ok := r.syncs[key]; ok {
		e.lastUsed = now
		return e.sync
	}

	s := cart.NewSynchronizer(r.backend, session)
	if store > 0 {
		s.SetStore(store)
	}
	r.syncs[key] = &registryEntry{sync: s, lastUsed: now}
	return s
}

// sweepLocked drops entries idle longer than idleTTL, at most once per
// sweepInterval. Callers hold r.mu.
func (r *SyncRegistry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for key, e := range r.syncs {
		if now.Sub(e.lastUsed) > idleTTL {
			delete(r.syncs, key)
		}
	}
}
