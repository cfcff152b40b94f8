// Package cart keeps an eventually-consistent client mirror of the
// backend's per-session, per-store cart and broadcasts the derived
// snapshot to subscribers after every completed mutation.
package cart

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

// Backend is the slice of the platform API the synchronizer needs.
type Backend interface {
	GetCart(ctx context.Context, session string, store int64) ([]domain.CartLine, error)
	AddLine(ctx context.Context, session string, store, variantID int64, quantity int) (*domain.CartLine, error)
	UpdateLine(ctx context.Context, session string, lineID, variantID int64, quantity int) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, session string, lineID int64) error
	ClearCart(ctx context.Context, session string, store int64) error
	CheckoutOnline(ctx context.Context, session string, store int64, buyer domain.BuyerDetails) (*domain.Order, error)
	CheckoutWhatsApp(ctx context.Context, session string, store int64, buyer domain.BuyerDetails) (string, error)
}

// Synchronizer mirrors one (session, store) cart. Local state changes only
// on confirmed server success or explicit reset; every mutation ends in a
// full Refresh rather than a local patch, so interleaved mutations can at
// worst produce "last refresh wins", never a partially applied view.
type Synchronizer struct {
	backend Backend
	session string

	mu      sync.Mutex
	store   int64 // 0 until a store is selected
	snap    domain.CartSnapshot
	epoch   uint64 // bumped by every accepted write; stale reads check it
	subs    map[int]chan domain.CartSnapshot
	nextSub int

	sfg singleflight.Group // collapses read-refresh stampedes only

	onlineInFlight   atomic.Bool
	whatsappInFlight atomic.Bool
}

func NewSynchronizer(backend Backend, session string) *Synchronizer {
	return &Synchronizer{
		backend: backend,
		session: session,
		subs:    make(map[int]chan domain.CartSnapshot),
	}
}

// SetStore selects the active store. Set once when known by a navigation
// event, read by every operation.
func (s *Synchronizer) SetStore(store int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// Snapshot returns the latest broadcast snapshot.
func (s *Synchronizer) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers for snapshot broadcasts. The channel holds only the
// latest snapshot: a slow subscriber observes the newest state, not a
// backlog of intermediates. The returned func tears the subscription down
// and closes the channel, so a subscriber ranging over it terminates;
// broadcasts after that are dropped.
func (s *Synchronizer) Subscribe() (<-chan domain.CartSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.CartSnapshot, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

const refreshKey = "refresh"

// Refresh fetches the full line list and replaces local state wholesale.
// Configuration errors fail fast before any network I/O. A backend failure
// on this read path degrades to an empty cart (logged), never a stale or
// blocking one. Concurrent read refreshes collapse into one flight; write
// paths use refreshAfterWrite instead, which never joins a flight.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	session, store, err := s.target()
	if err != nil {
		return err
	}

	_, _, _ = s.sfg.Do(refreshKey, func() (interface{}, error) {
		s.fetch(ctx, session, store)
		return nil, nil
	})
	return nil
}

// refreshAfterWrite re-derives state after an accepted mutation. A read
// flight that started before the write holds pre-write lines, so joining
// it would broadcast a snapshot that never reflects the accepted write:
// the epoch bump invalidates any such flight and the fetch goes direct.
func (s *Synchronizer) refreshAfterWrite(ctx context.Context) error {
	session, store, err := s.target()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	s.sfg.Forget(refreshKey)

	s.fetch(ctx, session, store)
	return nil
}

// fetch loads the backend lines and applies them unless a write landed
// after the fetch started; that write's own refresh owns the state then.
func (s *Synchronizer) fetch(ctx context.Context, session string, store int64) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	lines, err := s.backend.GetCart(ctx, session, store)
	if err != nil {
		log.Printf("cart refresh failed, degrading to empty: %v", err)
		lines = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.replaceLocked(lines)
}

// AddLine issues an add request and, on success, refreshes so that the
// server-computed price and stock truth stay authoritative — never a local
// optimistic append. The server-created line is returned for immediate UI
// feedback.
func (s *Synchronizer) AddLine(ctx context.Context, variantID int64, quantity int) (*domain.CartLine, error) {
	if variantID <= 0 {
		return nil, ErrInvalidID
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	session, store, err := s.target()
	if err != nil {
		return nil, err
	}

	line, err := s.backend.AddLine(ctx, session, store, variantID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.refreshAfterWrite(ctx); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateQuantity changes a line's quantity. A quantity below 1 is a
// deletion, not an update, and is rejected here; the caller routes it to
// RemoveLine instead.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, lineID int64, quantity int, variantID int64) error {
	if lineID <= 0 || variantID <= 0 {
		return ErrInvalidID
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	session, _, err := s.target()
	if err != nil {
		return err
	}

	if _, err := s.backend.UpdateLine(ctx, session, lineID, variantID, quantity); err != nil {
		return err
	}
	return s.refreshAfterWrite(ctx)
}

// RemoveLine deletes one line, then refreshes.
func (s *Synchronizer) RemoveLine(ctx context.Context, lineID int64) error {
	if lineID <= 0 {
		return ErrInvalidID
	}
	session, _, err := s.target()
	if err != nil {
		return err
	}

	if err := s.backend.RemoveLine(ctx, session, lineID); err != nil {
		return err
	}
	return s.refreshAfterWrite(ctx)
}

// Clear deletes the whole session/store cart server-side, then resets local
// state directly. The result is known, so no refresh round-trip is needed.
func (s *Synchronizer) Clear(ctx context.Context) error {
	session, store, err := s.target()
	if err != nil {
		return err
	}

	if err := s.backend.ClearCart(ctx, session, store); err != nil {
		return err
	}
	s.replace(nil)
	return nil
}

// CheckoutOnline submits the cart plus buyer details as one request. While
// one online checkout is outstanding a second is dropped with
// ErrCheckoutInFlight. On success the cart is refreshed; checkout consumes
// it server-side, so the refresh is expected to come back empty.
func (s *Synchronizer) CheckoutOnline(ctx context.Context, buyer domain.BuyerDetails) (*domain.Order, error) {
	session, store, err := s.target()
	if err != nil {
		return nil, err
	}
	if !s.onlineInFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInFlight
	}
	defer s.onlineInFlight.Store(false)

	order, err := s.backend.CheckoutOnline(ctx, session, store, buyer)
	if err != nil {
		return nil, err
	}

	if err := s.refreshAfterWrite(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// CheckoutWhatsApp is the deep-link checkout mode. It holds its own
// in-flight guard, independent of the online mode.
func (s *Synchronizer) CheckoutWhatsApp(ctx context.Context, buyer domain.BuyerDetails) (string, error) {
	session, store, err := s.target()
	if err != nil {
		return "", err
	}
	if !s.whatsappInFlight.CompareAndSwap(false, true) {
		return "", ErrCheckoutInFlight
	}
	defer s.whatsappInFlight.Store(false)

	link, err := s.backend.CheckoutWhatsApp(ctx, session, store, buyer)
	if err != nil {
		return "", err
	}

	if err := s.refreshAfterWrite(ctx); err != nil {
		return "", err
	}
	return link, nil
}

func (s *Synchronizer) target() (session string, store int64, err error) {
	if s.session == "" {
		return "", 0, ErrNoSession
	}
	s.mu.Lock()
	store = s.store
	s.mu.Unlock()
	if store == 0 {
		return "", 0, ErrNoStore
	}
	return s.session, store, nil
}

// replace applies a state known directly from a write (Clear). The epoch
// bump keeps any read flight still in progress from resurrecting the old
// lines afterwards.
func (s *Synchronizer) replace(lines []domain.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.replaceLocked(lines)
}

// replaceLocked swaps in a new line list, re-derives the snapshot and
// broadcasts it. Subscribers always observe the latest completed state; a
// pending older snapshot in a subscriber's buffer is dropped, not
// delivered late. Callers hold s.mu.
func (s *Synchronizer) replaceLocked(lines []domain.CartLine) {
	s.snap = domain.NewSnapshot(lines)
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.snap
	}
}
