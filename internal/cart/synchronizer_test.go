package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

type mockBackend struct {
	m     sync.Mutex
	lines []domain.CartLine
	err   error

	getCalls      int
	addCalls      int
	updateCalls   int
	removeCalls   int
	clearCalls    int
	checkoutCalls int

	checkoutStarted chan struct{} // closed when the first checkout arrives
	checkoutRelease chan struct{} // checkout blocks until this is closed

	getStarted chan struct{} // closed when the first GetCart arrives
	getRelease chan struct{} // the first GetCart blocks until this is closed
}

func (m *mockBackend) GetCart(context.Context, string, int64) ([]domain.CartLine, error) {
	m.m.Lock()
	m.getCalls++
	first := m.getCalls == 1
	err := m.err
	// capture the lines as of this call; later writes must not leak into
	// a response that is still in flight
	lines := make([]domain.CartLine, len(m.lines))
	copy(lines, m.lines)
	started := m.getStarted
	release := m.getRelease
	m.m.Unlock()

	if first && release != nil {
		if started != nil {
			close(started)
		}
		<-release
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (m *mockBackend) AddLine(_ context.Context, _ string, _, variantID int64, quantity int) (*domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.addCalls++
	if m.err != nil {
		return nil, m.err
	}
	line := domain.CartLine{
		ID:        int64(len(m.lines) + 1),
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString("10.00"),
	}
	m.lines = append(m.lines, line)
	return &line, nil
}

func (m *mockBackend) UpdateLine(_ context.Context, _ string, lineID, variantID int64, quantity int) (*domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.updateCalls++
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.lines {
		if m.lines[i].ID == lineID {
			m.lines[i].Quantity = quantity
			m.lines[i].VariantID = variantID
			return &m.lines[i], nil
		}
	}
	return nil, errors.New("line not found")
}

func (m *mockBackend) RemoveLine(_ context.Context, _ string, lineID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.removeCalls++
	if m.err != nil {
		return m.err
	}
	for i, l := range m.lines {
		if l.ID == lineID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return nil
		}
	}
	return errors.New("line not found")
}

func (m *mockBackend) ClearCart(context.Context, string, int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.clearCalls++
	if m.err != nil {
		return m.err
	}
	m.lines = nil
	return nil
}

func (m *mockBackend) CheckoutOnline(context.Context, string, int64, domain.BuyerDetails) (*domain.Order, error) {
	m.m.Lock()
	m.checkoutCalls++
	started := m.checkoutStarted
	release := m.checkoutRelease
	err := m.err
	m.m.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}

	m.m.Lock()
	m.lines = nil // checkout consumes the cart server-side
	m.m.Unlock()
	return &domain.Order{ID: 77, Status: "created", Total: decimal.RequireFromString("20.00")}, nil
}

func (m *mockBackend) CheckoutWhatsApp(context.Context, string, int64, domain.BuyerDetails) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.checkoutCalls++
	if m.err != nil {
		return "", m.err
	}
	m.lines = nil
	return "https://wa.me/51999999999?text=order", nil
}

func newTestSync(backend *mockBackend) *Synchronizer {
	s := NewSynchronizer(backend, "session-1")
	s.SetStore(42)
	return s
}

func TestRefresh_NoStoreFailsFastWithoutNetwork(t *testing.T) {
	backend := &mockBackend{}
	s := NewSynchronizer(backend, "session-1")
	// no SetStore

	err := s.Refresh(context.Background())

	require.ErrorIs(t, err, ErrNoStore)
	assert.Equal(t, 0, backend.getCalls, "configuration errors must never reach the network")
}

func TestRefresh_NoSession(t *testing.T) {
	backend := &mockBackend{}
	s := NewSynchronizer(backend, "")
	s.SetStore(42)

	require.ErrorIs(t, s.Refresh(context.Background()), ErrNoSession)
	assert.Equal(t, 0, backend.getCalls)
}

func TestRefresh_ReplacesStateWholesale(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("19.90")},
		{ID: 2, VariantID: 11, Quantity: 1, UnitPrice: decimal.RequireFromString("5.05")},
	}}
	s := newTestSync(backend)

	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, snap.TotalPrice.Equal(decimal.RequireFromString("44.85")))
}

func TestRefresh_BackendErrorDegradesToEmpty(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("19.90")},
	}}
	s := newTestSync(backend)
	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, 2, s.Snapshot().ItemCount)

	backend.m.Lock()
	backend.err = errors.New("backend down")
	backend.m.Unlock()

	err := s.Refresh(context.Background())

	assert.NoError(t, err, "read failures degrade, they do not block")
	assert.Equal(t, 0, s.Snapshot().ItemCount)
	assert.Empty(t, s.Snapshot().Lines)
}

func TestAddLine_RefreshesAndReturnsCreatedLine(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	line, err := s.AddLine(context.Background(), 10, 2)

	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, int64(10), line.VariantID)
	assert.Equal(t, 1, backend.addCalls)
	assert.Equal(t, 1, backend.getCalls, "every successful add ends in a full refresh")
	assert.Equal(t, 2, s.Snapshot().ItemCount)
}

func TestAddLine_Validation(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	_, err := s.AddLine(context.Background(), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.AddLine(context.Background(), 10, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, 0, backend.addCalls)
}

func TestAddLine_BackendErrorLeavesStateUntouched(t *testing.T) {
	backend := &mockBackend{err: errors.New("stock gone")}
	s := newTestSync(backend)

	_, err := s.AddLine(context.Background(), 10, 1)

	require.Error(t, err)
	assert.Equal(t, 0, s.Snapshot().ItemCount)
	assert.Equal(t, 0, backend.getCalls, "no refresh after a failed write")
}

func TestUpdateQuantity_RejectsDeletionQuantity(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	}}
	s := newTestSync(backend)

	err := s.UpdateQuantity(context.Background(), 1, 0, 10)

	require.ErrorIs(t, err, ErrInvalidQuantity,
		"quantity below 1 is a deletion and must not be sent as an update")
	assert.Equal(t, 0, backend.updateCalls)
}

func TestUpdateQuantity_Success(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	}}
	s := newTestSync(backend)

	require.NoError(t, s.UpdateQuantity(context.Background(), 1, 5, 10))

	assert.Equal(t, 1, backend.updateCalls)
	assert.Equal(t, 5, s.Snapshot().ItemCount)
	assert.True(t, s.Snapshot().TotalPrice.Equal(decimal.RequireFromString("50.00")))
}

func TestRemoveLine_Refreshes(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ID: 2, VariantID: 11, Quantity: 1, UnitPrice: decimal.RequireFromString("3.00")},
	}}
	s := newTestSync(backend)

	require.NoError(t, s.RemoveLine(context.Background(), 1))

	assert.Equal(t, 1, backend.removeCalls)
	assert.Equal(t, 1, s.Snapshot().ItemCount)
}

func TestClear_NoRefreshRoundTrip(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	}}
	s := newTestSync(backend)
	require.NoError(t, s.Refresh(context.Background()))
	getCallsAfterRefresh := backend.getCalls

	require.NoError(t, s.Clear(context.Background()))

	assert.Equal(t, 1, backend.clearCalls)
	assert.Equal(t, getCallsAfterRefresh, backend.getCalls,
		"clear resets locally, the result is already known")
	assert.Equal(t, 0, s.Snapshot().ItemCount)
}

func TestCheckoutOnline_RefreshComesBackEmpty(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	}}
	s := newTestSync(backend)
	require.NoError(t, s.Refresh(context.Background()))

	order, err := s.CheckoutOnline(context.Background(), domain.BuyerDetails{Name: "Ana", Email: "ana@example.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(77), order.ID)
	assert.Equal(t, 0, s.Snapshot().ItemCount, "checkout consumes the cart server-side")
}

func TestCheckoutOnline_DoubleSubmitDropped(t *testing.T) {
	backend := &mockBackend{
		lines:           []domain.CartLine{{ID: 1, VariantID: 10, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")}},
		checkoutStarted: make(chan struct{}),
		checkoutRelease: make(chan struct{}),
	}
	s := newTestSync(backend)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.CheckoutOnline(context.Background(), domain.BuyerDetails{Name: "Ana"})
		firstDone <- err
	}()

	select {
	case <-backend.checkoutStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first checkout never reached the backend")
	}

	_, err := s.CheckoutOnline(context.Background(), domain.BuyerDetails{Name: "Ana"})
	require.ErrorIs(t, err, ErrCheckoutInFlight)

	close(backend.checkoutRelease)
	require.NoError(t, <-firstDone)

	backend.m.Lock()
	defer backend.m.Unlock()
	assert.Equal(t, 1, backend.checkoutCalls, "the duplicate must never produce a second order")
}

func TestCheckoutWhatsApp_ReturnsDeepLink(t *testing.T) {
	backend := &mockBackend{lines: []domain.CartLine{
		{ID: 1, VariantID: 10, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
	}}
	s := newTestSync(backend)

	link, err := s.CheckoutWhatsApp(context.Background(), domain.BuyerDetails{Name: "Ana", Phone: "+51 999 999 999"})

	require.NoError(t, err)
	assert.Contains(t, link, "wa.me")
}

func TestSubscribe_ObservesLatestSnapshotAfterMutation(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	ch, cancel := s.Subscribe()
	defer cancel()

	_, err := s.AddLine(context.Background(), 10, 3)
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, 3, snap.ItemCount)
	case <-time.After(time.Second):
		t.Fatal("no snapshot broadcast after mutation")
	}
}

func TestSubscribe_SlowSubscriberSeesNewestState(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	ch, cancel := s.Subscribe()
	defer cancel()

	_, err := s.AddLine(context.Background(), 10, 1)
	require.NoError(t, err)
	_, err = s.AddLine(context.Background(), 11, 1)
	require.NoError(t, err)

	snap := <-ch
	assert.Equal(t, 2, snap.ItemCount, "intermediate snapshots are not queued")
}

func TestUpdateQuantity_NotSatisfiedByEarlierRefreshFlight(t *testing.T) {
	backend := &mockBackend{
		lines: []domain.CartLine{
			{ID: 1, VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
		getStarted: make(chan struct{}),
		getRelease: make(chan struct{}),
	}
	s := newTestSync(backend)

	// A read refresh captures quantity 2 from the backend, then stalls
	// before delivering.
	refreshDone := make(chan struct{})
	go func() {
		_ = s.Refresh(context.Background())
		close(refreshDone)
	}()
	select {
	case <-backend.getStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never reached the backend")
	}

	// The mutation completes while that read is still in flight. Its own
	// refresh must re-fetch; joining the stalled flight would broadcast a
	// snapshot that never reflects the accepted write.
	require.NoError(t, s.UpdateQuantity(context.Background(), 1, 5, 10))
	assert.Equal(t, 5, s.Snapshot().ItemCount,
		"snapshot after a completed update must reflect the backend state")

	close(backend.getRelease)
	select {
	case <-refreshDone:
	case <-time.After(2 * time.Second):
		t.Fatal("stalled refresh never finished")
	}

	assert.Equal(t, 5, s.Snapshot().ItemCount,
		"a read that started before the write must not clobber its result")
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	ch, cancel := s.Subscribe()
	cancel()
	cancel() // second cancel is a no-op

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed so ranging subscribers terminate")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestUnsubscribe_DropsLateBroadcasts(t *testing.T) {
	backend := &mockBackend{}
	s := newTestSync(backend)

	ch, cancel := s.Subscribe()
	cancel()

	_, err := s.AddLine(context.Background(), 10, 1)
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("broadcast delivered after unsubscribe")
		}
	default:
	}
}
