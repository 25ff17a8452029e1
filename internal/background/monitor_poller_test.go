package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	rows     []*models.MonitoredEmail
	listErr  error
	counts   map[string]int
	touched  []string
	countErr error
}

func (s *fakeStore) ListAll(ctx context.Context) ([]*models.MonitoredEmail, error) {
	return s.rows, s.listErr
}

func (s *fakeStore) UpdateBreachCount(ctx context.Context, id string, count int, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int{}
	}
	s.counts[id] = count
	return s.countErr
}

func (s *fakeStore) TouchCheckedAt(ctx context.Context, id string, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, id)
	return nil
}

type fakeUsers struct{}

func (fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "ghost" {
		return nil, models.ErrNotFound
	}
	if id == "no-email" {
		return &models.User{ID: id}, nil
	}
	return &models.User{ID: id, Email: id + "@owner.test"}, nil
}

type fakeChecker struct {
	counts map[string]int
	errs   map[string]error
	block  chan struct{}
}

func (c *fakeChecker) CheckEmail(ctx context.Context, email string) (*models.BreachResult, error) {
	if c.block != nil {
		<-c.block
	}
	if err := c.errs[email]; err != nil {
		return nil, err
	}
	n := c.counts[email]
	return &models.BreachResult{Email: email, Breached: n > 0, Count: n}, nil
}

type sentEmail struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *fakeNotifier) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{to, subject, htmlBody})
	return nil
}

func newTestPoller(store *fakeStore, checker *fakeChecker, notifier *fakeNotifier) *MonitorPoller {
	return NewMonitorPoller(store, fakeUsers{}, checker, notifier, slog.Default(), nil, time.Hour)
}

func TestMonitorPoller_RunOnce_NotifiesOnIncrease(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "alice", Email: "watched@example.com", LastBreachCount: 1},
	}}
	checker := &fakeChecker{counts: map[string]int{"watched@example.com": 3}}
	notifier := &fakeNotifier{}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "alice@owner.test", notifier.sent[0].to)
	assert.Equal(t, "New breach detected for watched@example.com", notifier.sent[0].subject)
	assert.Contains(t, notifier.sent[0].body, "2 new breaches")
	assert.Equal(t, 3, store.counts["m1"])
	assert.Empty(t, store.touched)
}

func TestMonitorPoller_RunOnce_NoChangeOnlyTouches(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "alice", Email: "same@example.com", LastBreachCount: 2},
		{ID: "m2", UserID: "alice", Email: "fewer@example.com", LastBreachCount: 5},
	}}
	checker := &fakeChecker{counts: map[string]int{"same@example.com": 2, "fewer@example.com": 4}}
	notifier := &fakeNotifier{}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.counts)
	assert.ElementsMatch(t, []string{"m1", "m2"}, store.touched)
}

func TestMonitorPoller_RunOnce_RowFailuresDoNotAbortScan(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "alice", Email: "broken@example.com"},
		{ID: "m2", UserID: "ghost", Email: "orphan@example.com"},
		{ID: "m3", UserID: "bob", Email: "fine@example.com"},
	}}
	checker := &fakeChecker{
		counts: map[string]int{"orphan@example.com": 1, "fine@example.com": 1},
		errs:   map[string]error{"broken@example.com": errors.New("upstream 500")},
	}
	notifier := &fakeNotifier{}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "bob@owner.test", notifier.sent[0].to)
	assert.Equal(t, 1, store.counts["m3"])
	_, orphanUpdated := store.counts["m2"]
	assert.False(t, orphanUpdated, "count is kept when the alert could not be sent")
	assert.Contains(t, store.touched, "m2")
}

func TestMonitorPoller_RunOnce_SendFailureKeepsCount(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "alice", Email: "watched@example.com"},
	}}
	checker := &fakeChecker{counts: map[string]int{"watched@example.com": 2}}
	notifier := &fakeNotifier{err: errors.New("ses throttled")}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	assert.Empty(t, store.counts)
	assert.Equal(t, []string{"m1"}, store.touched)
}

func TestMonitorPoller_RunOnce_ListFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	checker := &fakeChecker{}
	notifier := &fakeNotifier{}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.touched)
}

func TestMonitorPoller_SkipsOverlappingTicks(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "alice", Email: "slow@example.com"},
	}}
	checker := &fakeChecker{block: make(chan struct{})}
	notifier := &fakeNotifier{}
	poller := newTestPoller(store, checker, notifier)

	poller.trigger(context.Background())
	assert.True(t, poller.running.Load())

	// Second tick while the first is blocked in CheckEmail
	poller.trigger(context.Background())

	close(checker.block)
	poller.Stop()

	assert.False(t, poller.running.Load())
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, []string{"m1"}, store.touched, "only one scan should have run")
}

func TestMonitorPoller_StartStop(t *testing.T) {
	store := &fakeStore{}
	poller := NewMonitorPoller(store, fakeUsers{}, &fakeChecker{}, &fakeNotifier{}, slog.Default(), nil, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		poller.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	poller.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	// Stop is safe to call twice
	poller.Stop()
}

func TestMonitorPoller_StartHonoursContext(t *testing.T) {
	poller := NewMonitorPoller(&fakeStore{}, fakeUsers{}, &fakeChecker{}, &fakeNotifier{}, slog.Default(), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller ignored context cancellation")
	}
}

func TestMonitorPoller_RunOnce_SkipsOwnerWithoutEmail(t *testing.T) {
	store := &fakeStore{rows: []*models.MonitoredEmail{
		{ID: "m1", UserID: "no-email", Email: "watched@example.com", LastBreachCount: 0},
	}}
	checker := &fakeChecker{counts: map[string]int{"watched@example.com": 2}}
	notifier := &fakeNotifier{}

	newTestPoller(store, checker, notifier).RunOnce(context.Background())

	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.counts)
	assert.Equal(t, []string{"m1"}, store.touched)
}
