package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BradenHooton/breachwatch/internal/metrics"
	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/BradenHooton/breachwatch/internal/services"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

const tickTimeout = 5 * time.Minute

// errNoRecipient marks an owner without an address to alert
var errNoRecipient = errors.New("owner has no email address")

// MonitoredEmailStore is the persistence the poller reads and updates
type MonitoredEmailStore interface {
	ListAll(ctx context.Context) ([]*models.MonitoredEmail, error)
	UpdateBreachCount(ctx context.Context, id string, count int, checkedAt time.Time) error
	TouchCheckedAt(ctx context.Context, id string, checkedAt time.Time) error
}

// UserLookup resolves the owner of a monitored address
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BreachChecker returns the current breach state of an address
type BreachChecker interface {
	CheckEmail(ctx context.Context, email string) (*models.BreachResult, error)
}

// MonitorPoller periodically re-checks monitored addresses and emails the
// owner when the breach count goes up.
type MonitorPoller struct {
	store    MonitoredEmailStore
	users    UserLookup
	checker  BreachChecker
	notifier services.EmailService
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration
	now      func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// NewMonitorPoller creates a new monitor poller
func NewMonitorPoller(
	store MonitoredEmailStore,
	users UserLookup,
	checker BreachChecker,
	notifier services.EmailService,
	logger *slog.Logger,
	recorder metrics.Recorder,
	interval time.Duration,
) *MonitorPoller {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &MonitorPoller{
		store:    store,
		users:    users,
		checker:  checker,
		notifier: notifier,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called or ctx is cancelled.
// Each tick scans in its own goroutine; a tick that fires while the previous
// scan is still running is skipped.
func (p *MonitorPoller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("monitor poller started", slog.Duration("interval", p.interval))

	for {
		select {
		case <-ticker.C:
			p.trigger(ctx)
		case <-p.stopCh:
			p.logger.Info("monitor poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("monitor poller context cancelled")
			return
		}
	}
}

// Stop signals the loop to exit and waits for an in-flight scan to finish
func (p *MonitorPoller) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *MonitorPoller) trigger(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	if !p.running.CompareAndSwap(false, true) {
		p.metrics.IncMonitorTicks("skipped")
		p.logger.Warn("previous monitor scan still running, skipping tick")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)

		tickCtx, cancel := context.WithTimeout(ctx, tickTimeout)
		defer cancel()

		p.RunOnce(tickCtx)
	}()
}

// RunOnce scans every monitored address once. Failures on individual rows are
// logged and the scan moves on.
func (p *MonitorPoller) RunOnce(ctx context.Context) {
	monitored, err := p.store.ListAll(ctx)
	if err != nil {
		p.metrics.IncMonitorTicks("error")
		p.logger.Error("failed to fetch monitored emails", slog.Any("error", err))
		return
	}

	notified := 0
	for _, m := range monitored {
		if ctx.Err() != nil {
			p.logger.Warn("monitor scan interrupted", slog.Any("error", ctx.Err()))
			break
		}
		if p.check(ctx, m) {
			notified++
		}
	}

	p.metrics.IncMonitorTicks("ok")
	p.logger.Debug("monitor scan completed",
		slog.Int("checked", len(monitored)),
		slog.Int("notified", notified))
}

// check processes one monitored address and reports whether an alert was sent
func (p *MonitorPoller) check(ctx context.Context, m *models.MonitoredEmail) bool {
	log := p.logger.With(
		slog.String("monitor_id", m.ID),
		slog.String("email", pkglogger.SanitizedEmail(m.Email)))

	result, err := p.checker.CheckEmail(ctx, m.Email)
	if err != nil {
		log.Error("monitor breach check failed", slog.Any("error", err))
		return false
	}

	checkedAt := p.now()

	if result.Count <= m.LastBreachCount {
		if err := p.store.TouchCheckedAt(ctx, m.ID, checkedAt); err != nil {
			log.Error("failed to update last checked time", slog.Any("error", err))
		}
		return false
	}

	if err := p.notify(ctx, m, result.Count-m.LastBreachCount); err != nil {
		// Leave the stored count alone so the next scan retries the alert
		if errors.Is(err, errNoRecipient) {
			log.Warn("skipping breach alert, owner has no email address", slog.String("user_id", m.UserID))
		} else {
			log.Error("failed to send breach alert", slog.Any("error", err))
		}
		if err := p.store.TouchCheckedAt(ctx, m.ID, checkedAt); err != nil {
			log.Error("failed to update last checked time", slog.Any("error", err))
		}
		return false
	}

	if err := p.store.UpdateBreachCount(ctx, m.ID, result.Count, checkedAt); err != nil {
		log.Error("failed to update breach count", slog.Any("error", err))
	}

	log.Info("breach alert sent",
		slog.Int("previous_count", m.LastBreachCount),
		slog.Int("breach_count", result.Count))

	return true
}

func (p *MonitorPoller) notify(ctx context.Context, m *models.MonitoredEmail, delta int) error {
	owner, err := p.users.GetByID(ctx, m.UserID)
	if err != nil {
		return err
	}
	if owner.Email == "" {
		return errNoRecipient
	}

	subject, body := services.BreachAlert(m.Email, delta)
	if err := p.notifier.SendEmail(ctx, owner.Email, subject, body); err != nil {
		return err
	}

	p.metrics.IncNotificationsSent()
	return nil
}
