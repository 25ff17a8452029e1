package services

import (
	"context"
	"time"

	"github.com/BradenHooton/breachwatch/internal/models"
)

// MockUserRepository implements UserRepository and BillingUserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                            func(ctx context.Context, id string) (*models.User, error)
	GetByExternalIDFunc                    func(ctx context.Context, externalID string) (*models.User, error)
	CreateFunc                             func(ctx context.Context, user *models.User) (*models.User, error)
	SetStripeCustomerIDFunc                func(ctx context.Context, userID, customerID string) error
	UpdateSubscriptionFunc                 func(ctx context.Context, userID string, tier models.Tier) error
	UpdateSubscriptionByStripeCustomerFunc func(ctx context.Context, customerID string, tier models.Tier) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, externalID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	if m.SetStripeCustomerIDFunc != nil {
		return m.SetStripeCustomerIDFunc(ctx, userID, customerID)
	}
	return nil
}

func (m *MockUserRepository) UpdateSubscription(ctx context.Context, userID string, tier models.Tier) error {
	if m.UpdateSubscriptionFunc != nil {
		return m.UpdateSubscriptionFunc(ctx, userID, tier)
	}
	return nil
}

func (m *MockUserRepository) UpdateSubscriptionByStripeCustomer(ctx context.Context, customerID string, tier models.Tier) error {
	if m.UpdateSubscriptionByStripeCustomerFunc != nil {
		return m.UpdateSubscriptionByStripeCustomerFunc(ctx, customerID, tier)
	}
	return models.ErrNotFound
}

// MockUsageCounterRepository implements UsageCounterRepository for testing
type MockUsageCounterRepository struct {
	GetFunc    func(ctx context.Context, userID string) (*models.UsageCounter, error)
	CreateFunc func(ctx context.Context, counter *models.UsageCounter) error
	UpdateFunc func(ctx context.Context, userID string, count int, lastSearch time.Time) error
}

func (m *MockUsageCounterRepository) Get(ctx context.Context, userID string) (*models.UsageCounter, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUsageCounterRepository) Create(ctx context.Context, counter *models.UsageCounter) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, counter)
	}
	return nil
}

func (m *MockUsageCounterRepository) Update(ctx context.Context, userID string, count int, lastSearch time.Time) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, count, lastSearch)
	}
	return nil
}

// MockBreachLookup implements BreachLookup for testing
type MockBreachLookup struct {
	CheckEmailFunc      func(ctx context.Context, email string) (*models.BreachResult, error)
	BreachAnalyticsFunc func(ctx context.Context, email string) (*models.DetailedBreachResult, error)
}

func (m *MockBreachLookup) CheckEmail(ctx context.Context, email string) (*models.BreachResult, error) {
	if m.CheckEmailFunc != nil {
		return m.CheckEmailFunc(ctx, email)
	}
	return &models.BreachResult{Email: email}, nil
}

func (m *MockBreachLookup) BreachAnalytics(ctx context.Context, email string) (*models.DetailedBreachResult, error) {
	if m.BreachAnalyticsFunc != nil {
		return m.BreachAnalyticsFunc(ctx, email)
	}
	return &models.DetailedBreachResult{}, nil
}

// MockSearchLedger implements SearchLedger for testing
type MockSearchLedger struct {
	InsertFunc func(ctx context.Context, record *models.SearchRecord) error
}

func (m *MockSearchLedger) Insert(ctx context.Context, record *models.SearchRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, record)
	}
	return nil
}

// MockAnalyticsStore implements AnalyticsStore for testing
type MockAnalyticsStore struct {
	GetByUserIDFunc func(ctx context.Context, userID string) (*models.AnalyticsAggregate, error)
	CreateFunc      func(ctx context.Context, agg *models.AnalyticsAggregate) error
	UpdateFunc      func(ctx context.Context, agg *models.AnalyticsAggregate) error
}

func (m *MockAnalyticsStore) GetByUserID(ctx context.Context, userID string) (*models.AnalyticsAggregate, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockAnalyticsStore) Create(ctx context.Context, agg *models.AnalyticsAggregate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, agg)
	}
	return nil
}

func (m *MockAnalyticsStore) Update(ctx context.Context, agg *models.AnalyticsAggregate) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, agg)
	}
	return nil
}

// MockMonitoredEmailRepository implements MonitoredEmailRepository for testing
type MockMonitoredEmailRepository struct {
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.MonitoredEmail, error)
	CreateFunc     func(ctx context.Context, m *models.MonitoredEmail) error
	DeleteFunc     func(ctx context.Context, id, userID string) error
}

func (m *MockMonitoredEmailRepository) ListByUser(ctx context.Context, userID string) ([]*models.MonitoredEmail, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.MonitoredEmail{}, nil
}

func (m *MockMonitoredEmailRepository) Create(ctx context.Context, me *models.MonitoredEmail) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, me)
	}
	me.ID = "monitor-1"
	return nil
}

func (m *MockMonitoredEmailRepository) Delete(ctx context.Context, id, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

// MockStripeGateway implements StripeGateway for testing
type MockStripeGateway struct {
	CreateCustomerFunc        func(ctx context.Context, email string, metadata map[string]string) (string, error)
	CreateCheckoutSessionFunc func(ctx context.Context, params CheckoutParams) (string, error)
}

func (m *MockStripeGateway) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (string, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, email, metadata)
	}
	return "cus_test", nil
}

func (m *MockStripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}
	return "https://checkout.stripe.test/session", nil
}

// NewTestUser creates a test user with the given subscription tier
func NewTestUser(id, externalID, email string, tier models.Tier) *models.User {
	return &models.User{
		ID:           id,
		ExternalID:   externalID,
		Email:        email,
		Subscription: tier,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// NewTestIdentity creates a resolved caller identity for testing
func NewTestIdentity(userID string, tier models.Tier) models.Identity {
	return models.Identity{
		UserID:       userID,
		ExternalID:   "ext-" + userID,
		Email:        userID + "@example.com",
		Subscription: tier,
	}
}

// fixedClock returns a now func pinned to t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
