package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/BradenHooton/breachwatch/internal/models"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	checkoutSuccessPath      = "/billing/success"
	checkoutCancelPath       = "/billing/cancel"
	stripeMetadataExternalID = "external_id"
	stripeMetadataUserID     = "user_id"
)

// StripeGateway is the part of the Stripe API used for billing
type StripeGateway interface {
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
}

// CheckoutParams describes a subscription checkout session
type CheckoutParams struct {
	CustomerID        string
	ClientReferenceID string
	PriceID           string
	SuccessURL        string
	CancelURL         string
}

// BillingUserRepository defines the user operations billing depends on
type BillingUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	UpdateSubscription(ctx context.Context, userID string, tier models.Tier) error
	UpdateSubscriptionByStripeCustomer(ctx context.Context, customerID string, tier models.Tier) error
}

// BillingService connects Stripe checkout and webhooks to subscription tiers
type BillingService struct {
	gateway       StripeGateway
	users         BillingUserRepository
	priceID       string
	frontendURL   string
	webhookSecret string
	audit         *pkglogger.AuditLogger
	logger        *slog.Logger
}

func NewBillingService(
	gateway StripeGateway,
	users BillingUserRepository,
	priceID, frontendURL, webhookSecret string,
	logger *slog.Logger,
) *BillingService {
	return &BillingService{
		gateway:       gateway,
		users:         users,
		priceID:       priceID,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		webhookSecret: webhookSecret,
		audit:         pkglogger.NewAuditLogger(logger),
		logger:        logger,
	}
}

// CreateCheckout returns the URL of a subscription checkout session for the
// caller, creating a Stripe customer on first use.
func (s *BillingService) CreateCheckout(ctx context.Context, identity models.Identity) (string, error) {
	if s.priceID == "" || s.frontendURL == "" {
		s.logger.Error("missing Stripe config",
			slog.Bool("price_id", s.priceID != ""),
			slog.Bool("frontend_url", s.frontendURL != ""))
		return "", models.ErrBillingConfig
	}

	customerID, err := s.ensureCustomer(ctx, identity)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID:        customerID,
		ClientReferenceID: identity.UserID,
		PriceID:           s.priceID,
		SuccessURL:        s.frontendURL + checkoutSuccessPath,
		CancelURL:         s.frontendURL + checkoutCancelPath,
	})
	if err != nil {
		s.logger.Error("stripe checkout session failed",
			slog.String("user_id", identity.UserID),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return url, nil
}

func (s *BillingService) ensureCustomer(ctx context.Context, identity models.Identity) (string, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, map[string]string{
		stripeMetadataExternalID: user.ExternalID,
		stripeMetadataUserID:     user.ID,
	})
	if err != nil {
		s.logger.Error("stripe customer creation failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	if err := s.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", fmt.Errorf("failed to store stripe customer: %w", err)
	}

	return customerID, nil
}

// HandleWebhook verifies a Stripe event and applies the tier transition it
// implies. Unhandled event types are accepted and ignored.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		s.logger.Error("stripe webhook secret missing")
		return models.ErrWebhookSecretMissing
	}
	if signature == "" {
		return models.ErrSignatureMissing
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn("stripe webhook signature failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
	}

	switch event.Type {
	case eventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: checkout session: %v", models.ErrUnknownPayload, err)
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		return s.applyTier(ctx, string(event.Type), customerID, sess.ClientReferenceID, models.TierPro)

	case eventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: subscription: %v", models.ErrUnknownPayload, err)
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		return s.applyTier(ctx, string(event.Type), customerID, "", models.TierFree)
	}

	s.logger.Debug("ignoring stripe event", slog.String("event_type", string(event.Type)))
	return nil
}

// applyTier updates the user owning customerID, falling back to the
// checkout's client reference when the customer is not linked yet.
func (s *BillingService) applyTier(ctx context.Context, eventType, customerID, userID string, tier models.Tier) error {
	event := pkglogger.AuditEvent{EventType: eventType, UserID: userID, Source: "stripe"}

	if customerID != "" {
		err := s.users.UpdateSubscriptionByStripeCustomer(ctx, customerID, tier)
		if err == nil {
			event.Success = true
			event.Metadata = map[string]string{"stripe_customer_id": customerID}
			s.audit.LogSubscriptionChange(ctx, event, "", string(tier))
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) || userID == "" {
			event.FailureReason = err.Error()
			s.audit.LogSubscriptionChange(ctx, event, "", string(tier))
			return fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	if userID == "" {
		event.FailureReason = "missing customer id"
		s.audit.LogSubscriptionChange(ctx, event, "", string(tier))
		return fmt.Errorf("%w: missing customer id", models.ErrUnknownPayload)
	}

	if customerID != "" {
		if err := s.users.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			s.logger.Warn("failed to link stripe customer",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}

	if err := s.users.UpdateSubscription(ctx, userID, tier); err != nil {
		event.FailureReason = err.Error()
		s.audit.LogSubscriptionChange(ctx, event, "", string(tier))
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	event.Success = true
	s.audit.LogSubscriptionChange(ctx, event, "", string(tier))
	return nil
}

// StripeAPI implements StripeGateway with the stripe-go client
type StripeAPI struct{}

// NewStripeAPI sets the global Stripe key used by the resource packages
func NewStripeAPI(secretKey string) *StripeAPI {
	stripe.Key = secretKey
	return &StripeAPI{}
}

func (StripeAPI) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: metadata,
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (StripeAPI) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(p.CustomerID),
		ClientReferenceID: stripe.String(p.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}
