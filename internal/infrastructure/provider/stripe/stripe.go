package stripe

import (
	"context"
	"errors"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/provider"
)

const providerName = "stripe"

const codeInvoiceUpcomingNone = "invoice_upcoming_none"

// StripeProvider implements provider.BillingProvider and provider.WebhookParser.
type StripeProvider struct {
	api           *client.API
	priceID       string
	webhookSecret string
	logger        *zap.Logger
}

// Option customizes the Stripe backend, mostly for tests.
type Option func(*stripeapi.BackendConfig)

// WithMaxNetworkRetries overrides the client retry count.
func WithMaxNetworkRetries(n int64) Option {
	return func(c *stripeapi.BackendConfig) {
		c.MaxNetworkRetries = stripeapi.Int64(n)
	}
}

// NewStripeProvider creates a Stripe client bound to cfg. Requests are logged
// through logger instead of the library's stderr logger.
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger, opts ...Option) *StripeProvider {
	backendCfg := &stripeapi.BackendConfig{
		LeveledLogger: logger.Named("stripe").Sugar(),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripeapi.String(cfg.APIURL)
	}
	for _, opt := range opts {
		opt(backendCfg)
	}

	backends := &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendCfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendCfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendCfg),
	}

	return &StripeProvider{
		api:           client.New(cfg.SecretKey, backends),
		priceID:       cfg.PriceID,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// CreateCheckoutSession creates a hosted subscription checkout for one seat of the configured price.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	priceID := req.PriceID
	if priceID == "" {
		priceID = s.priceID
	}

	metadata := map[string]string{"company_id": req.CompanyID}
	params := &stripeapi.CheckoutSessionParams{
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(priceID),
				Quantity: stripeapi.Int64(1),
			},
		},
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		ClientReferenceID: stripeapi.String(req.CompanyID),
		Metadata:          metadata,
		SubscriptionData: &stripeapi.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrapError("create checkout session", err)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("company_id", req.CompanyID),
	)

	return &entity.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	params := &stripeapi.SubscriptionParams{
		CancelAtPeriodEnd: stripeapi.Bool(true),
	}
	params.AddExpand("default_payment_method")
	params.Context = ctx

	sub, err := s.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, wrapError("cancel subscription", err)
	}

	s.logger.Info("Subscription set to cancel at period end",
		zap.String("subscription_id", sub.ID),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd),
	)

	return subscriptionToEntity(sub), nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.AddExpand("default_payment_method")
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, wrapError("get subscription", err)
	}
	return subscriptionToEntity(sub), nil
}

func (s *StripeProvider) GetUpcomingInvoice(ctx context.Context, customerID, subscriptionID string) (*entity.UpcomingInvoice, error) {
	params := &stripeapi.InvoiceUpcomingParams{
		Customer: stripeapi.String(customerID),
	}
	if subscriptionID != "" {
		params.Subscription = stripeapi.String(subscriptionID)
	}
	params.Context = ctx

	inv, err := s.api.Invoices.Upcoming(params)
	if err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) && string(stripeErr.Code) == codeInvoiceUpcomingNone {
			return nil, nil
		}
		return nil, wrapError("get upcoming invoice", err)
	}

	currency := string(inv.Currency)
	return &entity.UpcomingInvoice{
		AmountDue:          entity.MajorUnits(inv.AmountDue, currency),
		AmountDueCents:     inv.AmountDue,
		Currency:           currency,
		NextPaymentAttempt: unixPtr(inv.NextPaymentAttempt),
	}, nil
}

func (s *StripeProvider) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripeapi.CustomerParams{}
	params.Context = ctx

	cus, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		return "", wrapError("get customer", err)
	}
	return cus.Email, nil
}

func subscriptionToEntity(sub *stripeapi.Subscription) *entity.Subscription {
	out := &entity.Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		TrialStart:         unixPtr(sub.TrialStart),
		TrialEnd:           unixPtr(sub.TrialEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CancelAt:           unixPtr(sub.CancelAt),
		CanceledAt:         unixPtr(sub.CanceledAt),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		plan := &entity.Plan{
			PriceID:     price.ID,
			Nickname:    price.Nickname,
			Amount:      entity.MajorUnits(price.UnitAmount, string(price.Currency)),
			AmountCents: price.UnitAmount,
			Currency:    string(price.Currency),
		}
		if price.Recurring != nil {
			plan.Interval = string(price.Recurring.Interval)
			plan.IntervalCount = price.Recurring.IntervalCount
		}
		out.Plan = plan
	}

	if pm := sub.DefaultPaymentMethod; pm != nil && pm.Type != "" {
		summary := &entity.PaymentMethodSummary{Type: string(pm.Type)}
		if pm.Card != nil {
			summary.Brand = string(pm.Card.Brand)
			summary.Last4 = pm.Card.Last4
			summary.ExpMonth = pm.Card.ExpMonth
			summary.ExpYear = pm.Card.ExpYear
		}
		out.PaymentMethod = summary
	}

	return out
}

// unixPtr returns nil for Stripe's zero timestamps.
func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func wrapError(op string, err error) error {
	pe := &provider.ProviderError{
		Provider:  providerName,
		Operation: op,
		Message:   err.Error(),
		Err:       err,
	}
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		pe.Code = string(stripeErr.Code)
		pe.Message = stripeErr.Msg
		pe.HTTPStatus = stripeErr.HTTPStatusCode
	}
	return pe
}
