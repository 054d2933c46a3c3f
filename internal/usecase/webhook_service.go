package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/billing"
	"github.com/jetdesk/billing/internal/domain/entity"
	domainErrors "github.com/jetdesk/billing/internal/domain/errors"
	"github.com/jetdesk/billing/internal/domain/event"
	"github.com/jetdesk/billing/internal/domain/notification"
	"github.com/jetdesk/billing/internal/domain/provider"
	"github.com/jetdesk/billing/internal/domain/repository"
	"github.com/jetdesk/billing/internal/infrastructure/metrics"
	apperrors "github.com/jetdesk/billing/pkg/errors"
)

const welcomeTimeout = 15 * time.Second

// WebhookService verifies provider webhooks and applies them to companies
type WebhookService struct {
	parser      provider.WebhookParser
	companyRepo repository.CompanyRepository
	paymentRepo repository.PaymentRepository
	eventRepo   repository.WebhookEventRepository
	notifier    notification.WelcomeNotifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time

	// welcomes tracks in-flight welcome sends so shutdown can drain them.
	welcomes sync.WaitGroup
}

// NewWebhookService creates a new webhook service. notifier may be nil.
func NewWebhookService(
	parser provider.WebhookParser,
	companyRepo repository.CompanyRepository,
	paymentRepo repository.PaymentRepository,
	eventRepo repository.WebhookEventRepository,
	notifier notification.WelcomeNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		parser:      parser,
		companyRepo: companyRepo,
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleWebhook verifies and applies one delivery. Nothing is read or written
// before the signature checks out.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.parser.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.ObserveWebhook("unknown", metrics.OutcomeRejected, 0)
		if errors.Is(err, domainErrors.ErrInvalidSignature) {
			s.logger.Warn("Webhook signature verification failed", zap.Error(err))
			return apperrors.InvalidArgument("Webhook signature verification failed", err)
		}
		s.logger.Warn("Malformed webhook payload", zap.Error(err))
		return apperrors.InvalidArgument("Malformed webhook payload", err)
	}

	meta := evt.Meta()
	logger := s.logger.With(
		zap.String("event_id", meta.ID),
		zap.String("event_type", string(meta.Type)),
	)

	if _, ok := evt.(event.Unhandled); ok {
		logger.Info("Ignoring unhandled webhook event")
		s.metrics.ObserveWebhook(string(meta.Type), metrics.OutcomeIgnored, 0)
		return nil
	}

	existing, err := s.eventRepo.GetEvent(ctx, meta.ID)
	if err != nil {
		return apperrors.Persistence("Failed to load webhook event", err)
	}
	if existing != nil && existing.Status.Done() {
		logger.Info("Webhook event already processed")
		s.metrics.ObserveWebhook(string(meta.Type), metrics.OutcomeDuplicate, 0)
		return nil
	}

	if err := s.eventRepo.SaveEvent(ctx, meta.ID, string(meta.Type), meta.CreatedAt, payload); err != nil {
		return apperrors.Persistence("Failed to record webhook event", err)
	}

	return s.run(ctx, evt, logger)
}

// ReplayRetryable re-applies logged events that failed or were abandoned
// mid-processing. It returns how many were applied successfully.
func (s *WebhookService) ReplayRetryable(ctx context.Context, limit int) (int, error) {
	rows, err := s.eventRepo.GetRetryableEvents(ctx, limit)
	if err != nil {
		return 0, apperrors.Persistence("Failed to list retryable webhook events", err)
	}

	replayed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}

		logger := s.logger.With(
			zap.String("event_id", row.StripeEventID),
			zap.String("event_type", row.EventType),
			zap.Int("attempts", row.ProcessingAttempts),
		)

		evt, err := s.parser.DecodeEvent(row.Data)
		if err != nil {
			logger.Error("Stored webhook event cannot be decoded", zap.Error(err))
			if markErr := s.eventRepo.MarkFailed(ctx, row.StripeEventID, err); markErr != nil {
				logger.Error("Failed to mark webhook event failed", zap.Error(markErr))
			}
			continue
		}

		if err := s.run(ctx, evt, logger); err != nil {
			continue
		}
		replayed++
	}

	if len(rows) > 0 {
		s.logger.Info("Webhook replay finished",
			zap.Int("candidates", len(rows)),
			zap.Int("replayed", replayed))
	}
	return replayed, nil
}

func (s *WebhookService) run(ctx context.Context, evt event.Event, logger *zap.Logger) error {
	meta := evt.Meta()
	start := time.Now()

	if err := s.eventRepo.MarkProcessing(ctx, meta.ID); err != nil {
		return apperrors.Persistence("Failed to update webhook event", err)
	}

	outcome, err := s.process(ctx, evt, logger)
	if err != nil {
		logger.Error("Webhook processing failed", zap.Error(err))
		s.metrics.ObserveWebhook(string(meta.Type), metrics.OutcomeFailed, time.Since(start))
		if markErr := s.eventRepo.MarkFailed(ctx, meta.ID, err); markErr != nil {
			logger.Error("Failed to mark webhook event failed", zap.Error(markErr))
		}
		return err
	}

	if err := s.eventRepo.MarkProcessed(ctx, meta.ID); err != nil {
		// the company update is already applied and convergent; a replay is harmless
		logger.Error("Failed to mark webhook event processed", zap.Error(err))
	}

	s.metrics.ObserveWebhook(string(meta.Type), outcome, time.Since(start))
	logger.Info("Webhook event processed", zap.String("outcome", outcome))
	return nil
}

func (s *WebhookService) process(ctx context.Context, evt event.Event, logger *zap.Logger) (string, error) {
	switch e := evt.(type) {
	case event.CheckoutCompleted:
		return s.checkoutCompleted(ctx, e, logger)
	case event.SubscriptionUpdated:
		return s.applyByCustomer(ctx, e.CustomerID, billing.SubscriptionUpdated(e), logger)
	case event.SubscriptionDeleted:
		return s.applyByCustomer(ctx, e.CustomerID, billing.SubscriptionDeleted(e, s.now()), logger)
	case event.InvoicePaymentSucceeded:
		return s.applyByCustomer(ctx, e.CustomerID, billing.InvoicePaid(e), logger)
	case event.InvoicePaymentFailed:
		logger.Warn("Invoice payment failed",
			zap.String("customer_id", e.CustomerID),
			zap.Int64("attempt_count", e.AttemptCount))
		return s.applyByCustomer(ctx, e.CustomerID, billing.InvoiceFailed(e), logger)
	case event.Unhandled:
		return metrics.OutcomeIgnored, nil
	default:
		return "", fmt.Errorf("no handler for event %T", evt)
	}
}

func (s *WebhookService) applyByCustomer(ctx context.Context, customerID string, update entity.CompanyUpdate, logger *zap.Logger) (string, error) {
	result, err := s.companyRepo.ApplyByCustomerID(ctx, customerID, update)
	if err != nil {
		return "", apperrors.Persistence("Failed to update company", err)
	}
	return s.outcome(result, zap.String("customer_id", customerID), logger), nil
}

func (s *WebhookService) checkoutCompleted(ctx context.Context, e event.CheckoutCompleted, logger *zap.Logger) (string, error) {
	result, err := s.companyRepo.ApplyByID(ctx, e.CompanyID, billing.CheckoutCompleted(e, s.now()))
	if err != nil {
		return "", apperrors.Persistence("Failed to update company", err)
	}
	outcome := s.outcome(result, zap.String("company_id", e.CompanyID), logger)
	if result == entity.ApplyResultNotFound {
		return outcome, nil
	}

	// the ledger records the payment even when a newer event already moved the company on
	created, err := s.paymentRepo.Create(ctx, billing.LedgerEntry(e))
	if err != nil {
		return "", apperrors.Persistence("Failed to record payment", err)
	}
	if !created {
		logger.Info("Payment already recorded", zap.String("session_id", e.SessionID))
		return outcome, nil
	}

	if s.notifier != nil {
		welcomeCtx := context.WithoutCancel(ctx)
		s.welcomes.Add(1)
		go func() {
			defer s.welcomes.Done()
			s.sendWelcome(welcomeCtx, e, logger)
		}()
	}
	return outcome, nil
}

// Wait blocks until welcome sends started by earlier deliveries have finished.
func (s *WebhookService) Wait() {
	s.welcomes.Wait()
}

func (s *WebhookService) outcome(result entity.ApplyResult, key zap.Field, logger *zap.Logger) string {
	switch result {
	case entity.ApplyResultNotFound:
		logger.Warn("No company matches webhook event", key)
		return metrics.OutcomeNotFound
	case entity.ApplyResultStale:
		logger.Info("Skipping webhook event older than the company's last applied event", key)
		return metrics.OutcomeStale
	}
	return metrics.OutcomeProcessed
}

// sendWelcome runs off the request path and never fails the webhook.
func (s *WebhookService) sendWelcome(ctx context.Context, e event.CheckoutCompleted, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, welcomeTimeout)
	defer cancel()

	msg := notification.WelcomeMessage{CompanyID: e.CompanyID, Email: e.CustomerEmail}
	company, err := s.companyRepo.GetByID(ctx, e.CompanyID)
	if err != nil {
		logger.Warn("Failed to load company for welcome email", zap.Error(err))
	}
	if company != nil {
		msg.CompanyName = company.Name
		if msg.Email == "" {
			msg.Email = company.BillingEmail
		}
	}
	if msg.Email == "" {
		logger.Warn("No recipient for welcome email", zap.String("company_id", e.CompanyID))
		s.metrics.WelcomeEmail("skipped")
		return
	}

	if err := s.notifier.NotifyWelcome(ctx, msg); err != nil {
		logger.Warn("Welcome email failed", zap.String("company_id", e.CompanyID), zap.Error(err))
		s.metrics.WelcomeEmail("failed")
		return
	}
	s.metrics.WelcomeEmail("dispatched")
}
