package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/billing"
	"github.com/jetdesk/billing/internal/domain/entity"
	domainErrors "github.com/jetdesk/billing/internal/domain/errors"
	"github.com/jetdesk/billing/internal/domain/provider"
	"github.com/jetdesk/billing/internal/domain/repository"
	apperrors "github.com/jetdesk/billing/pkg/errors"
)

const (
	defaultPaymentsLimit = 50
	maxPaymentsLimit     = 100
)

// CancelInput is a cancel-at-period-end request from an authenticated user
type CancelInput struct {
	UserID         string
	SubscriptionID string
	CompanyID      string
}

// SubscriptionService handles subscription reads and cancellation
type SubscriptionService struct {
	profileRepo repository.ProfileRepository
	companyRepo repository.CompanyRepository
	paymentRepo repository.PaymentRepository
	provider    provider.BillingProvider
	logger      *zap.Logger
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(
	profileRepo repository.ProfileRepository,
	companyRepo repository.CompanyRepository,
	paymentRepo repository.PaymentRepository,
	billingProvider provider.BillingProvider,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		profileRepo: profileRepo,
		companyRepo: companyRepo,
		paymentRepo: paymentRepo,
		provider:    billingProvider,
		logger:      logger,
	}
}

// CancelAtPeriodEnd asks the provider to stop renewing, then marks the company
// canceling. Access stays until the provider's deletion event arrives. If the
// local write fails after the provider accepted, reconciliation repairs it.
func (s *SubscriptionService) CancelAtPeriodEnd(ctx context.Context, in CancelInput) (*entity.Subscription, error) {
	profile, err := s.profileRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load profile", err)
	}
	if profile == nil || profile.CompanyID != in.CompanyID || !profile.IsAdmin() {
		s.logger.Warn("Cancellation rejected: caller is not a company admin",
			zap.String("user_id", in.UserID),
			zap.String("company_id", in.CompanyID))
		return nil, apperrors.Unauthorized("Only company admins can cancel the subscription", domainErrors.ErrNotCompanyAdmin)
	}

	company, err := s.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load company", err)
	}
	if company == nil {
		return nil, apperrors.NotFound("Company not found", domainErrors.ErrCompanyNotFound)
	}
	if company.StripeSubscriptionID != in.SubscriptionID {
		s.logger.Warn("Cancellation rejected: subscription does not belong to company",
			zap.String("company_id", in.CompanyID),
			zap.String("subscription_id", in.SubscriptionID))
		return nil, apperrors.Unauthorized("Subscription does not belong to this company", domainErrors.ErrSubscriptionMismatch)
	}

	sub, err := s.provider.CancelAtPeriodEnd(ctx, in.SubscriptionID)
	if err != nil {
		s.logger.Error("Provider rejected cancellation",
			zap.String("subscription_id", in.SubscriptionID),
			zap.Error(err))
		return nil, apperrors.Upstream("Failed to cancel subscription", err)
	}

	if _, err := s.companyRepo.ApplyByID(ctx, in.CompanyID, billing.CancellationRequested()); err != nil {
		s.logger.Error("Subscription canceled at provider but company update failed",
			zap.String("company_id", in.CompanyID),
			zap.String("subscription_id", in.SubscriptionID),
			zap.Error(err))
		return nil, apperrors.Persistence("Failed to update company", err)
	}

	s.logger.Info("Subscription set to cancel at period end",
		zap.String("company_id", in.CompanyID),
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", in.UserID))

	return sub, nil
}

// GetDetails returns the live subscription of the caller's company. The
// upcoming invoice and customer email are best-effort.
func (s *SubscriptionService) GetDetails(ctx context.Context, userID string) (*entity.SubscriptionDetails, error) {
	company, err := s.companyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !company.HasSubscription() {
		return nil, apperrors.NotFound("No subscription found", domainErrors.ErrNoSubscription)
	}

	sub, err := s.provider.GetSubscription(ctx, company.StripeSubscriptionID)
	if err != nil {
		return nil, apperrors.Upstream("Failed to load subscription", err)
	}

	customerID := company.StripeCustomerID
	if customerID == "" {
		customerID = sub.CustomerID
	}

	details := &entity.SubscriptionDetails{
		Subscription:  sub,
		CustomerEmail: company.BillingEmail,
	}

	if sub.Status != string(entity.StatusCanceled) && customerID != "" {
		inv, err := s.provider.GetUpcomingInvoice(ctx, customerID, sub.ID)
		if err != nil {
			s.logger.Warn("Failed to load upcoming invoice",
				zap.String("subscription_id", sub.ID),
				zap.Error(err))
		}
		details.UpcomingInvoice = inv
	}

	if customerID != "" {
		email, err := s.provider.GetCustomerEmail(ctx, customerID)
		if err != nil {
			s.logger.Warn("Failed to load customer email",
				zap.String("customer_id", customerID),
				zap.Error(err))
		} else if email != "" {
			details.CustomerEmail = email
		}
	}

	return details, nil
}

// ListPayments returns the caller's company ledger, newest first.
func (s *SubscriptionService) ListPayments(ctx context.Context, userID string, limit int) ([]*entity.Payment, error) {
	company, err := s.companyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPaymentsLimit
	}
	if limit > maxPaymentsLimit {
		limit = maxPaymentsLimit
	}

	payments, err := s.paymentRepo.ListByCompany(ctx, company.ID, limit)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load payments", err)
	}
	return payments, nil
}

func (s *SubscriptionService) companyForUser(ctx context.Context, userID string) (*entity.Company, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load profile", err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("Profile not found", domainErrors.ErrProfileNotFound)
	}

	company, err := s.companyRepo.GetByID(ctx, profile.CompanyID)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load company", err)
	}
	if company == nil {
		return nil, apperrors.NotFound("Company not found", domainErrors.ErrCompanyNotFound)
	}
	return company, nil
}
