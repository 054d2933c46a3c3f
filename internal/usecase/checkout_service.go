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

// CheckoutInput identifies the caller starting a checkout.
type CheckoutInput struct {
	UserID string
	Email  string
	// Origin is the request's Origin header.
	Origin string
}

// CheckoutService starts hosted subscription checkouts
type CheckoutService struct {
	profileRepo repository.ProfileRepository
	companyRepo repository.CompanyRepository
	provider    provider.BillingProvider
	redirects   billing.RedirectRules
	priceID     string
	logger      *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	profileRepo repository.ProfileRepository,
	companyRepo repository.CompanyRepository,
	billingProvider provider.BillingProvider,
	redirects billing.RedirectRules,
	priceID string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		profileRepo: profileRepo,
		companyRepo: companyRepo,
		provider:    billingProvider,
		redirects:   redirects,
		priceID:     priceID,
		logger:      logger,
	}
}

// CreateCheckoutSession resolves the caller's company and asks the provider
// for a checkout session. The company row is not modified.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*entity.CheckoutSession, error) {
	profile, err := s.profileRepo.GetByID(ctx, in.UserID)
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

	successURL, cancelURL := billing.CheckoutURLs(s.redirects.RedirectBase(in.Origin))

	sess, err := s.provider.CreateCheckoutSession(ctx, entity.CheckoutRequest{
		CompanyID:     company.ID,
		CustomerEmail: firstNonEmpty(company.BillingEmail, in.Email, profile.Email),
		PriceID:       s.priceID,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("company_id", company.ID),
			zap.Error(err))
		return nil, apperrors.Upstream("Failed to create checkout session", err)
	}

	return sess, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
