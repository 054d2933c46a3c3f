package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/billing"
	"github.com/jetdesk/billing/internal/domain/entity"
	domainErrors "github.com/jetdesk/billing/internal/domain/errors"
	"github.com/jetdesk/billing/internal/usecase"
	apperrors "github.com/jetdesk/billing/pkg/errors"
)

var testRedirects = billing.RedirectRules{
	FallbackOrigin:  "http://localhost:3000",
	ProductionHost:  "jetdesk.io",
	CanonicalDomain: "vercel.app",
	CanonicalOrigin: "https://jetdesk.vercel.app",
}

func newCheckoutService() (*usecase.CheckoutService, *MockProfileRepository, *MockCompanyRepository, *MockBillingProvider) {
	profiles := new(MockProfileRepository)
	companies := new(MockCompanyRepository)
	provider := new(MockBillingProvider)
	svc := usecase.NewCheckoutService(profiles, companies, provider, testRedirects, "price_pro", zap.NewNop())
	return svc, profiles, companies, provider
}

func TestCheckoutService_CreateCheckoutSession(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites production origin and uses company billing email", func(t *testing.T) {
		svc, profiles, companies, provider := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(&entity.Profile{ID: "u1", CompanyID: "c1", Email: "profile@skyjet.example"}, nil)
		companies.On("GetByID", ctx, "c1").Return(&entity.Company{ID: "c1", BillingEmail: "billing@skyjet.example"}, nil)
		provider.On("CreateCheckoutSession", ctx, entity.CheckoutRequest{
			CompanyID:     "c1",
			CustomerEmail: "billing@skyjet.example",
			PriceID:       "price_pro",
			SuccessURL:    "https://jetdesk.vercel.app/billing/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     "https://jetdesk.vercel.app/billing/cancel",
		}).Return(&entity.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil)

		sess, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{
			UserID: "u1",
			Email:  "jwt@skyjet.example",
			Origin: "https://app.jetdesk.io",
		})

		require.NoError(t, err)
		assert.Equal(t, "cs_1", sess.ID)
		provider.AssertExpectations(t)
		companies.AssertNotCalled(t, "ApplyByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to the JWT email and configured origin", func(t *testing.T) {
		svc, profiles, companies, provider := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(&entity.Profile{ID: "u1", CompanyID: "c1"}, nil)
		companies.On("GetByID", ctx, "c1").Return(&entity.Company{ID: "c1"}, nil)
		provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req entity.CheckoutRequest) bool {
			return req.CustomerEmail == "jwt@skyjet.example" &&
				req.CancelURL == "http://localhost:3000/billing/cancel"
		})).Return(&entity.CheckoutSession{ID: "cs_2"}, nil)

		_, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{UserID: "u1", Email: "jwt@skyjet.example", Origin: "null"})

		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("profile not found", func(t *testing.T) {
		svc, profiles, _, provider := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(nil, nil)

		_, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{UserID: "u1"})

		assert.ErrorIs(t, err, domainErrors.ErrProfileNotFound)
		assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
		provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("company not found", func(t *testing.T) {
		svc, profiles, companies, _ := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(&entity.Profile{ID: "u1", CompanyID: "c1"}, nil)
		companies.On("GetByID", ctx, "c1").Return(nil, nil)

		_, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{UserID: "u1"})

		assert.ErrorIs(t, err, domainErrors.ErrCompanyNotFound)
	})

	t.Run("provider error", func(t *testing.T) {
		svc, profiles, companies, provider := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(&entity.Profile{ID: "u1", CompanyID: "c1"}, nil)
		companies.On("GetByID", ctx, "c1").Return(&entity.Company{ID: "c1"}, nil)
		provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("No such price"))

		_, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{UserID: "u1"})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrUpstreamProvider, apperrors.CodeOf(err))
		assert.Contains(t, err.Error(), "No such price")
	})

	t.Run("database error", func(t *testing.T) {
		svc, profiles, _, _ := newCheckoutService()
		profiles.On("GetByID", ctx, "u1").Return(nil, errors.New("connection refused"))

		_, err := svc.CreateCheckoutSession(ctx, usecase.CheckoutInput{UserID: "u1"})

		assert.Equal(t, apperrors.ErrPersistence, apperrors.CodeOf(err))
	})
}
