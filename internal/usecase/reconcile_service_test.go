package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/provider"
	"github.com/jetdesk/billing/internal/usecase"
)

func TestReconcileService_Run(t *testing.T) {
	ctx := context.Background()
	cancelAt := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	drifted := subscribedCompany()
	inSync := &entity.Company{ID: "c2", Approved: true, SubscriptionStatus: entity.StatusActive, StripeCustomerID: "cus_2", StripeSubscriptionID: "sub_2"}
	purged := &entity.Company{ID: "c3", Approved: true, SubscriptionStatus: entity.StatusCanceling, StripeCustomerID: "cus_3", StripeSubscriptionID: "sub_3"}
	broken := &entity.Company{ID: "c4", Approved: true, SubscriptionStatus: entity.StatusActive, StripeCustomerID: "cus_4", StripeSubscriptionID: "sub_4"}
	done := &entity.Company{ID: "c5", SubscriptionStatus: entity.StatusCanceled, StripeSubscriptionID: "sub_5"}

	companies := newMemoryCompanies(drifted, inSync, purged, broken, done)
	billingProvider := new(MockBillingProvider)
	billingProvider.On("GetSubscription", ctx, "sub_1").Return(&entity.Subscription{ID: "sub_1", Status: "active", CancelAtPeriodEnd: true, CancelAt: &cancelAt}, nil)
	billingProvider.On("GetSubscription", ctx, "sub_2").Return(&entity.Subscription{ID: "sub_2", Status: "active"}, nil)
	billingProvider.On("GetSubscription", ctx, "sub_3").Return(nil, &provider.ProviderError{Provider: "stripe", Code: "resource_missing", HTTPStatus: 404})
	billingProvider.On("GetSubscription", ctx, "sub_4").Return(nil, errors.New("rate limited"))

	svc := usecase.NewReconcileService(companies, billingProvider, nil, zap.NewNop(), 0)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, usecase.ReconcileSummary{Checked: 4, Updated: 2, Unchanged: 1, Failed: 1}, summary)

	c1 := companies.get("c1")
	assert.Equal(t, entity.StatusCanceling, c1.SubscriptionStatus)
	require.NotNil(t, c1.SubscriptionEndDate)
	assert.Equal(t, cancelAt, *c1.SubscriptionEndDate)

	c3 := companies.get("c3")
	assert.Equal(t, entity.StatusCanceled, c3.SubscriptionStatus)
	assert.False(t, c3.Approved)

	assert.Equal(t, entity.StatusActive, companies.get("c4").SubscriptionStatus)
	billingProvider.AssertNotCalled(t, "GetSubscription", ctx, "sub_5")
}

func TestReconcileService_ListFailure(t *testing.T) {
	companies := new(MockCompanyRepository)
	companies.On("ListReconcilable", context.Background(), 10).Return(nil, errors.New("db down"))

	svc := usecase.NewReconcileService(companies, new(MockBillingProvider), nil, zap.NewNop(), 10)
	_, err := svc.Run(context.Background())

	assert.Error(t, err)
}
