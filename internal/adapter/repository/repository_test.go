package repository

import (
	"testing"
	"time"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB builds statements without a live database.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=billing dbname=billing sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestApplyQuery_WithEventGuard(t *testing.T) {
	db := newDryRunDB(t)
	eventAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	status := entity.StatusPastDue

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return applyQuery(tx, columnCustomerID, "cus_1", entity.CompanyUpdate{
			SubscriptionStatus: &status,
			EventAt:            eventAt,
		})
	})

	assert.Contains(t, sql, `UPDATE "companies" SET`)
	assert.Contains(t, sql, `"subscription_status"='past_due'`)
	assert.Contains(t, sql, `"last_event_at"=`)
	assert.Contains(t, sql, `stripe_customer_id = 'cus_1'`)
	assert.Contains(t, sql, `(last_event_at IS NULL OR last_event_at <=`)
	assert.NotContains(t, sql, `"approved"`)
}

func TestApplyQuery_ClearEndDateWithoutGuard(t *testing.T) {
	db := newDryRunDB(t)
	status := entity.StatusCanceling

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return applyQuery(tx, columnID, "c1", entity.CompanyUpdate{
			SubscriptionStatus:       &status,
			ClearSubscriptionEndDate: true,
		})
	})

	assert.Contains(t, sql, `"subscription_end_date"=NULL`)
	assert.Contains(t, sql, `id = 'c1'`)
	assert.NotContains(t, sql, "last_event_at")
}

func TestCompanyColumns(t *testing.T) {
	approved := false
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	cols := companyColumns(entity.CompanyUpdate{Approved: &approved, SubscriptionEndDate: &end})
	assert.Equal(t, map[string]interface{}{"approved": false, "subscription_end_date": end}, cols)
}

func TestReconcilableQuery(t *testing.T) {
	db := newDryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*model.Company
		return reconcilableQuery(tx, 50).Find(&out)
	})

	assert.Contains(t, sql, "stripe_subscription_id IS NOT NULL")
	assert.Contains(t, sql, "subscription_status <> 'canceled'")
	assert.Contains(t, sql, "LIMIT 50")
}

func TestInsertPaymentQuery_IgnoresDuplicateSession(t *testing.T) {
	db := newDryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return insertPaymentQuery(tx, paymentEntityToModel(&entity.Payment{
			CompanyID:         "c1",
			ProviderSessionID: "cs_1",
			AmountCents:       49900,
			Amount:            decimal.RequireFromString("499"),
			Currency:          "usd",
			Status:            entity.PaymentStatusSucceeded,
		}))
	})

	assert.Contains(t, sql, `INSERT INTO "payments"`)
	assert.Contains(t, sql, `ON CONFLICT ("provider_session_id") DO NOTHING`)
}

func TestPaymentMapping(t *testing.T) {
	p := &entity.Payment{CompanyID: "c1", ProviderSessionID: "cs_1", Currency: "usd", Status: entity.PaymentStatusSucceeded}

	m := paymentEntityToModel(p)
	assert.Nil(t, m.ProviderPaymentIntentID)

	p.ProviderPaymentIntentID = "pi_1"
	back := paymentModelToEntity(paymentEntityToModel(p))
	assert.Equal(t, p, back)
}

func TestCompanyModelToEntity(t *testing.T) {
	status := "canceling"
	customer := "cus_1"
	c := companyModelToEntity(&model.Company{ID: "c1", Approved: true, SubscriptionStatus: &status, StripeCustomerID: &customer})

	assert.Equal(t, entity.StatusCanceling, c.SubscriptionStatus)
	assert.Equal(t, "cus_1", c.StripeCustomerID)
	assert.Empty(t, c.StripeSubscriptionID)
	assert.False(t, c.HasSubscription())
}

func TestRetryableQuery(t *testing.T) {
	db := newDryRunDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*model.StripeWebhookEvent
		return retryableQuery(tx, now, 20).Find(&out)
	})

	assert.Contains(t, sql, "processing_attempts < 8")
	assert.Contains(t, sql, "status = 'failed'")
	assert.Contains(t, sql, "status IN ('pending','processing')")
	assert.Contains(t, sql, "LIMIT 20")
}
