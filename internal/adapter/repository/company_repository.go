package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/jetdesk/billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	columnID         = "id"
	columnCustomerID = "stripe_customer_id"
)

type companyRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB, logger *zap.Logger) repository.CompanyRepository {
	return &companyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getBy(ctx, columnID, id)
}

func (r *companyRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Company, error) {
	return r.getBy(ctx, columnCustomerID, customerID)
}

func (r *companyRepository) getBy(ctx context.Context, column, key string) (*entity.Company, error) {
	var m model.Company
	err := r.db.WithContext(ctx).Where(column+" = ?", key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company by %s: %w", column, err)
	}
	return companyModelToEntity(&m), nil
}

func (r *companyRepository) ApplyByID(ctx context.Context, id string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	return r.apply(ctx, columnID, id, update)
}

func (r *companyRepository) ApplyByCustomerID(ctx context.Context, customerID string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	return r.apply(ctx, columnCustomerID, customerID, update)
}

func (r *companyRepository) apply(ctx context.Context, column, key string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	if update.IsEmpty() {
		return entity.ApplyResultApplied, nil
	}

	result := applyQuery(r.db.WithContext(ctx), column, key, update)
	if result.Error != nil {
		return entity.ApplyResultNotFound, fmt.Errorf("failed to update company by %s: %w", column, result.Error)
	}
	if result.RowsAffected > 0 {
		return entity.ApplyResultApplied, nil
	}

	// Nothing matched: either the row is missing or the ordering guard rejected the update.
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Company{}).Where(column+" = ?", key).Count(&count).Error; err != nil {
		return entity.ApplyResultNotFound, fmt.Errorf("failed to count companies by %s: %w", column, err)
	}
	if count == 0 {
		return entity.ApplyResultNotFound, nil
	}

	r.logger.Info("Skipped stale company update",
		zap.String("lookup", column),
		zap.String("key", key),
		zap.Time("event_at", update.EventAt))
	return entity.ApplyResultStale, nil
}

// applyQuery issues the single UPDATE for a company update.
func applyQuery(tx *gorm.DB, column, key string, update entity.CompanyUpdate) *gorm.DB {
	q := tx.Model(&model.Company{}).Where(column+" = ?", key)
	if !update.EventAt.IsZero() {
		q = q.Where("(last_event_at IS NULL OR last_event_at <= ?)", update.EventAt)
	}
	return q.Updates(companyColumns(update))
}

func companyColumns(u entity.CompanyUpdate) map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Approved != nil {
		cols["approved"] = *u.Approved
	}
	if u.SubscriptionStatus != nil {
		cols["subscription_status"] = string(*u.SubscriptionStatus)
	}
	if u.StripeCustomerID != nil {
		cols["stripe_customer_id"] = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		cols["stripe_subscription_id"] = *u.StripeSubscriptionID
	}
	if u.SubscriptionStartDate != nil {
		cols["subscription_start_date"] = *u.SubscriptionStartDate
	}
	if u.ClearSubscriptionEndDate {
		cols["subscription_end_date"] = nil
	} else if u.SubscriptionEndDate != nil {
		cols["subscription_end_date"] = *u.SubscriptionEndDate
	}
	if !u.EventAt.IsZero() {
		cols["last_event_at"] = u.EventAt
	}
	return cols
}

func (r *companyRepository) ListReconcilable(ctx context.Context, limit int) ([]*entity.Company, error) {
	var models []*model.Company

	query := reconcilableQuery(r.db.WithContext(ctx), limit)
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list reconcilable companies: %w", err)
	}

	companies := make([]*entity.Company, 0, len(models))
	for _, m := range models {
		companies = append(companies, companyModelToEntity(m))
	}
	return companies, nil
}

func reconcilableQuery(tx *gorm.DB, limit int) *gorm.DB {
	q := tx.Model(&model.Company{}).
		Where("stripe_subscription_id IS NOT NULL AND stripe_subscription_id <> ''").
		Where("(subscription_status IS NULL OR subscription_status <> ?)", string(entity.StatusCanceled)).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func companyModelToEntity(m *model.Company) *entity.Company {
	c := &entity.Company{
		ID:                    m.ID,
		Name:                  m.Name,
		Approved:              m.Approved,
		SubscriptionStartDate: m.SubscriptionStartDate,
		SubscriptionEndDate:   m.SubscriptionEndDate,
		LastEventAt:           m.LastEventAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if m.BillingEmail != nil {
		c.BillingEmail = *m.BillingEmail
	}
	if m.SubscriptionStatus != nil {
		c.SubscriptionStatus = entity.SubscriptionStatus(*m.SubscriptionStatus)
	}
	if m.StripeCustomerID != nil {
		c.StripeCustomerID = *m.StripeCustomerID
	}
	if m.StripeSubscriptionID != nil {
		c.StripeSubscriptionID = *m.StripeSubscriptionID
	}
	return c
}
