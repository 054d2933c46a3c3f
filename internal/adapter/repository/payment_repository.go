package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/jetdesk/billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a ledger row. A second insert for the same provider session is a no-op.
func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) (bool, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	m := paymentEntityToModel(payment)
	result := insertPaymentQuery(r.db.WithContext(ctx), m)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert payment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Info("Payment already recorded for session",
			zap.String("company_id", payment.CompanyID),
			zap.String("session_id", payment.ProviderSessionID))
		return false, nil
	}
	return true, nil
}

func insertPaymentQuery(tx *gorm.DB, m *model.Payment) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_session_id"}},
		DoNothing: true,
	}).Create(m)
}

func (r *paymentRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.Payment, error) {
	var models []*model.Payment

	query := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*entity.Payment, 0, len(models))
	for _, m := range models {
		payments = append(payments, paymentModelToEntity(m))
	}
	return payments, nil
}

func paymentEntityToModel(p *entity.Payment) *model.Payment {
	return &model.Payment{
		ID:                      p.ID,
		CompanyID:               p.CompanyID,
		ProviderSessionID:       p.ProviderSessionID,
		ProviderPaymentIntentID: nullable(p.ProviderPaymentIntentID),
		AmountCents:             p.AmountCents,
		Amount:                  p.Amount,
		Currency:                p.Currency,
		Status:                  string(p.Status),
		CreatedAt:               p.CreatedAt,
	}
}

func paymentModelToEntity(m *model.Payment) *entity.Payment {
	return &entity.Payment{
		ID:                      m.ID,
		CompanyID:               m.CompanyID,
		ProviderSessionID:       m.ProviderSessionID,
		ProviderPaymentIntentID: deref(m.ProviderPaymentIntentID),
		AmountCents:             m.AmountCents,
		Amount:                  m.Amount,
		Currency:                m.Currency,
		Status:                  entity.PaymentStatus(m.Status),
		CreatedAt:               m.CreatedAt,
	}
}
