package repository

import (
	"context"

	"github.com/jetdesk/billing/internal/domain/entity"
)

// PaymentRepository is the append-only ledger. There is no update or delete.
type PaymentRepository interface {
	// Create inserts the row unless one exists for the same provider session.
	// created reports whether a new row was written.
	Create(ctx context.Context, payment *entity.Payment) (created bool, err error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.Payment, error)
}
