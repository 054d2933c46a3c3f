package database

import (
	"github.com/jetdesk/billing/internal/adapter/repository"
	domainRepo "github.com/jetdesk/billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Company      domainRepo.CompanyRepository
	Profile      domainRepo.ProfileRepository
	Payment      domainRepo.PaymentRepository
	WebhookEvent domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Company:      repository.NewCompanyRepository(db, logger),
		Profile:      repository.NewProfileRepository(db),
		Payment:      repository.NewPaymentRepository(db, logger),
		WebhookEvent: repository.NewWebhookEventRepository(db, logger),
	}
}
