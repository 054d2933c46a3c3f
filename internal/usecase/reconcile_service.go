package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/billing"
	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/provider"
	"github.com/jetdesk/billing/internal/domain/repository"
	"github.com/jetdesk/billing/internal/infrastructure/metrics"
)

// ReconcileSummary counts what one reconciliation run did.
type ReconcileSummary struct {
	Checked   int
	Updated   int
	Unchanged int
	Failed    int
}

// ReconcileService pulls live subscription state from the provider and
// repairs companies whose stored state drifted, e.g. after a lost webhook or
// a failed write following a cancellation.
type ReconcileService struct {
	companyRepo repository.CompanyRepository
	provider    provider.BillingProvider
	metrics     *metrics.Metrics
	logger      *zap.Logger
	batchSize   int
	now         func() time.Time
}

func NewReconcileService(
	companyRepo repository.CompanyRepository,
	billingProvider provider.BillingProvider,
	m *metrics.Metrics,
	logger *zap.Logger,
	batchSize int,
) *ReconcileService {
	return &ReconcileService{
		companyRepo: companyRepo,
		provider:    billingProvider,
		metrics:     m,
		logger:      logger,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// Run visits every reconcilable company once. Per-company failures are
// logged and counted; only a failure to list companies aborts the run.
func (s *ReconcileService) Run(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary

	companies, err := s.companyRepo.ListReconcilable(ctx, s.batchSize)
	if err != nil {
		return summary, err
	}

	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		changed, err := s.reconcile(ctx, company)
		switch {
		case err != nil:
			summary.Failed++
			s.metrics.Reconcile("error")
			s.logger.Error("Failed to reconcile company",
				zap.String("company_id", company.ID),
				zap.String("subscription_id", company.StripeSubscriptionID),
				zap.Error(err))
		case changed:
			summary.Updated++
			s.metrics.Reconcile("updated")
		default:
			summary.Unchanged++
			s.metrics.Reconcile("unchanged")
		}
	}

	s.logger.Info("Reconciliation finished",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

func (s *ReconcileService) reconcile(ctx context.Context, company *entity.Company) (bool, error) {
	now := s.now()

	sub, err := s.provider.GetSubscription(ctx, company.StripeSubscriptionID)
	if err != nil {
		var pe *provider.ProviderError
		if !errors.As(err, &pe) || !pe.IsNotFound() {
			return false, err
		}
		// deleted at the provider and purged
		sub = &entity.Subscription{ID: company.StripeSubscriptionID, Status: string(entity.StatusCanceled)}
	}

	update := billing.FromSubscription(sub, now)

	next := *company
	update.ApplyTo(&next)
	if sameBillingState(company, &next) {
		return false, nil
	}

	if _, err := s.companyRepo.ApplyByID(ctx, company.ID, update); err != nil {
		return false, err
	}

	s.logger.Info("Company billing state reconciled",
		zap.String("company_id", company.ID),
		zap.String("from_status", string(company.SubscriptionStatus)),
		zap.String("to_status", string(next.SubscriptionStatus)),
		zap.Bool("approved", next.Approved))
	return true, nil
}

func sameBillingState(a, b *entity.Company) bool {
	return a.Approved == b.Approved &&
		a.SubscriptionStatus == b.SubscriptionStatus &&
		sameTime(a.SubscriptionEndDate, b.SubscriptionEndDate)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
