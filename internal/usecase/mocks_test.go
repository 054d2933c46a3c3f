package usecase_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/event"
	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/jetdesk/billing/internal/domain/notification"
)

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, userID string) (*entity.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

// MockCompanyRepository is a mock implementation of CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Company, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Company), args.Error(1)
}

func (m *MockCompanyRepository) ApplyByID(ctx context.Context, id string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(entity.ApplyResult), args.Error(1)
}

func (m *MockCompanyRepository) ApplyByCustomerID(ctx context.Context, customerID string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	args := m.Called(ctx, customerID, update)
	return args.Get(0).(entity.ApplyResult), args.Error(1)
}

func (m *MockCompanyRepository) ListReconcilable(ctx context.Context, limit int) ([]*entity.Company, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Company), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *entity.Payment) (bool, error) {
	args := m.Called(ctx, payment)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.Payment, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Payment), args.Error(1)
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) SaveEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, data json.RawMessage) error {
	args := m.Called(ctx, eventID, eventType, createdAt, data)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StripeWebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) MarkProcessing(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockWebhookEventRepository) MarkFailed(ctx context.Context, eventID string, cause error) error {
	return m.Called(ctx, eventID, cause).Error(0)
}

func (m *MockWebhookEventRepository) GetRetryableEvents(ctx context.Context, limit int) ([]*model.StripeWebhookEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StripeWebhookEvent), args.Error(1)
}

// MockBillingProvider is a mock implementation of BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CheckoutSession), args.Error(1)
}

func (m *MockBillingProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockBillingProvider) GetUpcomingInvoice(ctx context.Context, customerID, subscriptionID string) (*entity.UpcomingInvoice, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UpcomingInvoice), args.Error(1)
}

func (m *MockBillingProvider) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

// MockWebhookParser is a mock implementation of WebhookParser
type MockWebhookParser struct {
	mock.Mock
}

func (m *MockWebhookParser) ParseWebhook(payload []byte, signature string) (event.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(event.Event), args.Error(1)
}

func (m *MockWebhookParser) DecodeEvent(payload []byte) (event.Event, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(event.Event), args.Error(1)
}

// MockWelcomeNotifier is a mock implementation of WelcomeNotifier
type MockWelcomeNotifier struct {
	mock.Mock
}

func (m *MockWelcomeNotifier) NotifyWelcome(ctx context.Context, msg notification.WelcomeMessage) error {
	return m.Called(ctx, msg).Error(0)
}

// memoryCompanies is a CompanyRepository over a map, applying updates the
// same way the SQL statement does.
type memoryCompanies struct {
	mu   sync.Mutex
	rows map[string]*entity.Company
}

func newMemoryCompanies(companies ...*entity.Company) *memoryCompanies {
	m := &memoryCompanies{rows: make(map[string]*entity.Company)}
	for _, c := range companies {
		m.rows[c.ID] = c
	}
	return m
}

func (m *memoryCompanies) get(id string) entity.Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memoryCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memoryCompanies) GetByCustomerID(_ context.Context, customerID string) (*entity.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.StripeCustomerID == customerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryCompanies) ApplyByID(_ context.Context, id string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return entity.ApplyResultNotFound, nil
	}
	if !update.ApplyTo(c) {
		return entity.ApplyResultStale, nil
	}
	return entity.ApplyResultApplied, nil
}

func (m *memoryCompanies) ApplyByCustomerID(_ context.Context, customerID string, update entity.CompanyUpdate) (entity.ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.StripeCustomerID != "" && c.StripeCustomerID == customerID {
			if !update.ApplyTo(c) {
				return entity.ApplyResultStale, nil
			}
			return entity.ApplyResultApplied, nil
		}
	}
	return entity.ApplyResultNotFound, nil
}

func (m *memoryCompanies) ListReconcilable(_ context.Context, limit int) ([]*entity.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Company
	for _, c := range m.rows {
		if c.HasSubscription() && !c.SubscriptionStatus.IsTerminal() {
			cp := *c
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
