package payments_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/notify"
	"legal-portal/internal/payments"
	"legal-portal/internal/payments/mocks"
	"legal-portal/internal/repository"
	"legal-portal/internal/testutil"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type countingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *countingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *countingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	db       *gorm.DB
	provider *mocks.MockProvider
	mailer   *countingMailer
	engine   *payments.Engine
	bridge   *payments.Bridge
	quotes   *payments.QuoteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	mailer := &countingMailer{}

	quoteRepo := repository.NewQuoteRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	directory := repository.NewDirectoryRepository(db)
	notifier := notify.NewService(repository.NewNotificationRepository(db), directory, mailer, zap.NewNop())

	return &fixture{
		db:       db,
		provider: provider,
		mailer:   mailer,
		engine: payments.NewEngine(db, quoteRepo, intentRepo, repository.NewWebhookEventRepository(db),
			directory, provider, notifier, payments.EngineConfig{ProviderTimeout: 200 * time.Millisecond}, zap.NewNop()),
		bridge: payments.NewBridge(db, quoteRepo, intentRepo, directory, provider,
			payments.BridgeConfig{ProviderTimeout: 200 * time.Millisecond, CheckoutExpiry: time.Hour}, zap.NewNop()),
		quotes: payments.NewQuoteService(quoteRepo, directory, "eur", zap.NewNop()),
	}
}

func (f *fixture) quote(t *testing.T, id string) quotes.PricingQuote {
	t.Helper()
	var q quotes.PricingQuote
	if err := f.db.Where("id = ?", id).First(&q).Error; err != nil {
		t.Fatalf("load quote %s: %v", id, err)
	}
	return q
}

func (f *fixture) intent(t *testing.T, sessionID string) billing.PaymentIntentRecord {
	t.Helper()
	var p billing.PaymentIntentRecord
	if err := f.db.Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		t.Fatalf("load intent %s: %v", sessionID, err)
	}
	return p
}

func (f *fixture) notifications(t *testing.T, quoteID string) []notifications.Notification {
	t.Helper()
	var out []notifications.Notification
	if err := f.db.Where("quote_id = ?", quoteID).Order("user_id").Find(&out).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return out
}

func paidSession(id, quoteID string) *payments.CheckoutSession {
	return &payments.CheckoutSession{
		ID:              id,
		PaymentStatus:   payments.PaymentStatusPaid,
		PaymentIntentID: "pi_" + id,
		AmountTotal:     150000,
		Currency:        "eur",
		Metadata:        map[string]string{"quote_id": quoteID},
	}
}

func unpaidSession(id, quoteID string) *payments.CheckoutSession {
	s := paidSession(id, quoteID)
	s.PaymentStatus = payments.PaymentStatusUnpaid
	s.PaymentIntentID = ""
	return s
}

func completedEvent(eventID string, s *payments.CheckoutSession) payments.Event {
	return payments.SessionCompleted{
		EventMeta: payments.EventMeta{ID: eventID, Type: "checkout.session.completed", SessionID: s.ID, Payload: []byte(`{}`)},
		Session:   *s,
	}
}

func expiredEvent(eventID, sessionID string) payments.Event {
	return payments.SessionExpired{
		EventMeta: payments.EventMeta{ID: eventID, Type: "checkout.session.expired", SessionID: sessionID, Payload: []byte(`{}`)},
		Reason:    "expired",
	}
}
