package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"legal-portal/config"
	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/domain/users"
	"legal-portal/internal/repository"
	"legal-portal/internal/testutil"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	fail error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newService(t *testing.T) (*Service, *gorm.DB, *recordingMailer) {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	mailer := &recordingMailer{}
	svc := NewService(
		repository.NewNotificationRepository(db),
		repository.NewDirectoryRepository(db),
		mailer,
		zap.NewNop(),
	)
	return svc, db, mailer
}

func TestEnqueueTxIsIdempotentPerTarget(t *testing.T) {
	svc, db, _ := newService(t)
	q := testutil.SeedQuote(t, db, "q-1", "1500.00")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.EnqueueTx(ctx, tx, q)
		})
		if err != nil {
			t.Fatalf("enqueue #%d: %v", i+1, err)
		}
	}

	var count int64
	db.Model(&notifications.Notification{}).Where("quote_id = ?", q.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected one row per target, got %d", count)
	}
}

func TestEnqueueTxRolledBackWithTransaction(t *testing.T) {
	svc, db, _ := newService(t)
	q := testutil.SeedQuote(t, db, "q-1", "10.00")

	_ = db.Transaction(func(tx *gorm.DB) error {
		if err := svc.EnqueueTx(context.Background(), tx, q); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		return errors.New("abort")
	})

	var count int64
	db.Model(&notifications.Notification{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected rollback to drop rows, got %d", count)
	}
}

func TestDispatchQuote(t *testing.T) {
	svc, db, mailer := newService(t)
	q := testutil.SeedQuote(t, db, "q-1", "1500.00")
	ctx := context.Background()
	if err := db.Transaction(func(tx *gorm.DB) error { return svc.EnqueueTx(ctx, tx, q) }); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	t.Run("failed send keeps rows pending", func(t *testing.T) {
		mailer.fail = errors.New("smtp down")
		defer func() { mailer.fail = nil }()

		if err := svc.DispatchQuote(ctx, q.ID); err == nil {
			t.Fatal("expected error")
		}
		var rows []notifications.Notification
		db.Where("quote_id = ?", q.ID).Find(&rows)
		for _, r := range rows {
			if r.Status != notifications.StatusPending || r.Attempts != 1 || r.LastError == "" {
				t.Fatalf("unexpected row after failure: %+v", r)
			}
		}
	})

	t.Run("delivers once", func(t *testing.T) {
		if err := svc.DispatchQuote(ctx, q.ID); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if err := svc.DispatchQuote(ctx, q.ID); err != nil {
			t.Fatalf("second dispatch: %v", err)
		}
		if mailer.count() != 2 {
			t.Fatalf("expected 2 mails, got %d", mailer.count())
		}
		for _, m := range mailer.sent {
			if !strings.Contains(m.Body, "1500.00 EUR") {
				t.Fatalf("unexpected body %q", m.Body)
			}
		}
	})
}

func TestRelayRunOnce(t *testing.T) {
	svc, db, mailer := newService(t)
	q := testutil.SeedQuote(t, db, "q-1", "99.00")
	ctx := context.Background()
	if err := db.Transaction(func(tx *gorm.DB) error { return svc.EnqueueTx(ctx, tx, q) }); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	relay := NewRelay(svc, config.Notify{RelayInterval: time.Second, RelayGrace: time.Hour, RelayBatch: 10}, zap.NewNop())
	n, err := relay.RunOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("rows inside the grace period must wait, got %d %v", n, err)
	}

	relay.cfg.RelayGrace = -time.Minute
	n, err = relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if n != 2 || mailer.count() != 2 {
		t.Fatalf("expected 2 deliveries, got %d attempted and %d sent", n, mailer.count())
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	svc, _, _ := newService(t)
	relay := NewRelay(svc, config.Notify{RelayInterval: 10 * time.Millisecond, RelayBatch: 10}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestSMTPMailer(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotBody string
	m := &SMTPMailer{
		cfg: config.SMTP{Host: "smtp.example.com", Port: "587", From: "billing@example.com", Password: "pw"},
		send: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotBody = addr, to, string(msg)
			return nil
		},
	}

	err := m.Send(context.Background(), Message{To: "client@example.com", Subject: "Payment received", Body: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "client@example.com" {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	if !strings.HasPrefix(gotBody, "Subject: Payment received\r\n") {
		t.Fatalf("unexpected message %q", gotBody)
	}
}

func TestNewMailer(t *testing.T) {
	if _, ok := NewMailer(config.SMTP{}, zap.NewNop()).(*LogMailer); !ok {
		t.Fatal("expected log mailer without SMTP host")
	}
	if _, ok := NewMailer(config.SMTP{Host: "smtp.example.com"}, zap.NewNop()).(*SMTPMailer); !ok {
		t.Fatal("expected SMTP mailer with host")
	}
}

func TestLogMailerMasksRecipient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mailer := NewMailer(config.SMTP{}, zap.New(core))

	if err := mailer.Send(context.Background(), Message{To: "client@example.com", Subject: "Payment received"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries := logs.FilterMessage("mail").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["to"]; got != "c***@example.com" {
		t.Fatalf("expected masked recipient, got %v", got)
	}
}

type flakyDirectory struct {
	repository.DirectoryRepository
}

func (flakyDirectory) GetUser(context.Context, uint) (*users.User, error) {
	return nil, errors.New("connection reset")
}

type stuckFailures struct {
	repository.NotificationRepository
}

func (stuckFailures) RecordFailure(context.Context, string, error) error {
	return errors.New("database is locked")
}

func TestDispatchLogsUnrecordedFailure(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	q := testutil.SeedQuote(t, db, "q-1", "1500.00")
	ctx := context.Background()

	repo := repository.NewNotificationRepository(db)
	enqueuer := NewService(repo, repository.NewDirectoryRepository(db), &recordingMailer{}, zap.NewNop())
	if err := db.Transaction(func(tx *gorm.DB) error { return enqueuer.EnqueueTx(ctx, tx, q) }); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	mailer := &recordingMailer{}
	svc := NewService(stuckFailures{repo}, flakyDirectory{repository.NewDirectoryRepository(db)}, mailer, zap.New(core))

	err := svc.DispatchQuote(ctx, q.ID)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if mailer.count() != 0 {
		t.Fatalf("expected no mail, got %d", mailer.count())
	}
	if n := logs.FilterMessage("record notification failure").Len(); n != 2 {
		t.Fatalf("expected one failure log per notification, got %d", n)
	}
}
