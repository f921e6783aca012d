package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestQuoteUpdateIf(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	q := testutil.SeedQuote(t, db, "q-1", "1500.00")
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	t.Run("applies when predicate holds", func(t *testing.T) {
		now := time.Now().UTC()
		n, err := repo.UpdateIf(ctx, q.ID, Where("status <> ?", quotes.StatusPaid), map[string]any{
			"status":  quotes.StatusPaid,
			"paid_at": now,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 row, got %d", n)
		}
	})

	t.Run("no-op when predicate fails", func(t *testing.T) {
		n, err := repo.UpdateIf(ctx, q.ID, Where("status <> ?", quotes.StatusPaid), map[string]any{
			"status": quotes.StatusPaid,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 rows, got %d", n)
		}
	})

	got, err := repo.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != quotes.StatusPaid || got.PaidAt == nil {
		t.Fatalf("expected PAID with paid_at, got %s %v", got.Status, got.PaidAt)
	}
	if !got.Total.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("total changed: %s", got.Total)
	}
}

func TestQuoteGetNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewQuoteRepository(db).Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCondAnd(t *testing.T) {
	c := Where("a = ?", 1).And(Where("b = ?", 2))
	if c.query != "(a = ?) AND (b = ?)" {
		t.Fatalf("unexpected query %q", c.query)
	}
	if len(c.args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(c.args))
	}
	if got := (Cond{}).And(Where("x = ?", 1)); got.query != "x = ?" {
		t.Fatalf("empty And should return other, got %q", got.query)
	}
}

func TestIntentCompletedUniquePerQuote(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	q := testutil.SeedQuote(t, db, "q-1", "100.00")
	testutil.SeedIntent(t, db, q, "i-1", "cs_1")
	testutil.SeedIntent(t, db, q, "i-2", "cs_2")
	repo := NewIntentRepository(db)
	ctx := context.Background()

	if _, err := repo.UpdateIf(ctx, "cs_1", Where("status = ?", billing.IntentPending), map[string]any{
		"status": billing.IntentCompleted,
	}); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	_, err := repo.UpdateIf(ctx, "cs_2", Where("status = ?", billing.IntentPending), map[string]any{
		"status": billing.IntentCompleted,
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key, got %v", err)
	}
}

func TestIntentListStuck(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	stuck := testutil.SeedQuote(t, db, "q-stuck", "100.00")
	fine := testutil.SeedQuote(t, db, "q-fine", "200.00")
	testutil.SeedIntent(t, db, stuck, "i-1", "cs_stuck")
	testutil.SeedIntent(t, db, fine, "i-2", "cs_fine")
	ctx := context.Background()

	db.Model(&billing.PaymentIntentRecord{}).Where("id IN ?", []string{"i-1", "i-2"}).
		Updates(map[string]any{"status": billing.IntentCompleted, "paid_at": time.Now().UTC()})
	db.Model(&quotes.PricingQuote{}).Where("id = ?", fine.ID).Update("status", quotes.StatusPaid)

	out, err := NewIntentRepository(db).ListStuck(ctx)
	if err != nil {
		t.Fatalf("list stuck: %v", err)
	}
	if len(out) != 1 || out[0].SessionID != "cs_stuck" {
		t.Fatalf("expected only cs_stuck, got %+v", out)
	}
}

func TestWebhookEventRecord(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	ev := func() *billing.WebhookEvent {
		return &billing.WebhookEvent{
			ProviderEventID: "evt_1",
			EventType:       "checkout.session.completed",
			SessionID:       "cs_1",
			Payload:         datatypes.JSON(`{"id":"evt_1"}`),
		}
	}

	first, err := repo.Record(ctx, ev())
	if err != nil || !first {
		t.Fatalf("expected first insert, got %v %v", first, err)
	}
	again, err := repo.Record(ctx, ev())
	if err != nil || again {
		t.Fatalf("expected duplicate, got %v %v", again, err)
	}

	if err := repo.MarkProcessed(ctx, "evt_1"); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	got, err := repo.Get(ctx, "evt_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Deliveries != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got.Deliveries)
	}
	if got.ProcessedAt == nil {
		t.Fatal("expected processed_at")
	}
}

func TestNotificationInsertIgnore(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	row := func(id string, user uint) notifications.Notification {
		return notifications.Notification{
			ID:        id,
			UserID:    user,
			QuoteID:   "q-1",
			Kind:      notifications.KindPaymentReceived,
			Amount:    decimal.RequireFromString("10"),
			Currency:  "eur",
			Status:    notifications.StatusPending,
			CreatedAt: time.Now().UTC(),
		}
	}

	if err := repo.InsertIgnore(ctx, []notifications.Notification{row("n-1", 3), row("n-2", 7)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertIgnore(ctx, []notifications.Notification{row("n-3", 3), row("n-4", 7)}); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	pending, err := repo.ListPendingForQuote(ctx, "q-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(pending))
	}

	ok, err := repo.MarkDelivered(ctx, "n-1")
	if err != nil || !ok {
		t.Fatalf("expected delivery, got %v %v", ok, err)
	}
	ok, err = repo.MarkDelivered(ctx, "n-1")
	if err != nil || ok {
		t.Fatalf("second mark should be a no-op, got %v %v", ok, err)
	}

	mine, err := repo.ListForUser(ctx, 3, 10)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != notifications.StatusDelivered {
		t.Fatalf("unexpected rows for user 3: %+v", mine)
	}
}

func TestQuoteRevenueAndCounts(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	testutil.SeedQuote(t, db, "q-1", "1500.00")
	testutil.SeedQuote(t, db, "q-2", "250.50")
	testutil.SeedQuote(t, db, "q-3", "99.00")
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []string{"q-1", "q-2"} {
		if _, err := repo.UpdateIf(ctx, id, Where("status <> ?", quotes.StatusPaid), map[string]any{
			"status": quotes.StatusPaid, "paid_at": now,
		}); err != nil {
			t.Fatalf("pay %s: %v", id, err)
		}
	}

	total, err := repo.Revenue(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("1750.50")) {
		t.Fatalf("expected 1750.50, got %s", total)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[quotes.StatusPaid] != 2 || counts[quotes.StatusAccepted] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestNotificationClaim(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	err := repo.InsertIgnore(ctx, []notifications.Notification{{
		ID: "n-1", UserID: 3, QuoteID: "q-1", Kind: notifications.KindPaymentReceived,
		Amount: decimal.RequireFromString("1"), Currency: "eur", Status: notifications.StatusPending,
		CreatedAt: time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	lease := time.Now().UTC().Add(-time.Minute)
	if ok, err := repo.Claim(ctx, "n-1", lease); err != nil || !ok {
		t.Fatalf("first claim should win, got %v %v", ok, err)
	}
	if ok, err := repo.Claim(ctx, "n-1", lease); err != nil || ok {
		t.Fatalf("live claim must not be taken, got %v %v", ok, err)
	}
	if err := repo.RecordFailure(ctx, "n-1", errors.New("smtp")); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if ok, err := repo.Claim(ctx, "n-1", lease); err != nil || !ok {
		t.Fatalf("failure releases the claim, got %v %v", ok, err)
	}
	if ok, err := repo.Claim(ctx, "n-1", time.Now().UTC().Add(time.Minute)); err != nil || !ok {
		t.Fatalf("stale claim may be taken over, got %v %v", ok, err)
	}
}

func TestQuoteGetForUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedParties(t, db)
	q := testutil.SeedQuote(t, db, "q-1", "1500.00")
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).GetForUpdate(ctx, q.ID)
		if err != nil {
			return err
		}
		if locked.ID != q.ID || locked.Status != quotes.StatusAccepted {
			t.Fatalf("unexpected quote %+v", locked)
		}
		_, err = repo.WithTx(tx).GetForUpdate(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}
