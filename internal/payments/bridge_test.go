package payments_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/payments"
	"legal-portal/internal/testutil"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func TestCreateCheckout(t *testing.T) {
	f := newFixture(t)
	q := testutil.SeedQuote(t, f.db, "q1", "1500.00")
	ctx := context.Background()

	f.provider.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
			if req.QuoteID != q.ID || req.ClientID != testutil.ClientID || req.LawyerID != testutil.LawyerID {
				t.Errorf("unexpected request %+v", req)
			}
			if !req.Amount.Equal(decimal.RequireFromString("1500")) || req.CaseTitle != "Contract dispute" {
				t.Errorf("unexpected amount or title %+v", req)
			}
			if req.CustomerEmail != "client@example.com" || req.ExpiresAt.IsZero() {
				t.Errorf("unexpected email or expiry %+v", req)
			}
			return &payments.CheckoutSession{ID: "cs_new", URL: "https://checkout.example/cs_new"}, nil
		})

	amount := decimal.RequireFromString("1500.00")
	res, err := f.bridge.CreateCheckout(ctx, q.ID, testutil.ClientID, &amount)
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if res.SessionID != "cs_new" || res.CheckoutURL == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	intent := f.intent(t, "cs_new")
	if intent.Status != billing.IntentPending || intent.QuoteID != q.ID || !intent.Amount.Equal(q.Total) {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if got := f.quote(t, q.ID).Status; got != quotes.StatusAccepted {
		t.Fatalf("checkout must not change quote status, got %s", got)
	}
}

func TestCreateCheckoutRejections(t *testing.T) {
	f := newFixture(t)
	accepted := testutil.SeedQuote(t, f.db, "q1", "1500.00")
	draft := testutil.SeedQuote(t, f.db, "q2", "200.00")
	f.db.Model(&quotes.PricingQuote{}).Where("id = ?", draft.ID).Update("status", quotes.StatusDraft)
	ctx := context.Background()
	wrong := decimal.RequireFromString("1499.99")

	cases := []struct {
		name      string
		quoteID   string
		requester uint
		amount    *decimal.Decimal
		want      error
	}{
		{name: "unknown quote", quoteID: "missing", requester: testutil.ClientID, want: payments.ErrNotFound},
		{name: "not the client", quoteID: accepted.ID, requester: testutil.LawyerID, want: payments.ErrForbidden},
		{name: "not accepted", quoteID: draft.ID, requester: testutil.ClientID, want: payments.ErrInvalidState},
		{name: "amount mismatch", quoteID: accepted.ID, requester: testutil.ClientID, amount: &wrong, want: payments.ErrAmountMismatch},
		{name: "anonymous", quoteID: accepted.ID, requester: 0, want: payments.ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bridge.CreateCheckout(ctx, tc.quoteID, tc.requester, tc.amount)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if !errors.Is(payments.ErrAmountMismatch, payments.ErrInvalidState) {
		t.Fatal("amount mismatch must be an invalid state")
	}
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	f := newFixture(t)
	q := testutil.SeedQuote(t, f.db, "q1", "1500.00")

	f.provider.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := f.bridge.CreateCheckout(context.Background(), q.ID, testutil.ClientID, nil)
	if !errors.Is(err, payments.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	var count int64
	f.db.Model(&billing.PaymentIntentRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("nothing may be written, got %d intents", count)
	}
}

func TestCreateCheckoutCompensatesOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	q := testutil.SeedQuote(t, f.db, "q1", "1500.00")
	// An existing row with the same session id makes the insert fail.
	testutil.SeedIntent(t, f.db, q, "i-old", "cs_dup")

	f.provider.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).
		Return(&payments.CheckoutSession{ID: "cs_dup", URL: "https://checkout.example/cs_dup"}, nil)
	f.provider.EXPECT().ExpireCheckoutSession(gomock.Any(), "cs_dup").Return(nil)

	_, err := f.bridge.CreateCheckout(context.Background(), q.ID, testutil.ClientID, nil)
	if !errors.Is(err, payments.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestCheckoutAndWithdrawNeverBothWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
			return &payments.CheckoutSession{ID: "cs_" + req.QuoteID, URL: "https://checkout.example/" + req.QuoteID}, nil
		})
	f.provider.EXPECT().ExpireCheckoutSession(gomock.Any(), gomock.Any()).AnyTimes().Return(nil)

	for i := 0; i < 10; i++ {
		q := testutil.SeedQuote(t, f.db, fmt.Sprintf("race-%d", i), "100.00")

		var wg sync.WaitGroup
		var checkoutErr, withdrawErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, checkoutErr = f.bridge.CreateCheckout(ctx, q.ID, testutil.ClientID, nil)
		}()
		go func() {
			defer wg.Done()
			_, withdrawErr = f.engine.WithdrawQuote(ctx, q.ID, testutil.LawyerID)
		}()
		wg.Wait()

		if (checkoutErr == nil) == (withdrawErr == nil) {
			t.Fatalf("%s: exactly one side must win, checkout=%v withdraw=%v", q.ID, checkoutErr, withdrawErr)
		}

		var pending int64
		f.db.Model(&billing.PaymentIntentRecord{}).
			Where("quote_id = ? AND status = ?", q.ID, billing.IntentPending).
			Count(&pending)
		status := f.quote(t, q.ID).Status
		if status == quotes.StatusCanceled && pending > 0 {
			t.Fatalf("%s: withdrawn quote has a pending checkout", q.ID)
		}
		if checkoutErr == nil && (status != quotes.StatusAccepted || pending != 1) {
			t.Fatalf("%s: checkout won but quote=%s pending=%d", q.ID, status, pending)
		}
	}
}
