// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"legal-portal/database"
	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/cases"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/domain/users"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture ids used across packages.
const (
	ClientID uint = 7
	LawyerID uint = 3
	OtherID  uint = 99
	AdminID  uint = 1
	CaseID   uint = 11
)

// SeedParties inserts the client, lawyer, an unrelated user, an admin and
// one case linking client and lawyer.
func SeedParties(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&users.User{ID: ClientID, Name: "Ana", Lastname: "Client", Email: "client@example.com", Role: users.RoleClient},
		&users.User{ID: LawyerID, Name: "Luis", Lastname: "Lawyer", Email: "lawyer@example.com", Role: users.RoleLawyer},
		&users.User{ID: OtherID, Name: "Eve", Email: "other@example.com", Role: users.RoleClient},
		&users.User{ID: AdminID, Name: "Root", Email: "admin@example.com", Role: users.RoleAdmin},
		&cases.Case{ID: CaseID, Title: "Contract dispute", ClientID: ClientID, LawyerID: LawyerID},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// SeedQuote inserts an ACCEPTED quote for the fixture case.
func SeedQuote(t *testing.T, db *gorm.DB, id, total string) *quotes.PricingQuote {
	t.Helper()
	amount := decimal.RequireFromString(total)
	q := &quotes.PricingQuote{
		ID:             id,
		CaseID:         CaseID,
		LawyerID:       LawyerID,
		ClientID:       ClientID,
		BasePrice:      amount,
		HourlyRate:     decimal.Zero,
		EstimatedHours: decimal.Zero,
		Total:          amount,
		Currency:       "eur",
		Status:         quotes.StatusAccepted,
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	return q
}

// SeedIntent inserts a PENDING intent for quote q under sessionID.
func SeedIntent(t *testing.T, db *gorm.DB, q *quotes.PricingQuote, id, sessionID string) *billing.PaymentIntentRecord {
	t.Helper()
	p := &billing.PaymentIntentRecord{
		ID:        id,
		SessionID: sessionID,
		QuoteID:   q.ID,
		ClientID:  q.ClientID,
		Amount:    q.Total,
		Currency:  q.Currency,
		Status:    billing.IntentPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed intent: %v", err)
	}
	return p
}
