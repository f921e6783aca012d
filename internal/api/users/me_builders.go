package users

import (
	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/domain/users"
)

func BuildUserDTO(u *users.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Lastname: u.Lastname,
		Role:     u.Role,
	}
}

func BuildQuoteSummaryDTO(qs []quotes.PricingQuote) QuoteSummaryDTO {
	out := QuoteSummaryDTO{Total: len(qs), ByStatus: map[string]int{}}
	for _, q := range qs {
		out.ByStatus[string(q.Status)]++
	}
	return out
}

// CountAwaitingPayment counts accepted quotes where userID is the client.
func CountAwaitingPayment(userID uint, qs []quotes.PricingQuote) int {
	n := 0
	for _, q := range qs {
		if q.ClientID == userID && q.Status == quotes.StatusAccepted {
			n++
		}
	}
	return n
}

// BuildLastPaymentDTO picks the newest completed checkout. rows are
// ordered newest first.
func BuildLastPaymentDTO(rows []billing.PaymentIntentRecord) *PaymentDTO {
	for _, p := range rows {
		if p.Status != billing.IntentCompleted {
			continue
		}
		return &PaymentDTO{
			QuoteID:       p.QuoteID,
			Amount:        p.Amount.StringFixed(2),
			Currency:      p.Currency,
			Status:        string(p.Status),
			TransactionID: p.ProviderPaymentID,
			PaidAt:        p.PaidAt,
		}
	}
	return nil
}
