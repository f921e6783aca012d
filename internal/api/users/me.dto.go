package users

import "time"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Role     string `json:"role"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Quotes      QuoteSummaryDTO `json:"quotes"`
	LastPayment *PaymentDTO     `json:"last_payment"`
	// AwaitingPayment counts accepted quotes the caller still has to pay.
	AwaitingPayment int `json:"awaiting_payment"`
}

type QuoteSummaryDTO struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type PaymentDTO struct {
	QuoteID       string     `json:"quote_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	TransactionID *string    `json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
}
