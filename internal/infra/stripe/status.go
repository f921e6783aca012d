package stripe

import (
	"strings"

	"legal-portal/internal/payments"
)

// NormalizePaymentStatus maps checkout.session.payment_status onto the
// statuses the reconciliation engine understands. Unknown values are treated
// as unpaid.
func NormalizePaymentStatus(s string) payments.PaymentStatus {
	switch strings.TrimSpace(s) {
	case "paid":
		return payments.PaymentStatusPaid
	case "no_payment_required":
		return payments.PaymentStatusNoPaymentRequired
	default:
		return payments.PaymentStatusUnpaid
	}
}
