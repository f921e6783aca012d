package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"legal-portal/internal/api/respond"
	"legal-portal/internal/domain/billing"
	"legal-portal/internal/payments"

	"github.com/gin-gonic/gin"
)

type Reconciliation interface {
	ListAllPayments(ctx context.Context, limit int) ([]billing.PaymentIntentRecord, error)
	ListStuck(ctx context.Context) ([]billing.PaymentIntentRecord, error)
	RepairStuck(ctx context.Context) (payments.RepairReport, error)
	Stats(ctx context.Context) (*payments.Stats, error)
}

type Handler struct {
	engine Reconciliation
}

func NewHandler(engine Reconciliation) *Handler {
	return &Handler{engine: engine}
}

type AdminPayment struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	QuoteID       string  `json:"quote_id"`
	ClientID      uint    `json:"client_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	TransactionID *string `json:"transaction_id,omitempty"`
	PaidAt        *string `json:"paid_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toAdminPayments(rows []billing.PaymentIntentRecord) []AdminPayment {
	result := make([]AdminPayment, 0, len(rows))
	for _, p := range rows {
		var paidAt *string
		if p.PaidAt != nil {
			s := p.PaidAt.UTC().Format(time.RFC3339)
			paidAt = &s
		}
		result = append(result, AdminPayment{
			ID:            p.ID,
			SessionID:     p.SessionID,
			QuoteID:       p.QuoteID,
			ClientID:      p.ClientID,
			Amount:        p.Amount.StringFixed(2),
			Currency:      p.Currency,
			Status:        string(p.Status),
			TransactionID: p.ProviderPaymentID,
			PaidAt:        paidAt,
			CreatedAt:     p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return result
}

func (h *Handler) ListAllPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.engine.ListAllPayments(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminPayments(rows))
}

// ListStuck shows completed checkouts whose quote was never marked paid.
func (h *Handler) ListStuck(c *gin.Context) {
	rows, err := h.engine.ListStuck(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminPayments(rows))
}

func (h *Handler) RepairStuck(c *gin.Context) {
	report, err := h.engine.RepairStuck(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetAdminStats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
