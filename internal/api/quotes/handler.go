package quotes

import (
	"context"
	"net/http"

	"legal-portal/internal/api/respond"
	quotedomain "legal-portal/internal/domain/quotes"
	"legal-portal/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type QuoteManager interface {
	Create(ctx context.Context, lawyerID uint, in payments.CreateQuoteInput) (*quotedomain.PricingQuote, error)
	Send(ctx context.Context, quoteID string, lawyerID uint) (*quotedomain.PricingQuote, error)
	Accept(ctx context.Context, quoteID string, clientID uint) (*quotedomain.PricingQuote, error)
	Get(ctx context.Context, quoteID string, requesterID uint) (*quotedomain.PricingQuote, error)
	ListForUser(ctx context.Context, userID uint) ([]quotedomain.PricingQuote, error)
}

type Withdrawer interface {
	WithdrawQuote(ctx context.Context, quoteID string, lawyerID uint) (*quotedomain.PricingQuote, error)
}

type Handler struct {
	quotes     QuoteManager
	withdrawer Withdrawer
}

func NewHandler(quotes QuoteManager, withdrawer Withdrawer) *Handler {
	return &Handler{quotes: quotes, withdrawer: withdrawer}
}

type createQuoteRequest struct {
	CaseID         uint            `json:"caseId" binding:"required"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	HourlyRate     decimal.Decimal `json:"hourlyRate"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Description    string          `json:"description"`
}

// CreateQuote drafts a quote for one of the lawyer's cases.
func (h *Handler) CreateQuote(c *gin.Context) {
	var body createQuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Invalid quote data")
		return
	}

	q, err := h.quotes.Create(c.Request.Context(), c.GetUint("user_id"), payments.CreateQuoteInput{
		CaseID:         body.CaseID,
		BasePrice:      body.BasePrice,
		HourlyRate:     body.HourlyRate,
		EstimatedHours: body.EstimatedHours,
		Description:    body.Description,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *Handler) SendQuote(c *gin.Context) {
	h.transition(c, h.quotes.Send)
}

func (h *Handler) AcceptQuote(c *gin.Context) {
	h.transition(c, h.quotes.Accept)
}

// WithdrawQuote cancels a quote that has not been paid.
func (h *Handler) WithdrawQuote(c *gin.Context) {
	h.transition(c, h.withdrawer.WithdrawQuote)
}

func (h *Handler) transition(c *gin.Context, step func(context.Context, string, uint) (*quotedomain.PricingQuote, error)) {
	q, err := step(c.Request.Context(), c.Param("id"), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.quotes.Get(c.Request.Context(), c.Param("id"), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ListQuotes returns quotes where the caller is the lawyer or the client.
func (h *Handler) ListQuotes(c *gin.Context) {
	out, err := h.quotes.ListForUser(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
