package notifications

import (
	"context"
	"net/http"
	"strconv"

	"legal-portal/internal/api/respond"
	notificationdomain "legal-portal/internal/domain/notifications"
	"legal-portal/internal/payments"

	"github.com/gin-gonic/gin"
)

type Lister interface {
	ListForUser(ctx context.Context, userID uint, limit int) ([]notificationdomain.Notification, error)
}

type Handler struct {
	notifications Lister
}

func NewHandler(notifications Lister) *Handler {
	return &Handler{notifications: notifications}
}

// ListNotifications returns the caller's notifications, newest first.
// ?limit= caps the page size.
func (h *Handler) ListNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		respond.Error(c, payments.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.BadRequest(c, "limit must be a positive number")
			return
		}
		limit = n
	}

	out, err := h.notifications.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
