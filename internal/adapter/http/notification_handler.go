package http

import (
	"errors"
	"net/http"

	notifDomain "ckmoney-backend/internal/domain/notification"
	notifUC "ckmoney-backend/internal/usecase/notification"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct{ uc *notifUC.Usecase }

func NewNotificationHandler(uc *notifUC.Usecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// List serves the polling feed. Clients refresh roughly every 30 seconds,
// so the payload stays a plain newest-first array.
func (h *NotificationHandler) List(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id query parameter is required"})
	}
	items, err := h.uc.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "notification store unavailable"})
	}
	if items == nil {
		items = []notifDomain.Notification{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	err := h.uc.MarkRead(c.Request().Context(), c.Param("notification_id"))
	if err != nil {
		if errors.Is(err, notifDomain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "notification not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "notification store unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}
