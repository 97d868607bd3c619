package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"showtalk/internal/middleware"
	"showtalk/internal/services"
	"showtalk/internal/utils"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	list, err := h.notifications.List(c.Request.Context(), user.ID, utils.StringToInt(c.Query("limit"), 50))
	if err != nil {
		fail(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

// Read POST /api/notifications/:id/read
func (h *NotificationHandler) Read(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReadAll POST /api/notifications/read-all
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.notifications.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
