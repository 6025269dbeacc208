package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/pitchbooking/internal/service/notify"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notify.NotificationUseCase
}

func NewNotificationHandler(service notify.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/toasts", h.toasts)
	router.PUT("/read", h.markAllRead)
	router.PUT("/:id/read", h.markRead)
	router.DELETE("/", h.clear)
	router.DELETE("/:id", h.dismiss)
}

func (h *NotificationHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Inbox())
}

func (h *NotificationHandler) toasts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Toasts())
}

func (h *NotificationHandler) dismiss(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	if err := h.service.Dismiss(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	if err := h.service.MarkAllRead(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) clear(c *gin.Context) {
	if err := h.service.ClearAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
