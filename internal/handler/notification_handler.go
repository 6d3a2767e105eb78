package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billbuzz/billbuzz/internal/notify"
	"github.com/billbuzz/billbuzz/shared/middleware"
	"github.com/billbuzz/billbuzz/shared/models"
)

type NotificationFeed interface {
	Snapshot() models.NotificationFeed
	MarkAllRead()
	Clear()
}

type PermissionStore interface {
	State() notify.Permission
	Set(notify.Permission) error
}

type NotificationHandler struct {
	feed       NotificationFeed
	permission PermissionStore
}

type PermissionRequest struct {
	Permission string `json:"permission" validate:"required,oneof=default granted denied"`
}

type PermissionResponse struct {
	Permission notify.Permission `json:"permission"`
}

func NewNotificationHandler(feed NotificationFeed, permission PermissionStore) *NotificationHandler {
	return &NotificationHandler{feed: feed, permission: permission}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Snapshot())
}

// MarkAllRead is what opening the feed does.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	h.feed.MarkAllRead()
	c.JSON(http.StatusOK, h.feed.Snapshot())
}

func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	h.feed.Clear()
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) GetPermission(c *gin.Context) {
	c.JSON(http.StatusOK, PermissionResponse{Permission: h.permission.State()})
}

// SetPermission records the answer the client's host gave.
func (h *NotificationHandler) SetPermission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	if err := h.permission.Set(notify.Permission(req.Permission)); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, PermissionResponse{Permission: h.permission.State()})
}
