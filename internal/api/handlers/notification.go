package handlers

import (
	"net/http"

	"fleet-coordinator/internal/services"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	validator           *validator.Validate
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
	}
}

// GetNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	viewer := viewerFromContext(c)

	notifications, err := h.notificationService.GetNotifications(viewer.UserID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", notifications)
}

// GetUnreadCount returns how many of the caller's notifications are unread
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	viewer := viewerFromContext(c)

	count, err := h.notificationService.CountUnread(viewer.UserID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to count notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Unread count retrieved successfully", map[string]int64{
		"unread": count,
	})
}

// Send creates a notification for another user. Administrators only.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req struct {
		UserID  string `json:"userId" validate:"required"`
		Message string `json:"message" validate:"required,min=1,max=500"`
		Type    string `json:"type" validate:"required,oneof=INFO ALERT SUCCESS"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.notificationService.Notify(req.UserID, req.Message, req.Type); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to send notification", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Notification sent successfully", nil)
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer := viewerFromContext(c)
	id := c.Param("id")

	if err := h.notificationService.MarkRead(viewer.UserID, id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to mark notification read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification marked read", nil)
}

// MarkAllRead marks every notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewer := viewerFromContext(c)

	if err := h.notificationService.MarkAllRead(viewer.UserID); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark notifications read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "All notifications marked read", nil)
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	viewer := viewerFromContext(c)
	id := c.Param("id")

	if err := h.notificationService.DeleteNotification(viewer.UserID, id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete notification", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification deleted successfully", nil)
}
