package services

import (
	"errors"
	"fmt"
	"time"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/push"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	pushSender       push.Sender
	wsManager        websocket.WebSocketManager
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, userRepo *repository.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// SetPushSender allows setting the push delivery backend
func (s *NotificationService) SetPushSender(sender push.Sender) {
	s.pushSender = sender
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (s *NotificationService) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	s.wsManager = wsManager
}

// Notify persists one in-app notification and mirrors it to push when the
// recipient has a registered device token. The stored document is the
// source of truth; push is best effort.
func (s *NotificationService) Notify(userID, message, notificationType string) error {
	switch notificationType {
	case models.NotificationInfo, models.NotificationAlert, models.NotificationSuccess:
	default:
		return errors.New("invalid notification type")
	}

	notification := &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Message:   message,
		Type:      notificationType,
		Read:      false,
		CreatedAt: time.Now(),
	}

	created, err := s.notificationRepo.Create(notification)
	if err != nil {
		return err
	}

	s.sendPush(userID, message)
	s.publishChange(websocket.ActionCreate, created)
	return nil
}

func (s *NotificationService) GetNotifications(userID string) ([]*models.Notification, error) {
	return s.notificationRepo.FindByUser(userID)
}

func (s *NotificationService) CountUnread(userID string) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead marks one notification read. The caller must own it.
func (s *NotificationService) MarkRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return errors.New("notification does not belong to user")
	}

	if err := s.notificationRepo.MarkRead(notificationID); err != nil {
		return err
	}

	s.publishChange(websocket.ActionUpdate, notification)
	return nil
}

func (s *NotificationService) MarkAllRead(userID string) error {
	return s.notificationRepo.MarkAllRead(userID)
}

func (s *NotificationService) DeleteNotification(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return err
	}

	if notification.UserID != userID {
		return errors.New("notification does not belong to user")
	}

	return s.notificationRepo.Delete(notificationID)
}

func (s *NotificationService) sendPush(userID, message string) {
	if s.pushSender == nil || s.userRepo == nil {
		return
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil || user.FCMToken == "" {
		return
	}

	data := map[string]string{
		"type": "notification",
	}
	if err := s.pushSender.Send(user.FCMToken, "Fleet Coordination", message, data); err != nil {
		fmt.Printf("Failed to send push to user %s: %v\n", userID, err)
	}
}

func (s *NotificationService) publishChange(action string, notification *models.Notification) {
	if s.wsManager == nil || notification == nil {
		return
	}

	// Notifications are personal; deliver only to their owner.
	event := websocket.ChangeEvent{
		Collection:   websocket.CollectionNotifications,
		Action:       action,
		DocumentID:   notification.ID.Hex(),
		Participants: []string{notification.UserID},
		Data: map[string]interface{}{
			"userId": notification.UserID,
			"type":   notification.Type,
			"read":   notification.Read,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityHigh,
	}

	if err := s.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast notification change: %v\n", err)
	}
}
