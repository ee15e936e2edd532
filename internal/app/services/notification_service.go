package services

import (
	"context"
	"fmt"

	"github.com/enlassist/backend/internal/app/models"
)

// Notifier creates in-app notifications. Callers treat notification failures
// as non-fatal: the triggering business operation never rolls back.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, message string) error
}

// NotificationService defines the interface for notification operations
type NotificationService interface {
	Notifier
	ListNotifications(ctx context.Context, userID int64, page, size int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// notificationStore is the repository surface the service depends on
type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int64, page, size int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// notificationServiceImpl implements the NotificationService interface
type notificationServiceImpl struct {
	notificationRepo notificationStore
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(notificationRepo notificationStore) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
	}
}

// NotifyUser records an in-app notification for the user
func (s *notificationServiceImpl) NotifyUser(ctx context.Context, userID int64, message string) error {
	if userID <= 0 || message == "" {
		return fmt.Errorf("invalid notification target or message")
	}
	return s.notificationRepo.Create(ctx, &models.Notification{
		UserID:  userID,
		Message: message,
	})
}

// ListNotifications retrieves a user's notifications, newest first
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, userID int64, page, size int) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(ctx, userID, page, size)
}

// MarkRead marks one of the user's notifications as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}

// MarkAllRead marks all of the user's notifications as read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// CountUnread counts the user's unread notifications
func (s *notificationServiceImpl) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
