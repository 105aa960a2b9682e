package core

import (
	"context"
	"errors"
	"fmt"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// Custom errors for the NotificationService
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrForbidden            = errors.New("operation not permitted for this user")
)

// notificationService implements the NotificationService interface.
type notificationService struct {
	notificationRepo db.NotificationRepository
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(nr db.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: nr}
}

// Notify creates an unread notification for the recipient.
func (s *notificationService) Notify(ctx context.Context, userID, message, link string) error {
	if s.notificationRepo == nil {
		return errors.New("notificationService: notificationRepo not initialized")
	}
	n := &models.Notification{
		UserID:  userID,
		Message: message,
		Link:    link,
		IsRead:  false,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification for user '%s': %w", userID, err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *notificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user '%s': %w", userID, err)
	}
	return notifications, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list notifications for user '%s': %w", userID, err)
	}

	var unread []string
	for _, n := range notifications {
		if !n.IsRead {
			unread = append(unread, n.ID)
		}
	}
	if len(unread) == 0 {
		return nil
	}
	if err := s.notificationRepo.MarkRead(ctx, unread); err != nil {
		return fmt.Errorf("failed to mark notifications read for user '%s': %w", userID, err)
	}
	return nil
}

// Delete removes one notification after verifying it belongs to the caller.
func (s *notificationService) Delete(ctx context.Context, userID, notificationID string) error {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list notifications for user '%s': %w", userID, err)
	}
	for _, n := range notifications {
		if n.ID == notificationID {
			if err := s.notificationRepo.Delete(ctx, notificationID); err != nil {
				return fmt.Errorf("failed to delete notification '%s': %w", notificationID, err)
			}
			return nil
		}
	}
	return ErrNotificationNotFound
}

// Watch streams the user's notification list as it changes.
func (s *notificationService) Watch(ctx context.Context, userID string) (<-chan []*models.Notification, func(), error) {
	return s.notificationRepo.Watch(ctx, userID)
}
