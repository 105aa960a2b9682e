package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mentorly-backend-go/internal/models"
)

const notificationsCollection = "notifications"

// firestoreNotificationRepository implements the NotificationRepository interface using Firestore.
type firestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a new instance of firestoreNotificationRepository.
func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NotificationRepository.")
	}
	return &firestoreNotificationRepository{client: client}
}

// Create adds a new notification document with an auto-generated ID.
func (r *firestoreNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	docRef := r.client.Collection(notificationsCollection).NewDoc()
	n.ID = docRef.ID
	if _, err := docRef.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) userQuery(userID string) firestore.Query {
	return r.client.Collection(notificationsCollection).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc)
}

func decodeNotifications(docs []*firestore.DocumentSnapshot) []*models.Notification {
	notifications := make([]*models.Notification, 0, len(docs))
	for _, doc := range docs {
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, &n)
	}
	return notifications
}

// ListByUser retrieves a recipient's notifications, newest first.
func (r *firestoreNotificationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUser operation")
	}
	iter := r.userQuery(userID).Documents(ctx)
	defer iter.Stop()

	var notifications []*models.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notifications for user '%s': %w", userID, err)
		}

		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, &n)
	}
	return notifications, nil
}

// MarkRead flips the read flag on the given notifications in one batched write.
func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	bw := r.client.BulkWriter(ctx)
	for _, id := range ids {
		ref := r.client.Collection(notificationsCollection).Doc(id)
		if _, err := bw.Update(ref, []firestore.Update{{Path: "isRead", Value: true}}); err != nil {
			return fmt.Errorf("failed to enqueue read flag for notification '%s': %w", id, err)
		}
	}
	bw.End()
	return nil
}

// Delete removes a notification document.
func (r *firestoreNotificationRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(notificationsCollection).Doc(id).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("notification with ID '%s' not found for deletion: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete notification with ID '%s': %w", id, err)
	}
	return nil
}

// Watch streams full result sets of the user's notifications on every change
// until the returned cancel func is called.
func (r *firestoreNotificationRepository) Watch(ctx context.Context, userID string) (<-chan []*models.Notification, func(), error) {
	if userID == "" {
		return nil, nil, errors.New("userID cannot be empty for Watch operation")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	out := make(chan []*models.Notification)

	go func() {
		defer close(out)
		snapIter := r.userQuery(userID).Snapshots(watchCtx)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Notification watch for user '%s' ended: %v", userID, err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("Notification watch for user '%s' failed to read snapshot: %v", userID, err)
				return
			}
			select {
			case out <- decodeNotifications(docs):
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
