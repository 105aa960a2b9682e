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

const messagesSubcollection = "messages"

// firestoreMessageRepository implements the MessageRepository interface using
// the `messages` subcollection of each session document.
type firestoreMessageRepository struct {
	client *firestore.Client
}

// NewFirestoreMessageRepository creates a new instance of firestoreMessageRepository.
func NewFirestoreMessageRepository(client *firestore.Client) MessageRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for MessageRepository.")
	}
	return &firestoreMessageRepository{client: client}
}

func (r *firestoreMessageRepository) messages(sessionID string) *firestore.CollectionRef {
	return r.client.Collection(sessionsCollection).Doc(sessionID).Collection(messagesSubcollection)
}

// Add appends a chat message to the session's message sequence.
func (r *firestoreMessageRepository) Add(ctx context.Context, sessionID string, msg *models.Message) (string, error) {
	if sessionID == "" {
		return "", errors.New("sessionID cannot be empty for Add operation")
	}
	docRef := r.messages(sessionID).NewDoc()
	msg.ID = docRef.ID
	if _, err := docRef.Create(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to add message to session '%s': %w", sessionID, err)
	}
	return docRef.ID, nil
}

// List retrieves the session's messages in timestamp order.
func (r *firestoreMessageRepository) List(ctx context.Context, sessionID string) ([]*models.Message, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty for List operation")
	}
	iter := r.messages(sessionID).OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var messages []*models.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate messages for session '%s': %w", sessionID, err)
		}

		var msg models.Message
		if err := doc.DataTo(&msg); err != nil {
			log.Printf("Error decoding message data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		msg.ID = doc.Ref.ID
		messages = append(messages, &msg)
	}
	return messages, nil
}

// Watch streams full, ordered result sets of the session's messages on every
// change until the returned cancel func is called.
func (r *firestoreMessageRepository) Watch(ctx context.Context, sessionID string) (<-chan []*models.Message, func(), error) {
	if sessionID == "" {
		return nil, nil, errors.New("sessionID cannot be empty for Watch operation")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	out := make(chan []*models.Message)

	go func() {
		defer close(out)
		snapIter := r.messages(sessionID).OrderBy("timestamp", firestore.Asc).Snapshots(watchCtx)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Message watch for session '%s' ended: %v", sessionID, err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("Message watch for session '%s' failed to read snapshot: %v", sessionID, err)
				return
			}
			messages := make([]*models.Message, 0, len(docs))
			for _, doc := range docs {
				var msg models.Message
				if err := doc.DataTo(&msg); err != nil {
					continue
				}
				msg.ID = doc.Ref.ID
				messages = append(messages, &msg)
			}
			select {
			case out <- messages:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
