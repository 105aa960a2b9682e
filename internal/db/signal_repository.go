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

const (
	signalSubcollection     = "webrtc"
	candidatesSubcollection = "candidates"
)

// firestoreSignalRepository implements the SignalRepository interface using
// one mailbox document per (session, participant) under
// sessions/{sessionID}/webrtc/{userID}, with connectivity candidates in an
// append-only subcollection.
type firestoreSignalRepository struct {
	client *firestore.Client
}

// NewFirestoreSignalRepository creates a new instance of firestoreSignalRepository.
func NewFirestoreSignalRepository(client *firestore.Client) SignalRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SignalRepository.")
	}
	return &firestoreSignalRepository{client: client}
}

func (r *firestoreSignalRepository) mailbox(sessionID, userID string) *firestore.DocumentRef {
	return r.client.Collection(sessionsCollection).Doc(sessionID).Collection(signalSubcollection).Doc(userID)
}

func (r *firestoreSignalRepository) candidates(sessionID, userID string) *firestore.CollectionRef {
	return r.mailbox(sessionID, userID).Collection(candidatesSubcollection)
}

// PublishOffer writes the caller's offer under its own mailbox record,
// creating the record if needed.
func (r *firestoreSignalRepository) PublishOffer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error {
	_, err := r.mailbox(sessionID, userID).Set(ctx, map[string]interface{}{"offer": desc})
	if err != nil {
		return fmt.Errorf("failed to publish offer for session '%s' user '%s': %w", sessionID, userID, err)
	}
	return nil
}

// PublishAnswer merges the callee's answer into its own mailbox record.
func (r *firestoreSignalRepository) PublishAnswer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error {
	_, err := r.mailbox(sessionID, userID).Set(ctx, map[string]interface{}{"answer": desc}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to publish answer for session '%s' user '%s': %w", sessionID, userID, err)
	}
	return nil
}

// AddCandidate appends one connectivity candidate to the participant's
// candidate sequence.
func (r *firestoreSignalRepository) AddCandidate(ctx context.Context, sessionID, userID string, cand models.IceCandidate) error {
	_, _, err := r.candidates(sessionID, userID).Add(ctx, cand)
	if err != nil {
		return fmt.Errorf("failed to add candidate for session '%s' user '%s': %w", sessionID, userID, err)
	}
	return nil
}

// GetMailbox retrieves a participant's mailbox record.
func (r *firestoreSignalRepository) GetMailbox(ctx context.Context, sessionID, userID string) (*models.SignalMailbox, error) {
	docSnap, err := r.mailbox(sessionID, userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("mailbox for session '%s' user '%s' not found: %w", sessionID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get mailbox for session '%s' user '%s': %w", sessionID, userID, err)
	}

	var mailbox models.SignalMailbox
	if err := docSnap.DataTo(&mailbox); err != nil {
		return nil, fmt.Errorf("failed to decode mailbox for session '%s' user '%s': %w", sessionID, userID, err)
	}
	return &mailbox, nil
}

// WatchMailbox delivers the latest snapshot of the mailbox record on every
// change. Offer and answer are last-write-wins fields, not an operation log;
// snapshots of a not-yet-created record are skipped.
func (r *firestoreSignalRepository) WatchMailbox(ctx context.Context, sessionID, userID string) (<-chan models.SignalMailbox, func(), error) {
	if sessionID == "" || userID == "" {
		return nil, nil, errors.New("sessionID and userID are required for WatchMailbox")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	out := make(chan models.SignalMailbox)

	go func() {
		defer close(out)
		snapIter := r.mailbox(sessionID, userID).Snapshots(watchCtx)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Mailbox watch (session '%s', user '%s') ended: %v", sessionID, userID, err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}
			var mailbox models.SignalMailbox
			if err := snap.DataTo(&mailbox); err != nil {
				log.Printf("Mailbox watch (session '%s', user '%s') failed to decode: %v", sessionID, userID, err)
				continue
			}
			select {
			case out <- mailbox:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

// WatchCandidates delivers newly appended candidates only. Previously seen
// candidates are never redelivered; modifications and removals are immaterial
// to the handshake and are ignored.
func (r *firestoreSignalRepository) WatchCandidates(ctx context.Context, sessionID, userID string) (<-chan models.IceCandidate, func(), error) {
	if sessionID == "" || userID == "" {
		return nil, nil, errors.New("sessionID and userID are required for WatchCandidates")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	out := make(chan models.IceCandidate)

	go func() {
		defer close(out)
		snapIter := r.candidates(sessionID, userID).Snapshots(watchCtx)
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Candidate watch (session '%s', user '%s') ended: %v", sessionID, userID, err)
				}
				return
			}
			for _, change := range snap.Changes {
				if change.Kind != firestore.DocumentAdded {
					continue
				}
				var cand models.IceCandidate
				if err := change.Doc.DataTo(&cand); err != nil {
					log.Printf("Candidate watch (session '%s', user '%s') failed to decode: %v", sessionID, userID, err)
					continue
				}
				select {
				case out <- cand:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// DeleteMailbox removes the participant's candidate subcollection and mailbox
// record once the call ends, so no session-scoped signaling state leaks.
func (r *firestoreSignalRepository) DeleteMailbox(ctx context.Context, sessionID, userID string) error {
	iter := r.candidates(sessionID, userID).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate candidates for deletion (session '%s', user '%s'): %w", sessionID, userID, err)
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return fmt.Errorf("failed to enqueue candidate deletion (session '%s', user '%s'): %w", sessionID, userID, err)
		}
	}
	if _, err := bw.Delete(r.mailbox(sessionID, userID)); err != nil {
		return fmt.Errorf("failed to enqueue mailbox deletion (session '%s', user '%s'): %w", sessionID, userID, err)
	}
	bw.End()
	return nil
}
