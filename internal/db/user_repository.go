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

const usersCollection = "users"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// GetByID retrieves a user document by its ID (the Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// GetMentorByID retrieves a user document and decodes it as a mentor profile.
// A user that exists but does not hold the mentor role reports ErrNotFound.
func (r *firestoreUserRepository) GetMentorByID(ctx context.Context, mentorID string) (*models.Mentor, error) {
	if mentorID == "" {
		return nil, errors.New("mentorID cannot be empty for GetMentorByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(mentorID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("mentor with ID '%s' not found: %w", mentorID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get mentor with ID '%s': %w", mentorID, err)
	}

	var mentor models.Mentor
	if err := docSnap.DataTo(&mentor); err != nil {
		return nil, fmt.Errorf("failed to decode mentor data for ID '%s': %w", mentorID, err)
	}
	mentor.ID = docSnap.Ref.ID
	if mentor.Role != models.RoleMentor {
		return nil, fmt.Errorf("user '%s' is not a mentor: %w", mentorID, ErrNotFound)
	}
	if mentor.Availability == nil {
		mentor.Availability = models.Availability{}
	}

	return &mentor, nil
}

// CreateProfile writes a profile document with merge semantics so that a
// repeated sign-in does not overwrite an existing profile.
func (r *firestoreUserRepository) CreateProfile(ctx context.Context, userID string, profile interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for CreateProfile operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Set(ctx, profile, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to create profile for user '%s': %w", userID, err)
	}
	return nil
}

// UpdateFields applies a partial update to the user document.
func (r *firestoreUserRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for UpdateFields operation")
	}
	updates := make([]firestore.Update, 0, len(fields))
	for name, value := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{name}, Value: value})
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found for update: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return nil
}

// ListMentors retrieves all users with the mentor role, optionally filtered
// to those already approved for booking.
func (r *firestoreUserRepository) ListMentors(ctx context.Context, approvedOnly bool) ([]*models.Mentor, error) {
	query := r.client.Collection(usersCollection).Where("role", "==", string(models.RoleMentor))
	if approvedOnly {
		query = query.Where("isApproved", "==", true)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var mentors []*models.Mentor
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate mentors: %w", err)
		}

		var mentor models.Mentor
		if err := doc.DataTo(&mentor); err != nil {
			log.Printf("Error decoding mentor data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		mentor.ID = doc.Ref.ID
		if mentor.Availability == nil {
			mentor.Availability = models.Availability{}
		}
		mentors = append(mentors, &mentor)
	}

	return mentors, nil
}

// SetApproval flips the mentor approval flag.
func (r *firestoreUserRepository) SetApproval(ctx context.Context, mentorID string, approved bool) error {
	if mentorID == "" {
		return errors.New("mentorID cannot be empty for SetApproval operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(mentorID).Update(ctx, []firestore.Update{
		{Path: "isApproved", Value: approved},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("mentor with ID '%s' not found: %w", mentorID, ErrNotFound)
		}
		return fmt.Errorf("failed to set approval for mentor '%s': %w", mentorID, err)
	}
	return nil
}
