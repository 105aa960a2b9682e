package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// Custom errors for the ChatService
var (
	ErrAttachmentsDisabled = errors.New("file attachments are not configured")
	ErrEmptyMessage        = errors.New("message text is empty")
)

// unknownSenderName labels transcript lines whose sender profile no longer
// resolves.
const unknownSenderName = "Unknown User"

// chatService implements the ChatService interface.
type chatService struct {
	messageRepo db.MessageRepository
	sessionRepo db.SessionRepository
	userRepo    db.UserRepository
	blobRepo    db.BlobRepository
}

// NewChatService creates a new ChatService instance. blobRepo may be nil, in
// which case file messages are rejected with ErrAttachmentsDisabled.
func NewChatService(mr db.MessageRepository, sr db.SessionRepository, ur db.UserRepository, br db.BlobRepository) ChatService {
	return &chatService{
		messageRepo: mr,
		sessionRepo: sr,
		userRepo:    ur,
		blobRepo:    br,
	}
}

// SendMessage appends a text message to the session chat.
func (s *chatService) SendMessage(ctx context.Context, sessionID, senderID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.participantSession(ctx, sessionID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID: senderID,
		Text:     text,
	}
	id, err := s.messageRepo.Add(ctx, sessionID, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send message in session '%s': %w", sessionID, err)
	}
	msg.ID = id
	return msg, nil
}

// SendFileMessage uploads the attachment bytes and appends a file message
// pointing at the stored object.
func (s *chatService) SendFileMessage(ctx context.Context, sessionID, senderID, fileName, contentType string, data io.Reader) (*models.Message, error) {
	if s.blobRepo == nil {
		return nil, ErrAttachmentsDisabled
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if _, err := s.participantSession(ctx, sessionID, senderID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("session_files/%s/%s_%s", sessionID, uuid.NewString(), fileName)
	fileURL, err := s.blobRepo.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment '%s' for session '%s': %w", fileName, sessionID, err)
	}

	msg := &models.Message{
		SenderID: senderID,
		FileURL:  fileURL,
		FileName: fileName,
		FileType: contentType,
	}
	id, err := s.messageRepo.Add(ctx, sessionID, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send file message in session '%s': %w", sessionID, err)
	}
	msg.ID = id
	return msg, nil
}

// ListMessages returns the session chat in timestamp order.
func (s *chatService) ListMessages(ctx context.Context, sessionID, userID string) ([]*models.Message, error) {
	if _, err := s.participantSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for session '%s': %w", sessionID, err)
	}
	return messages, nil
}

// Watch streams the session chat as it changes.
func (s *chatService) Watch(ctx context.Context, sessionID, userID string) (<-chan []*models.Message, func(), error) {
	if _, err := s.participantSession(ctx, sessionID, userID); err != nil {
		return nil, nil, err
	}
	return s.messageRepo.Watch(ctx, sessionID)
}

// Transcript renders the session's chat as one line per message, with file
// messages rendered as "[Sent a file: name]". Sender names are resolved once
// per sender; senders whose profile no longer exists render as Unknown User.
func (s *chatService) Transcript(ctx context.Context, sessionID string) (string, error) {
	messages, err := s.messageRepo.List(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages for transcript of session '%s': %w", sessionID, err)
	}

	names := make(map[string]string)
	var b strings.Builder
	for _, msg := range messages {
		name, ok := names[msg.SenderID]
		if !ok {
			name = unknownSenderName
			if user, uerr := s.userRepo.GetByID(ctx, msg.SenderID); uerr == nil {
				name = user.Name
			}
			names[msg.SenderID] = name
		}

		line := msg.Text
		if msg.FileName != "" {
			line = fmt.Sprintf("[Sent a file: %s]", msg.FileName)
		}
		fmt.Fprintf(&b, "%s: %s\n", name, line)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// participantSession loads a session and verifies the user is one of its two
// participants.
func (s *chatService) participantSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session '%s': %w", sessionID, err)
	}
	if session.MentorID != userID && session.LearnerID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}
