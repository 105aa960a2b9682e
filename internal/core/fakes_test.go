package core

import (
	"context"
	"fmt"
	"io"

	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/models"
)

// fakeUserRepo is an in-memory db.UserRepository.
type fakeUserRepo struct {
	users   map[string]*models.User
	mentors map[string]*models.Mentor
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[string]*models.User),
		mentors: make(map[string]*models.Mentor),
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	if u, ok := r.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	if m, ok := r.mentors[userID]; ok {
		cp := m.User
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) GetMentorByID(_ context.Context, mentorID string) (*models.Mentor, error) {
	m, ok := r.mentors[mentorID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeUserRepo) CreateProfile(_ context.Context, userID string, profile interface{}) error {
	switch p := profile.(type) {
	case *models.Mentor:
		cp := *p
		cp.ID = userID
		cp.User.ID = userID
		r.mentors[userID] = &cp
	case *models.User:
		cp := *p
		cp.ID = userID
		r.users[userID] = &cp
	default:
		return fmt.Errorf("unsupported profile type %T", profile)
	}
	return nil
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, userID string, fields map[string]interface{}) error {
	if m, ok := r.mentors[userID]; ok {
		if v, ok := fields["availability"]; ok {
			m.Availability = v.(models.Availability)
		}
		if v, ok := fields["name"]; ok {
			m.Name = v.(string)
		}
		if v, ok := fields["bio"]; ok {
			m.Bio = v.(string)
		}
		return nil
	}
	if u, ok := r.users[userID]; ok {
		if v, ok := fields["name"]; ok {
			u.Name = v.(string)
		}
		if v, ok := fields["bio"]; ok {
			u.Bio = v.(string)
		}
		return nil
	}
	return db.ErrNotFound
}

func (r *fakeUserRepo) ListMentors(_ context.Context, approvedOnly bool) ([]*models.Mentor, error) {
	var out []*models.Mentor
	for _, m := range r.mentors {
		if approvedOnly && !m.IsApproved {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) SetApproval(_ context.Context, mentorID string, approved bool) error {
	m, ok := r.mentors[mentorID]
	if !ok {
		return db.ErrNotFound
	}
	m.IsApproved = approved
	return nil
}

// fakeSessionRepo is an in-memory db.SessionRepository. Its composite
// operations follow the same contract as the Firestore implementation,
// mutating mentor state through the shared fakeUserRepo.
type fakeSessionRepo struct {
	sessions map[string]*models.Session
	users    *fakeUserRepo
	nextID   int
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*models.Session),
		users:    users,
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.Session) (string, error) {
	r.nextID++
	id := fmt.Sprintf("session-%d", r.nextID)
	cp := *session
	cp.ID = id
	r.sessions[id] = &cp
	return id, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, sessionID string) (*models.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ListByLearner(_ context.Context, learnerID string) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.LearnerID == learnerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListByMentor(_ context.Context, mentorID string) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.MentorID == mentorID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListUpcoming(_ context.Context) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.Status == models.SessionUpcoming {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Resolve(_ context.Context, sessionID, mentorID, date, slot string, accept bool) (*models.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, db.ErrNotFound
	}
	if s.MentorID != mentorID {
		return nil, db.ErrWrongMentor
	}
	if s.Status != models.SessionPending {
		return nil, db.ErrSessionNotPending
	}
	if accept {
		mentor, ok := r.users.mentors[mentorID]
		if !ok {
			return nil, db.ErrNotFound
		}
		if !mentor.Availability.RemoveSlot(date, slot) {
			return nil, db.ErrSlotUnavailable
		}
		s.Status = models.SessionUpcoming
	} else {
		s.Status = models.SessionCancelled
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ApplyFeedback(_ context.Context, sessionID, mentorID string, fb models.Feedback) (*models.Mentor, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, db.ErrNotFound
	}
	mentor, ok := r.users.mentors[mentorID]
	if !ok {
		return nil, db.ErrNotFound
	}
	mentor.ApplyFeedback(fb.Rating)
	s.Feedback = &fb
	cp := *mentor
	return &cp, nil
}

func (r *fakeSessionRepo) RemoveFeedback(_ context.Context, sessionID, mentorID string, ratingToRemove int) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return db.ErrNotFound
	}
	mentor, ok := r.users.mentors[mentorID]
	if !ok {
		return db.ErrNotFound
	}
	mentor.RemoveFeedback(ratingToRemove)
	s.Feedback = nil
	return nil
}

func (r *fakeSessionRepo) CompleteBatch(_ context.Context, sessionIDs []string) error {
	for _, id := range sessionIDs {
		if s, ok := r.sessions[id]; ok {
			s.Status = models.SessionCompleted
		}
	}
	return nil
}

func (r *fakeSessionRepo) SetSummary(_ context.Context, sessionID, summary string) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return db.ErrNotFound
	}
	s.Summary = summary
	return nil
}

// fakeNotificationRepo is an in-memory db.NotificationRepository.
type fakeNotificationRepo struct {
	notifications []*models.Notification
	nextID        int
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.nextID++
	cp := *n
	cp.ID = fmt.Sprintf("notification-%d", r.nextID)
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, ids []string) error {
	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for _, n := range r.notifications {
		if marked[n.ID] {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id string) error {
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (r *fakeNotificationRepo) Watch(context.Context, string) (<-chan []*models.Notification, func(), error) {
	ch := make(chan []*models.Notification)
	close(ch)
	return ch, func() {}, nil
}

func (r *fakeNotificationRepo) messagesFor(userID string) []string {
	var out []string
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

// fakeMessageRepo is an in-memory db.MessageRepository.
type fakeMessageRepo struct {
	messages map[string][]*models.Message
	nextID   int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string][]*models.Message)}
}

func (r *fakeMessageRepo) Add(_ context.Context, sessionID string, msg *models.Message) (string, error) {
	r.nextID++
	id := fmt.Sprintf("message-%d", r.nextID)
	cp := *msg
	cp.ID = id
	r.messages[sessionID] = append(r.messages[sessionID], &cp)
	return id, nil
}

func (r *fakeMessageRepo) List(_ context.Context, sessionID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range r.messages[sessionID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMessageRepo) Watch(context.Context, string) (<-chan []*models.Message, func(), error) {
	ch := make(chan []*models.Message)
	close(ch)
	return ch, func() {}, nil
}

// fakeBlobRepo is an in-memory db.BlobRepository.
type fakeBlobRepo struct {
	keys []string
}

func (r *fakeBlobRepo) Upload(_ context.Context, key, _ string, src io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, src); err != nil {
		return "", err
	}
	r.keys = append(r.keys, key)
	return "https://blobs.test/" + key, nil
}

// fakeAssistant is a canned Assistant.
type fakeAssistant struct {
	summary        string
	summarizeCalls int
	suggestions    []models.MentorSuggestion
	tips           []string
	err            error
}

func (a *fakeAssistant) Summarize(context.Context, string) (string, error) {
	a.summarizeCalls++
	return a.summary, a.err
}

func (a *fakeAssistant) SuggestMentors(context.Context, string, []string, []*models.Mentor) ([]models.MentorSuggestion, error) {
	return a.suggestions, a.err
}

func (a *fakeAssistant) TeachingTips(context.Context, []string) ([]string, error) {
	return a.tips, a.err
}

// fakeMentorCache is an in-memory MentorCache.
type fakeMentorCache struct {
	entries     map[string][]*models.Mentor
	hits        int
	invalidated int
}

func newFakeMentorCache() *fakeMentorCache {
	return &fakeMentorCache{entries: make(map[string][]*models.Mentor)}
}

func (c *fakeMentorCache) Get(_ context.Context, key string) ([]*models.Mentor, bool) {
	mentors, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return mentors, ok
}

func (c *fakeMentorCache) Set(_ context.Context, key string, mentors []*models.Mentor) {
	c.entries[key] = mentors
}

func (c *fakeMentorCache) Invalidate(context.Context) {
	c.invalidated++
	c.entries = make(map[string][]*models.Mentor)
}

// seedMentor registers an approved mentor with the given availability.
func seedMentor(users *fakeUserRepo, id, name string, availability models.Availability) *models.Mentor {
	m := &models.Mentor{
		User: models.User{
			ID:   id,
			Name: name,
			Role: models.RoleMentor,
		},
		Availability: availability,
		Subjects:     []string{"Go"},
		IsApproved:   true,
	}
	users.mentors[id] = m
	return m
}

// seedLearner registers a learner profile.
func seedLearner(users *fakeUserRepo, id, name string) *models.User {
	u := &models.User{ID: id, Name: name, Role: models.RoleLearner}
	users.users[id] = u
	return u
}
