package signaling

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mentorly-backend-go/internal/models"
)

// memStore is an in-memory Store with the same watch semantics as the
// Firestore-backed repository: mailbox watches replay the current record on
// subscribe, candidate watches replay existing candidates and then deliver
// new ones.
type memStore struct {
	mu             sync.Mutex
	mailboxes      map[string]models.SignalMailbox
	candidates     map[string][]models.IceCandidate
	mailboxWatch   map[string][]chan models.SignalMailbox
	candidateWatch map[string][]chan models.IceCandidate
}

func newMemStore() *memStore {
	return &memStore{
		mailboxes:      make(map[string]models.SignalMailbox),
		candidates:     make(map[string][]models.IceCandidate),
		mailboxWatch:   make(map[string][]chan models.SignalMailbox),
		candidateWatch: make(map[string][]chan models.IceCandidate),
	}
}

func key(sessionID, userID string) string { return sessionID + "/" + userID }

func (s *memStore) PublishOffer(_ context.Context, sessionID, userID string, desc models.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mailboxes[key(sessionID, userID)] = models.SignalMailbox{Offer: &desc}
	s.notifyMailbox(sessionID, userID)
	return nil
}

func (s *memStore) PublishAnswer(_ context.Context, sessionID, userID string, desc models.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mailbox := s.mailboxes[key(sessionID, userID)]
	mailbox.Answer = &desc
	s.mailboxes[key(sessionID, userID)] = mailbox
	s.notifyMailbox(sessionID, userID)
	return nil
}

func (s *memStore) AddCandidate(_ context.Context, sessionID, userID string, cand models.IceCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(sessionID, userID)
	s.candidates[k] = append(s.candidates[k], cand)
	for _, ch := range s.candidateWatch[k] {
		ch <- cand
	}
	return nil
}

// notifyMailbox must be called with the lock held.
func (s *memStore) notifyMailbox(sessionID, userID string) {
	k := key(sessionID, userID)
	for _, ch := range s.mailboxWatch[k] {
		ch <- s.mailboxes[k]
	}
}

func (s *memStore) WatchMailbox(_ context.Context, sessionID, userID string) (<-chan models.SignalMailbox, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(sessionID, userID)
	ch := make(chan models.SignalMailbox, 16)
	s.mailboxWatch[k] = append(s.mailboxWatch[k], ch)
	if mailbox, ok := s.mailboxes[k]; ok {
		ch <- mailbox
	}
	return ch, func() {}, nil
}

func (s *memStore) WatchCandidates(_ context.Context, sessionID, userID string) (<-chan models.IceCandidate, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(sessionID, userID)
	ch := make(chan models.IceCandidate, 64)
	for _, cand := range s.candidates[k] {
		ch <- cand
	}
	s.candidateWatch[k] = append(s.candidateWatch[k], ch)
	return ch, func() {}, nil
}

func (s *memStore) DeleteMailbox(_ context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mailboxes, key(sessionID, userID))
	delete(s.candidates, key(sessionID, userID))
	return nil
}

func (s *memStore) hasMailbox(sessionID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mailboxes[key(sessionID, userID)]
	return ok
}

// fakeTransport records what the engine does to it and hands out canned
// descriptions.
type fakeTransport struct {
	mu         sync.Mutex
	name       string
	remoteDesc []models.SessionDescription
	remoteCand []models.IceCandidate
	locals     chan models.IceCandidate
	closed     bool
}

func newFakeTransport(name string, localCands ...models.IceCandidate) *fakeTransport {
	locals := make(chan models.IceCandidate, len(localCands)+1)
	for _, c := range localCands {
		locals <- c
	}
	close(locals)
	return &fakeTransport{name: name, locals: locals}
}

func (t *fakeTransport) CreateOffer(context.Context) (models.SessionDescription, error) {
	return models.SessionDescription{Type: "offer", SDP: "offer-from-" + t.name}, nil
}

func (t *fakeTransport) CreateAnswer(_ context.Context, offer models.SessionDescription) (models.SessionDescription, error) {
	return models.SessionDescription{Type: "answer", SDP: "answer-to-" + offer.SDP}, nil
}

func (t *fakeTransport) SetRemoteDescription(desc models.SessionDescription) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remoteDesc = append(t.remoteDesc, desc)
	return nil
}

func (t *fakeTransport) AddRemoteCandidate(cand models.IceCandidate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remoteCand = append(t.remoteCand, cand)
	return nil
}

func (t *fakeTransport) LocalCandidates() <-chan models.IceCandidate { return t.locals }

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) remoteDescs() []models.SessionDescription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.SessionDescription(nil), t.remoteDesc...)
}

func (t *fakeTransport) remoteCands() []models.IceCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.IceCandidate(nil), t.remoteCand...)
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func runEngine(t *testing.T, e *Engine) (cancel func(), done chan struct{}) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	return cancelCtx, done
}

func TestCallerRoleIsDeterministic(t *testing.T) {
	store := newMemStore()
	a, err := NewEngine(store, newFakeTransport("a"), "s1", "alice", "bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(store, newFakeTransport("b"), "s1", "bob", "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsCaller() {
		t.Error("lower participant ID should take the caller role")
	}
	if b.IsCaller() {
		t.Error("higher participant ID should take the callee role")
	}
}

func TestHandshakeCompletes(t *testing.T) {
	for _, order := range []string{"caller first", "callee first", "simultaneous"} {
		t.Run(order, func(t *testing.T) {
			store := newMemStore()
			callerTr := newFakeTransport("caller", models.IceCandidate{Candidate: "caller-c1"})
			calleeTr := newFakeTransport("callee", models.IceCandidate{Candidate: "callee-c1"})

			caller, err := NewEngine(store, callerTr, "s1", "alice", "bob", nil)
			if err != nil {
				t.Fatal(err)
			}
			callee, err := NewEngine(store, calleeTr, "s1", "bob", "alice", nil)
			if err != nil {
				t.Fatal(err)
			}

			var cancels []func()
			var dones []chan struct{}
			start := func(e *Engine) {
				cancel, done := runEngine(t, e)
				cancels = append(cancels, cancel)
				dones = append(dones, done)
			}
			switch order {
			case "caller first":
				start(caller)
				waitFor(t, "offer published", func() bool { return store.hasMailbox("s1", "alice") })
				start(callee)
			case "callee first":
				start(callee)
				start(caller)
			default:
				start(caller)
				start(callee)
			}

			waitFor(t, "callee applied offer", func() bool {
				descs := calleeTr.remoteDescs()
				return len(descs) == 1 && descs[0].Type == "offer"
			})
			waitFor(t, "caller applied answer", func() bool {
				descs := callerTr.remoteDescs()
				return len(descs) == 1 && descs[0].SDP == "answer-to-offer-from-caller"
			})
			waitFor(t, "candidates exchanged", func() bool {
				return len(callerTr.remoteCands()) == 1 && len(calleeTr.remoteCands()) == 1
			})
			if got := callerTr.remoteCands()[0].Candidate; got != "callee-c1" {
				t.Errorf("caller received candidate %q, want callee-c1", got)
			}

			for _, cancel := range cancels {
				cancel()
			}
			for _, done := range dones {
				<-done
			}
			if !callerTr.isClosed() || !calleeTr.isClosed() {
				t.Error("transports should be closed after shutdown")
			}
		})
	}
}

func TestAnswerAppliedAtMostOnce(t *testing.T) {
	store := newMemStore()
	tr := newFakeTransport("caller")
	e, err := NewEngine(store, tr, "s1", "alice", "bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	cancel, done := runEngine(t, e)
	defer func() { cancel(); <-done }()

	answer := models.SessionDescription{Type: "answer", SDP: "a1"}
	if err := store.PublishAnswer(context.Background(), "s1", "bob", answer); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "answer applied", func() bool { return len(tr.remoteDescs()) == 1 })

	// A second write to the peer mailbox redelivers the same answer.
	if err := store.PublishAnswer(context.Background(), "s1", "bob", answer); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(tr.remoteDescs()); got != 1 {
		t.Errorf("remote description applied %d times, want 1", got)
	}
}

func TestEarlyCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	store := newMemStore()
	tr := newFakeTransport("caller")
	e, err := NewEngine(store, tr, "s1", "alice", "bob", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Peer candidates exist before the engine ever starts, so the candidate
	// watch replays them ahead of any answer.
	for i := 0; i < 3; i++ {
		cand := models.IceCandidate{Candidate: fmt.Sprintf("early-%d", i)}
		if err := store.AddCandidate(context.Background(), "s1", "bob", cand); err != nil {
			t.Fatal(err)
		}
	}

	cancel, done := runEngine(t, e)
	defer func() { cancel(); <-done }()

	time.Sleep(50 * time.Millisecond)
	if got := len(tr.remoteCands()); got != 0 {
		t.Fatalf("%d candidates applied before remote description, want 0", got)
	}

	if err := store.PublishAnswer(context.Background(), "s1", "bob", models.SessionDescription{Type: "answer", SDP: "a1"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "buffered candidates flushed", func() bool { return len(tr.remoteCands()) == 3 })

	cands := tr.remoteCands()
	for i, cand := range cands {
		if want := fmt.Sprintf("early-%d", i); cand.Candidate != want {
			t.Errorf("flushed candidate %d = %q, want %q (arrival order)", i, cand.Candidate, want)
		}
	}
}

func TestTeardownDeletesOwnMailbox(t *testing.T) {
	store := newMemStore()
	tr := newFakeTransport("caller", models.IceCandidate{Candidate: "c1"})
	e, err := NewEngine(store, tr, "s1", "alice", "bob", nil)
	if err != nil {
		t.Fatal(err)
	}

	cancel, done := runEngine(t, e)
	waitFor(t, "offer published", func() bool { return store.hasMailbox("s1", "alice") })

	cancel()
	<-done

	if store.hasMailbox("s1", "alice") {
		t.Error("own mailbox should be deleted on teardown")
	}
	if !tr.isClosed() {
		t.Error("transport should be closed on teardown")
	}
}
