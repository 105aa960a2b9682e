// Package signaling drives the two-party call handshake over the
// per-participant mailboxes stored with the session. The package owns the
// negotiation protocol only; producing and consuming media is behind the
// PeerTransport interface supplied by the caller.
package signaling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mentorly-backend-go/internal/models"
)

// Store is the mailbox contract the engine signals through. Satisfied by
// db.SignalRepository.
type Store interface {
	PublishOffer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error
	PublishAnswer(ctx context.Context, sessionID, userID string, desc models.SessionDescription) error
	AddCandidate(ctx context.Context, sessionID, userID string, cand models.IceCandidate) error
	WatchMailbox(ctx context.Context, sessionID, userID string) (<-chan models.SignalMailbox, func(), error)
	WatchCandidates(ctx context.Context, sessionID, userID string) (<-chan models.IceCandidate, func(), error)
	DeleteMailbox(ctx context.Context, sessionID, userID string) error
}

// PeerTransport is the media side of a call: the actual peer connection that
// produces descriptions and connectivity candidates. Supplied by the consumer
// of the engine.
type PeerTransport interface {
	CreateOffer(ctx context.Context) (models.SessionDescription, error)
	CreateAnswer(ctx context.Context, offer models.SessionDescription) (models.SessionDescription, error)
	SetRemoteDescription(desc models.SessionDescription) error
	AddRemoteCandidate(cand models.IceCandidate) error
	// LocalCandidates yields the transport's own connectivity candidates as
	// they are discovered. The channel closes when discovery ends.
	LocalCandidates() <-chan models.IceCandidate
	Close() error
}

// Engine negotiates one participant's side of a call.
//
// The participant with the lexicographically lower ID always takes the caller
// role, so both sides agree on who offers without coordinating. Remote
// candidates arriving before the remote description are buffered and flushed
// once it lands, and teardown removes this participant's own mailbox subtree
// on every exit path.
type Engine struct {
	store     Store
	transport PeerTransport
	sessionID string
	selfID    string
	peerID    string
	logger    *zap.Logger

	mu          sync.Mutex
	remoteSet   bool
	pendingCand []models.IceCandidate
}

// NewEngine creates an Engine for one participant of the session's call.
func NewEngine(store Store, transport PeerTransport, sessionID, selfID, peerID string, logger *zap.Logger) (*Engine, error) {
	if store == nil || transport == nil {
		return nil, errors.New("signaling: store and transport are required")
	}
	if sessionID == "" || selfID == "" || peerID == "" || selfID == peerID {
		return nil, errors.New("signaling: sessionID and two distinct participant IDs are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		transport: transport,
		sessionID: sessionID,
		selfID:    selfID,
		peerID:    peerID,
		logger:    logger,
	}, nil
}

// IsCaller reports whether this participant takes the caller role.
func (e *Engine) IsCaller() bool {
	return e.selfID < e.peerID
}

// Run performs the handshake and relays candidates until the context is
// cancelled or the negotiation fails. The transport is closed and this
// participant's mailbox deleted before Run returns, regardless of how it
// exits.
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer e.teardown()

	mailboxes, stopMailbox, err := e.store.WatchMailbox(runCtx, e.sessionID, e.peerID)
	if err != nil {
		return fmt.Errorf("failed to watch peer mailbox: %w", err)
	}
	defer stopMailbox()

	candidates, stopCandidates, err := e.store.WatchCandidates(runCtx, e.sessionID, e.peerID)
	if err != nil {
		return fmt.Errorf("failed to watch peer candidates: %w", err)
	}
	defer stopCandidates()

	if e.IsCaller() {
		offer, err := e.transport.CreateOffer(runCtx)
		if err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}
		if err := e.store.PublishOffer(runCtx, e.sessionID, e.selfID, offer); err != nil {
			return fmt.Errorf("failed to publish offer: %w", err)
		}
		e.logger.Debug("Published offer", zap.String("session", e.sessionID))
	}

	errCh := make(chan error, 1)
	go e.relayLocalCandidates(runCtx, errCh)

	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case err := <-errCh:
			return err
		case mailbox, ok := <-mailboxes:
			if !ok {
				return errors.New("peer mailbox watch closed")
			}
			if err := e.onPeerMailbox(runCtx, mailbox); err != nil {
				return err
			}
		case cand, ok := <-candidates:
			if !ok {
				return errors.New("peer candidate watch closed")
			}
			if err := e.onPeerCandidate(cand); err != nil {
				return err
			}
		}
	}
}

// onPeerMailbox reacts to a change in the peer's mailbox: the callee answers
// the peer's offer, the caller applies the peer's answer. The remote
// description is applied at most once; later mailbox snapshots repeating it
// are ignored.
func (e *Engine) onPeerMailbox(ctx context.Context, mailbox models.SignalMailbox) error {
	if e.IsCaller() {
		if mailbox.Answer == nil || e.remoteApplied() {
			return nil
		}
		if err := e.applyRemote(*mailbox.Answer); err != nil {
			return fmt.Errorf("failed to apply answer: %w", err)
		}
		e.logger.Debug("Applied answer", zap.String("session", e.sessionID))
		return nil
	}

	if mailbox.Offer == nil || e.remoteApplied() {
		return nil
	}
	if err := e.applyRemote(*mailbox.Offer); err != nil {
		return fmt.Errorf("failed to apply offer: %w", err)
	}
	answer, err := e.transport.CreateAnswer(ctx, *mailbox.Offer)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	if err := e.store.PublishAnswer(ctx, e.sessionID, e.selfID, answer); err != nil {
		return fmt.Errorf("failed to publish answer: %w", err)
	}
	e.logger.Debug("Published answer", zap.String("session", e.sessionID))
	return nil
}

// onPeerCandidate hands a remote candidate to the transport, or buffers it
// when the remote description has not been applied yet.
func (e *Engine) onPeerCandidate(cand models.IceCandidate) error {
	e.mu.Lock()
	if !e.remoteSet {
		e.pendingCand = append(e.pendingCand, cand)
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.transport.AddRemoteCandidate(cand); err != nil {
		return fmt.Errorf("failed to add remote candidate: %w", err)
	}
	return nil
}

// applyRemote sets the remote description and flushes any candidates that
// arrived ahead of it, in arrival order.
func (e *Engine) applyRemote(desc models.SessionDescription) error {
	if err := e.transport.SetRemoteDescription(desc); err != nil {
		return err
	}

	e.mu.Lock()
	e.remoteSet = true
	pending := e.pendingCand
	e.pendingCand = nil
	e.mu.Unlock()

	for _, cand := range pending {
		if err := e.transport.AddRemoteCandidate(cand); err != nil {
			return fmt.Errorf("failed to flush buffered candidate: %w", err)
		}
	}
	if len(pending) > 0 {
		e.logger.Debug("Flushed buffered candidates", zap.Int("count", len(pending)))
	}
	return nil
}

// relayLocalCandidates publishes the transport's own candidates to this
// participant's mailbox until discovery ends or the context is cancelled.
func (e *Engine) relayLocalCandidates(ctx context.Context, errCh chan<- error) {
	locals := e.transport.LocalCandidates()
	for {
		select {
		case <-ctx.Done():
			return
		case cand, ok := <-locals:
			if !ok {
				return
			}
			if err := e.store.AddCandidate(ctx, e.sessionID, e.selfID, cand); err != nil {
				select {
				case errCh <- fmt.Errorf("failed to publish local candidate: %w", err):
				default:
				}
				return
			}
		}
	}
}

func (e *Engine) remoteApplied() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remoteSet
}

// teardown closes the transport and deletes this participant's mailbox so no
// stale offer or candidates greet the next call on the session. Runs with a
// fresh context: teardown must still happen when Run exits by cancellation.
func (e *Engine) teardown() {
	if err := e.transport.Close(); err != nil {
		e.logger.Warn("Failed to close transport", zap.Error(err))
	}
	if err := e.store.DeleteMailbox(context.Background(), e.sessionID, e.selfID); err != nil {
		e.logger.Warn("Failed to delete signaling mailbox",
			zap.String("session", e.sessionID), zap.Error(err))
	}
}
