package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

// WizardKind distinguishes the two wizard variants hosted by the API.
type WizardKind string

// Hosted wizard variants.
const (
	WizardEnrollment WizardKind = "enrollment"
	WizardPayment    WizardKind = "payment"
)

// Session is one live wizard run. The machine inside owns all form
// state; the store only tracks liveness.
type Session struct {
	ID        string
	Kind      WizardKind
	Machine   *wizard.Machine
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionStore keeps wizard sessions in memory with a sliding TTL and
// a periodic sweep. Abandoned sessions expire; their unsaved edits are
// lost, which matches the draft-or-nothing persistence model.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	sweep    time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSessionStore constructs a store with the given TTL and sweep
// interval.
func NewSessionStore(ttl, sweep time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		sweep:    sweep,
		logger:   logger,
	}
}

// Create registers a new session driven by the given policy.
func (s *SessionStore) Create(kind WizardKind, policy wizard.StepPolicy) *Session {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Machine:   wizard.NewMachine(policy),
		CreatedAt: now,
		LastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Adopt registers a session around an already-built machine, used when
// resuming a persisted draft.
func (s *SessionStore) Adopt(kind WizardKind, machine *wizard.Machine) *Session {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Machine:   machine,
		CreatedAt: now,
		LastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns a live session of the expected kind, refreshing its TTL.
func (s *SessionStore) Get(id string, kind WizardKind) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Kind != kind {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "wizard session not found")
	}
	if time.Since(session.LastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "wizard session expired")
	}
	session.LastSeen = time.Now().UTC()
	return session, nil
}

// Delete removes a session, typically after a successful submit.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start launches the background sweep loop.
func (s *SessionStore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.sweepExpired(); removed > 0 {
					s.logger.Debug("expired wizard sessions removed", zap.Int("count", removed))
				}
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *SessionStore) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *SessionStore) sweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if time.Since(session.LastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
