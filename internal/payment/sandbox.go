package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is the in-process provider used outside production, where a
// real gateway adapter would be plugged in.  Sessions live in memory;
// with autoPay enabled every session reports paid as soon as it is
// queried, so the whole checkout flow can be exercised locally without
// a gateway.
type Sandbox struct {
	mu       sync.Mutex
	sessions map[string]Session
	autoPay  bool
}

// NewSandbox returns a Sandbox provider.  autoPay controls whether
// sessions settle themselves on first query.
func NewSandbox(autoPay bool) *Sandbox {
	return &Sandbox{sessions: make(map[string]Session), autoPay: autoPay}
}

// CreateCheckoutSession stores the metadata under a fresh session id
// and returns a local payment URL.
func (s *Sandbox) CreateCheckoutSession(_ context.Context, _ []Item, metadata string, successURL, _ string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.sessions[id] = Session{ID: id, Metadata: metadata}
	return successURL + "?session_id=" + id, id, nil
}

// GetSession returns the stored session, settling it first when autoPay
// is on.
func (s *Sandbox) GetSession(_ context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("unknown session %q", sessionID)
	}
	if s.autoPay && !sess.Paid {
		sess.Paid = true
		s.sessions[sessionID] = sess
	}
	return sess, nil
}

// MarkPaid settles a session explicitly, for use when autoPay is off.
func (s *Sandbox) MarkPaid(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	sess.ID = sessionID
	sess.Paid = true
	s.sessions[sessionID] = sess
}
