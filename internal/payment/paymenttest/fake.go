// Package paymenttest provides an in-memory payment provider for tests:
// no network, fully deterministic, with knobs to flip a session's paid
// status.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
)

// FakeProvider records created sessions and lets tests mark them paid.
type FakeProvider struct {
	mu       sync.Mutex
	sessions map[string]payment.Session
}

// New returns an empty FakeProvider.
func New() *FakeProvider {
	return &FakeProvider{sessions: make(map[string]payment.Session)}
}

// CreateCheckoutSession stores the metadata under a fresh session ID.
func (f *FakeProvider) CreateCheckoutSession(_ context.Context, _ []payment.Item, metadata string, _, _ string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.sessions[id] = payment.Session{ID: id, Paid: false, Metadata: metadata}
	return "https://pay.example/" + id, id, nil
}

// GetSession returns the stored session or an error for unknown IDs.
func (f *FakeProvider) GetSession(_ context.Context, sessionID string) (payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return payment.Session{}, fmt.Errorf("unknown session %q", sessionID)
	}
	return s, nil
}

// MarkPaid flips a session to paid, as the provider would after a
// successful charge.
func (f *FakeProvider) MarkPaid(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[sessionID]
	s.ID = sessionID
	s.Paid = true
	f.sessions[sessionID] = s
}

// Seed installs a session directly, bypassing CreateCheckoutSession.
func (f *FakeProvider) Seed(s payment.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
}
