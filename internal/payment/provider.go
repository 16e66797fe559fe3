// Package payment defines the interface to the external checkout
// provider.  The core never trusts client-side success callbacks; the
// only fact that matters is the paid status the provider reports when
// queried with a session ID.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
)

// Item is one purchasable line of a checkout session.
type Item struct {
	Description string `json:"description"`
	AmountCents uint32 `json:"amount_cents"`
}

// Session is the provider's view of a checkout session.  Metadata is
// the opaque payload stored at session creation and echoed back after
// payment; the reconciler round-trips booking intent through it.
type Session struct {
	ID       string
	Paid     bool
	Metadata string
}

// Provider creates checkout sessions before payment and reports their
// status after.  Implementations wrap a real gateway; tests use the
// fake in paymenttest.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, items []Item, metadata string, successURL, cancelURL string) (url, sessionID string, err error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
}

// Leg identifies one directional flight inside a checkout: the outbound
// leg is mandatory, the return leg optional.
type Leg struct {
	FlightID uint64 `json:"flight_id"`
	SeatID   uint64 `json:"seat_id"`
}

// Metadata is the booking intent serialized into a checkout session.
// Either UserID is set (authenticated buyer) or the personal fields are
// (anonymous buyer whose account is created after payment).
type Metadata struct {
	Legs     []Leg  `json:"legs"`
	UserID   uint64 `json:"user_id,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Passport string `json:"passport,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Encode serializes metadata for storage on the session.
func (m Metadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode checkout metadata: %w", err)
	}
	return string(b), nil
}

// DecodeMetadata parses the metadata stored on a session.
func DecodeMetadata(raw string) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, fmt.Errorf("decode checkout metadata: %w", err)
	}
	if len(m.Legs) == 0 {
		return Metadata{}, fmt.Errorf("decode checkout metadata: no legs")
	}
	return m, nil
}
