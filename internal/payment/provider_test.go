package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
	"github.com/brunacrodrigues/vitoria-airlines/internal/payment/paymenttest"
)

func TestMetadataRoundTrip(t *testing.T) {
	in := payment.Metadata{
		Legs:     []payment.Leg{{FlightID: 7, SeatID: 42}, {FlightID: 8, SeatID: 43}},
		FullName: "Ana Sousa",
		Email:    "ana@example.com",
		Passport: "P1234567",
		Phone:    "+351 910 000 000",
	}
	raw, err := in.Encode()
	require.NoError(t, err)

	out, err := payment.DecodeMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeMetadataRejectsBadPayloads(t *testing.T) {
	_, err := payment.DecodeMetadata("not json")
	assert.Error(t, err)

	// Syntactically valid but useless: a booking with no legs cannot
	// produce tickets.
	_, err = payment.DecodeMetadata(`{"user_id":3}`)
	assert.Error(t, err)
}

func TestFakeProviderPaidFlow(t *testing.T) {
	ctx := context.Background()
	fake := paymenttest.New()

	meta, err := payment.Metadata{Legs: []payment.Leg{{FlightID: 1, SeatID: 2}}, UserID: 9}.Encode()
	require.NoError(t, err)

	url, sessionID, err := fake.CreateCheckoutSession(ctx, nil, meta, "s", "c")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.NotEmpty(t, sessionID)

	// Fresh sessions are unpaid until the provider confirms the charge.
	sess, err := fake.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, sess.Paid)
	assert.Equal(t, meta, sess.Metadata)

	fake.MarkPaid(sessionID)
	sess, err = fake.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, sess.Paid)
	assert.Equal(t, meta, sess.Metadata)

	_, err = fake.GetSession(ctx, "missing")
	assert.Error(t, err)
}
