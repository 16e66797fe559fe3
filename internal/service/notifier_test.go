package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
)

// capture swaps the broker publish for an in-memory recorder.
type capture struct {
	mu   sync.Mutex
	sent map[string][][]byte
	done chan struct{}
}

func newCapture(expect int) *capture {
	return &capture{sent: make(map[string][][]byte), done: make(chan struct{}, expect)}
}

func (c *capture) send(_ context.Context, queueName string, body []byte) error {
	c.mu.Lock()
	c.sent[queueName] = append(c.sent[queueName], body)
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func TestNotifierDeliversEnqueuedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(8)
	rec := newCapture(2)
	n.send = rec.send
	n.Start(ctx)

	n.BookingConfirmed(queue.BookingConfirmedEvent{TicketID: 9, FlightNumber: "VA1234", SeatLabel: "1A"})
	n.Mail(queue.MailEvent{To: "a@b.c", Subject: "hi"})

	for i := 0; i < 2; i++ {
		select {
		case <-rec.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for publish")
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.sent[queue.BookingConfirmedQueue], 1)
	require.Len(t, rec.sent[queue.MailOutboundQueue], 1)

	var ev queue.BookingConfirmedEvent
	require.NoError(t, json.Unmarshal(rec.sent[queue.BookingConfirmedQueue][0], &ev))
	assert.EqualValues(t, 9, ev.TicketID)
	assert.Equal(t, "VA1234", ev.FlightNumber)
}

func TestNotifierNeverBlocksWhenFull(t *testing.T) {
	// Worker not started: the channel fills up and further events must
	// be dropped rather than block the caller.
	n := NewNotifier(2)

	doneCh := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			n.Mail(queue.MailEvent{To: "x@y.z"})
		}
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	assert.Len(t, n.events, 2)
}
