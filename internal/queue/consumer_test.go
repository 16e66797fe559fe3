package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeliveriesTagsQueueNames(t *testing.T) {
	a := make(chan amqp.Delivery, 1)
	b := make(chan amqp.Delivery, 1)
	merged := mergeDeliveries(map[string]<-chan amqp.Delivery{
		BookingConfirmedQueue: a,
		MailOutboundQueue:     b,
	})

	a <- amqp.Delivery{Body: []byte("booking")}
	b <- amqp.Delivery{Body: []byte("mail")}
	close(a)
	close(b)

	got := make(map[string]string)
	for d := range merged {
		got[d.RoutingKey] = string(d.Body)
	}
	assert.Equal(t, map[string]string{
		BookingConfirmedQueue: "booking",
		MailOutboundQueue:     "mail",
	}, got)
}

// When the broker connection dies the client library closes every
// consumer channel.  The merged channel must close too, so the consume
// loop returns and the reconnect loop gets another turn instead of
// blocking forever on a channel nothing will ever send to.
func TestMergeDeliveriesClosesWhenAllInputsClose(t *testing.T) {
	a := make(chan amqp.Delivery)
	b := make(chan amqp.Delivery)
	c := make(chan amqp.Delivery)
	merged := mergeDeliveries(map[string]<-chan amqp.Delivery{
		BookingConfirmedQueue: a,
		FlightStatusQueue:     b,
		MailOutboundQueue:     c,
	})

	close(a)
	close(b)

	// One input still open: the merged channel must stay open.
	select {
	case _, ok := <-merged:
		require.False(t, ok, "no delivery was ever sent")
		t.Fatal("merged channel closed while an input was still open")
	case <-time.After(50 * time.Millisecond):
	}

	close(c)
	select {
	case _, ok := <-merged:
		assert.False(t, ok, "expected closed channel, got a delivery")
	case <-time.After(time.Second):
		t.Fatal("merged channel did not close after all inputs closed")
	}
}
