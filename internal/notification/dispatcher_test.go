package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore-backend/internal/domain"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []string
	payloads []domain.RawJSON
}

func (s *recordingSender) Send(ctx context.Context, eventType string, payload domain.RawJSON) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, eventType)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestAsyncDispatcher_DeliversEvents(t *testing.T) {
	sender := &recordingSender{}
	d := NewAsyncDispatcher(context.Background(), sender, 1000, 1000)

	for i := 0; i < 5; i++ {
		d.Dispatch(domain.NotificationEvent{
			Type:        domain.EventOrderCreated,
			OrderID:     "order-1",
			OrderNumber: "ORD-20260828-ABCDEF",
			CustomerID:  "cust-1",
			OccurredAt:  time.Now(),
		})
	}
	require.Eventually(t, func() bool { return sender.count() == 5 }, time.Second, 5*time.Millisecond)
	d.Close()

	assert.Equal(t, 5, sender.count())

	// the delivered payload decodes back to the event
	var decoded domain.NotificationEvent
	require.NoError(t, json.Unmarshal(sender.payloads[0], &decoded))
	assert.Equal(t, "ORD-20260828-ABCDEF", decoded.OrderNumber)
}

func TestAsyncDispatcher_CloseStopsPendingEvents(t *testing.T) {
	sender := &recordingSender{}
	// burst 1 at a very slow rate: the first event goes out, the rest queue
	d := NewAsyncDispatcher(context.Background(), sender, 0.001, 1)

	for i := 0; i < 10; i++ {
		d.Dispatch(domain.NotificationEvent{Type: domain.EventOrderShipped, OrderID: "order-1"})
	}
	d.Close()

	// Close drains without waiting out the rate limit
	assert.LessOrEqual(t, sender.count(), 1)
}

func TestNotificationEvent_PayloadRoundTrip(t *testing.T) {
	event := domain.NotificationEvent{
		Type:        domain.EventOrderDelivered,
		OrderID:     "order-1",
		OrderNumber: "ORD-20260828-ABCDEF",
		CustomerID:  "cust-1",
		Payload:     domain.JSONB{"total": 99.5, "currency": "BDT"},
		OccurredAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded domain.NotificationEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.OrderNumber, decoded.OrderNumber)
	assert.InDelta(t, 99.5, decoded.Payload["total"].(float64), 0.001)

	// a sender wrapping the payload in an outbound envelope keeps the
	// bytes verbatim
	envelope := struct {
		Channel string         `json:"channel"`
		Event   domain.RawJSON `json:"event"`
	}{Channel: "email", Event: domain.RawJSON(raw)}

	wrapped, err := json.Marshal(envelope)
	require.NoError(t, err)

	var outer struct {
		Channel string         `json:"channel"`
		Event   domain.RawJSON `json:"event"`
	}
	require.NoError(t, json.Unmarshal(wrapped, &outer))
	assert.JSONEq(t, string(raw), string(outer.Event))
}
