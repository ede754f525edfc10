// Package notification delivers order lifecycle events to external
// channels. Dispatch is fire-and-forget: the transactional core has
// already committed by the time an event arrives here, and a delivery
// failure never affects order state.
package notification

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"shopcore-backend/internal/domain"
	"shopcore-backend/pkg/logger"
)

// Sender is the outbound channel (email/SMS/push gateway). Wire protocols
// live outside this module; the payload is the pre-encoded event.
type Sender interface {
	Send(ctx context.Context, eventType string, payload domain.RawJSON) error
}

// LogSender writes events to the structured log. Default sender for
// environments without a delivery gateway.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, eventType string, payload domain.RawJSON) error {
	logger.Info().Str("event", eventType).RawJSON("payload", []byte(payload)).Msg("Notification")
	return nil
}

// AsyncDispatcher fans events out on background goroutines, throttled so a
// burst of order activity cannot flood the downstream gateway.
type AsyncDispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher sending at most eventsPerSecond
// with the given burst.
func NewAsyncDispatcher(ctx context.Context, sender Sender, eventsPerSecond float64, burst int) *AsyncDispatcher {
	d := &AsyncDispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst),
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	return d
}

func (d *AsyncDispatcher) Dispatch(event domain.NotificationEvent) {
	encoded, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event", event.Type).Msg("Failed to encode notification")
		return
	}
	payload := domain.RawJSON(encoded)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.limiter.Wait(d.ctx); err != nil {
			// Dispatcher shut down before the event could go out.
			return
		}
		if err := d.sender.Send(d.ctx, event.Type, payload); err != nil {
			logger.Warn().Err(err).Str("event", event.Type).Str("order_number", event.OrderNumber).Msg("Notification delivery failed")
		}
	}()
}

// Close stops accepting waits and blocks until in-flight sends finish.
func (d *AsyncDispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
