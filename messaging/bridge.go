package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/upstream"
)

// EventSource yields backend notification events newer than a cursor.
type EventSource interface {
	Poll(ctx context.Context, cursor string) ([]upstream.Event, string, error)
}

// Bridge feeds the hub from the backend notifications service: it polls
// the event feed and fans each event out to subscribed portal clients,
// addressed events only to their user's connections.
type Bridge struct {
	source   EventSource
	hub      *Hub
	interval time.Duration
	cursor   string
}

// NewBridge creates a bridge polling the source at the given interval.
func NewBridge(source EventSource, hub *Hub, interval time.Duration) *Bridge {
	return &Bridge{source: source, hub: hub, interval: interval}
}

// Run polls until the context is cancelled. A failed poll is logged and
// retried on the next tick; the cursor only advances on success.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pollOnce(ctx)
		}
	}
}

func (b *Bridge) pollOnce(ctx context.Context) {
	events, next, err := b.source.Poll(ctx, b.cursor)
	if err != nil {
		log.Warn().Err(err).Msg("notification poll failed")
		return
	}
	b.cursor = next

	for _, event := range events {
		if event.UserID != "" {
			b.hub.BroadcastToUser(event.UserID, event.Channel, json.RawMessage(event.Payload))
			continue
		}
		b.hub.Broadcast(event.Channel, json.RawMessage(event.Payload))
	}
}
