package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlaserp/portal-gateway/upstream"
)

// hubClient builds a client wired to the hub's channels without a real
// connection; the pumps never run, messages are read off send directly.
func hubClient(hub *Hub, userID string, channels ...string) *Client {
	c := &Client{
		hub:           hub,
		send:          make(chan []byte, 4),
		subscriptions: make(map[string]struct{}),
		userID:        userID,
	}
	for _, channel := range channels {
		c.subscriptions[channel] = struct{}{}
	}
	return c
}

func receivedMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("expected a message, channel empty")
		return Message{}
	}
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("reaches subscribed clients only", func(t *testing.T) {
		hub := NewHub()
		subscribed := hubClient(hub, "user-1", "orders.updated")
		other := hubClient(hub, "user-2", "inventory.low")
		hub.Register(subscribed)
		hub.Register(other)

		hub.Broadcast("orders.updated", map[string]string{"orderId": "o-42"})

		msg := receivedMessage(t, subscribed)
		require.Equal(t, TypeEvent, msg.Type)
		require.Equal(t, "orders.updated", msg.Channel)
		require.Empty(t, other.send)
	})

	t.Run("addressed events reach only the user's connections", func(t *testing.T) {
		hub := NewHub()
		mine := hubClient(hub, "user-1", "messages.new")
		theirs := hubClient(hub, "user-2", "messages.new")
		hub.Register(mine)
		hub.Register(theirs)

		hub.BroadcastToUser("user-1", "messages.new", map[string]string{"from": "user-3"})

		require.NotEmpty(t, mine.send)
		require.Empty(t, theirs.send)
	})

	t.Run("broadcast after disconnect does not panic", func(t *testing.T) {
		hub := NewHub()
		client := hubClient(hub, "user-1", "orders.updated")
		hub.Register(client)
		hub.Unregister(client)

		require.NotPanics(t, func() {
			hub.Broadcast("orders.updated", map[string]string{"orderId": "o-42"})
		})
	})

	t.Run("double unregister is safe", func(t *testing.T) {
		hub := NewHub()
		client := hubClient(hub, "user-1")
		hub.Register(client)
		hub.Unregister(client)
		require.NotPanics(t, func() { hub.Unregister(client) })
	})
}

type stubSource struct {
	events      []upstream.Event
	nextCursor  string
	pollErr     error
	seenCursors []string
}

func (s *stubSource) Poll(_ context.Context, cursor string) ([]upstream.Event, string, error) {
	s.seenCursors = append(s.seenCursors, cursor)
	if s.pollErr != nil {
		return nil, cursor, s.pollErr
	}
	events := s.events
	s.events = nil
	return events, s.nextCursor, nil
}

func TestBridge(t *testing.T) {
	t.Run("polled events reach subscribed clients", func(t *testing.T) {
		hub := NewHub()
		client := hubClient(hub, "user-1", "notifications.created")
		hub.Register(client)

		source := &stubSource{
			events: []upstream.Event{
				{ID: "e1", Channel: "notifications.created", Payload: json.RawMessage(`{"title":"hello"}`)},
				{ID: "e2", Channel: "notifications.created", UserID: "user-2", Payload: json.RawMessage(`{}`)},
			},
			nextCursor: "e2",
		}
		bridge := NewBridge(source, hub, time.Second)

		bridge.pollOnce(context.Background())

		// Only the unaddressed event lands; e2 belongs to another user.
		msg := receivedMessage(t, client)
		require.Equal(t, "notifications.created", msg.Channel)
		require.Empty(t, client.send)

		// Cursor advances and is replayed on the next poll.
		bridge.pollOnce(context.Background())
		require.Equal(t, []string{"", "e2"}, source.seenCursors)
	})

	t.Run("failed poll keeps the cursor", func(t *testing.T) {
		hub := NewHub()
		source := &stubSource{pollErr: context.DeadlineExceeded, nextCursor: "ignored"}
		bridge := NewBridge(source, hub, time.Second)
		bridge.cursor = "e5"

		bridge.pollOnce(context.Background())
		require.Equal(t, "e5", bridge.cursor)
	})
}
