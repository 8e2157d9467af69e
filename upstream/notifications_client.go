package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/atlaserp/portal-gateway/internal/errors"
)

// PathEvents is the notifications-service feed of undelivered events.
const PathEvents = "/notifications/events"

// Event is one notification emitted by the backend notifications
// service. Events with a UserID are addressed; the rest are broadcast.
type Event struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

// NotificationsClient wraps the backend notifications microservice.
type NotificationsClient struct {
	client *Client
}

// NewNotificationsClient creates a notifications-service client.
func NewNotificationsClient(baseURL string, timeout time.Duration) *NotificationsClient {
	return &NotificationsClient{client: NewClient(baseURL, timeout)}
}

// Poll fetches events created after the cursor and returns them with
// the cursor to resume from. An empty cursor starts at the feed head.
func (n *NotificationsClient) Poll(ctx context.Context, cursor string) ([]Event, string, error) {
	path := PathEvents
	if cursor != "" {
		path += "?after=" + url.QueryEscape(cursor)
	}

	envelope, err := n.client.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, cursor, err
	}

	var payload struct {
		Events []Event `json:"events"`
		Cursor string  `json:"cursor"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, cursor, errors.Wrapf(err, "[NotificationsClient.Poll] decoding events payload")
	}

	next := payload.Cursor
	if next == "" {
		next = cursor
	}
	return payload.Events, next, nil
}
