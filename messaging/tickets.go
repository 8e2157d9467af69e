package messaging

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// TicketTTL is how long a minted WebSocket ticket stays redeemable.
const TicketTTL = 60 * time.Second

// Ticket identifies a pending WebSocket connection attempt. Browsers
// cannot set an Authorization header on a WebSocket upgrade, so the
// portal mints a short-lived single-use ticket over the authenticated
// API and passes it back as a query parameter.
type Ticket struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// TicketStore holds pending WebSocket tickets. Tickets are single-use
// and expire after TicketTTL.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]Ticket
	nowTime func() time.Time
}

// NewTicketStore creates an empty ticket store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[string]Ticket),
		nowTime: time.Now,
	}
}

// Mint issues a new ticket bound to the authenticated user.
func (s *TicketStore) Mint(userID, email string) (string, Ticket) {
	b := make([]byte, 32)
	rand.Read(b) //nolint:errcheck // crypto/rand.Read always fills b on supported platforms
	id := hex.EncodeToString(b)

	ticket := Ticket{
		UserID:    userID,
		Email:     email,
		ExpiresAt: s.nowTime().Add(TicketTTL),
	}

	s.mu.Lock()
	s.tickets[id] = ticket
	s.mu.Unlock()
	return id, ticket
}

// Redeem validates and consumes a ticket. A ticket can be redeemed once.
func (s *TicketStore) Redeem(id string) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	delete(s.tickets, id)
	if s.nowTime().After(ticket.ExpiresAt) {
		return Ticket{}, false
	}
	return ticket, true
}

// Sweep discards expired tickets. Called periodically so abandoned
// tickets do not accumulate.
func (s *TicketStore) Sweep() int {
	now := s.nowTime()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, ticket := range s.tickets {
		if now.After(ticket.ExpiresAt) {
			delete(s.tickets, id)
			removed++
		}
	}
	return removed
}
