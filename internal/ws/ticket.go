package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTicketTTL is how long an issued ticket stays redeemable.
const DefaultTicketTTL = 300 * time.Second

// These strings go to clients verbatim in the relay's error events, so the
// casing is part of the wire format.
var (
	ErrTicketNotFound = errors.New("Invalid or expired stream ID")
	ErrTicketExpired  = errors.New("Stream session expired")
)

// Ticket binds a pending exchange to the realtime channel that will carry
// it. Tickets live only in the registry, never in durable storage.
type Ticket struct {
	ID             string
	ConversationID uint
	Model          string
	UserID         string
	CreatedAt      time.Time
}

// TicketRegistry is the shared ticket store. It is written by the issuing
// request path and read by every redemption, so all access goes through one
// mutex; Redeem removes the entry under the same lock that finds it, which
// guarantees a ticket can be redeemed at most once.
type TicketRegistry struct {
	mu      sync.Mutex
	tickets map[string]Ticket
	ttl     time.Duration
	now     func() time.Time
}

// NewTicketRegistry creates a registry with the given ticket TTL
func NewTicketRegistry(ttl time.Duration) *TicketRegistry {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &TicketRegistry{
		tickets: make(map[string]Ticket),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue mints an unguessable ticket for a pending exchange
func (r *TicketRegistry) Issue(conversationID uint, model, userID string) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.tickets[id] = Ticket{
		ID:             id,
		ConversationID: conversationID,
		Model:          model,
		UserID:         userID,
		CreatedAt:      r.now(),
	}
	r.mu.Unlock()

	return id
}

// Redeem consumes a ticket. The lookup deletes the entry, so a second
// attempt on the same id gets ErrTicketNotFound whatever happened to the
// first. Expired tickets are purged by the same lookup.
func (r *TicketRegistry) Redeem(id string) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	delete(r.tickets, id)

	if r.now().Sub(ticket.CreatedAt) > r.ttl {
		return Ticket{}, ErrTicketExpired
	}
	return ticket, nil
}

// Purge removes a ticket if still present. Safe to call after Redeem.
func (r *TicketRegistry) Purge(id string) {
	r.mu.Lock()
	delete(r.tickets, id)
	r.mu.Unlock()
}

// Len reports how many tickets are outstanding
func (r *TicketRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

// SetClock overrides the registry clock. Only for tests.
func (r *TicketRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}
