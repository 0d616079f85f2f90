package ws

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketIssueAndRedeem(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)

	id := registry.Issue(42, "gpt-4o", "user-1")
	require.NotEmpty(t, id)
	assert.Equal(t, 1, registry.Len())

	ticket, err := registry.Redeem(id)
	require.NoError(t, err)
	assert.Equal(t, uint(42), ticket.ConversationID)
	assert.Equal(t, "gpt-4o", ticket.Model)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, 0, registry.Len())
}

func TestTicketSecondRedeemFails(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)

	id := registry.Issue(1, "gpt-4o", "user-1")

	_, err := registry.Redeem(id)
	require.NoError(t, err)

	_, err = registry.Redeem(id)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketUnknownID(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)

	_, err := registry.Redeem("does-not-exist")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketExpiry(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)

	base := time.Now()
	registry.SetClock(func() time.Time { return base })

	id := registry.Issue(1, "gpt-4o", "user-1")

	registry.SetClock(func() time.Time { return base.Add(2 * time.Minute) })

	_, err := registry.Redeem(id)
	assert.ErrorIs(t, err, ErrTicketExpired)
	// Clients see this text verbatim
	assert.EqualError(t, err, "Stream session expired")

	// The expired entry is gone, not lingering
	assert.Equal(t, 0, registry.Len())
	_, err = registry.Redeem(id)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketConcurrentRedeemSingleWinner(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)
	id := registry.Issue(1, "gpt-4o", "user-1")

	const attempts = 32
	var winners atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := registry.Redeem(id); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestTicketPurgeIdempotent(t *testing.T) {
	registry := NewTicketRegistry(time.Minute)
	id := registry.Issue(1, "gpt-4o", "user-1")

	registry.Purge(id)
	registry.Purge(id)
	assert.Equal(t, 0, registry.Len())
}
