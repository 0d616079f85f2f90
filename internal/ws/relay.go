package ws

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"chatbot-api/backend/internal/ai"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/shared/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks are handled by the CORS layer
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// HistoryMessage is one entry of a conversation's persisted history
type HistoryMessage struct {
	Index   int
	Role    string
	Content string
}

// ChatStore is the persistence the relay needs: history reads, reserving the
// assistant row, and checkpoint/final content writes.
type ChatStore interface {
	History(conversationID uint) ([]HistoryMessage, error)
	ReserveAssistantMessage(conversationID uint, model string) (uint, error)
	SaveAssistantContent(messageID uint, content string) error
}

// Relay drives one redeemed ticket: it loads history, streams fragments from
// the completion provider, forwards them on the websocket and checkpoints
// partial output to the store.
type Relay struct {
	registry            *TicketRegistry
	store               ChatStore
	provider            ai.Provider
	logger              *logger.Logger
	metrics             *observability.StreamMetrics
	checkpointThreshold int
}

// NewRelay creates a relay. metrics may be nil.
func NewRelay(registry *TicketRegistry, store ChatStore, provider ai.Provider,
	log *logger.Logger, metrics *observability.StreamMetrics, checkpointThreshold int) *Relay {
	if checkpointThreshold <= 0 {
		checkpointThreshold = 50
	}
	return &Relay{
		registry:            registry,
		store:               store,
		provider:            provider,
		logger:              log,
		metrics:             metrics,
		checkpointThreshold: checkpointThreshold,
	}
}

// ServeStream handles GET /ws/stream/:ticketID
func (r *Relay) ServeStream(c *gin.Context) {
	ticketID := c.Param("ticketID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.logger.LogError(err, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Redemption is atomic-once: the lookup removes the ticket, so a second
	// channel racing on the same id sees "not found"
	ticket, err := r.registry.Redeem(ticketID)
	if err != nil {
		r.sendError(conn, err.Error())
		r.closeWith(conn, websocket.ClosePolicyViolation)
		return
	}

	// Redundant after Redeem, but keeps the registry clean on every exit path
	defer r.registry.Purge(ticketID)

	ctx := c.Request.Context()
	r.metrics.StreamStarted(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Relay panic",
				"ticket_id", ticketID,
				"conversation_id", ticket.ConversationID,
				"error", fmt.Sprintf("%v", rec),
			)
			r.sendError(conn, fmt.Sprintf("Server error: %v", rec))
			r.metrics.StreamFailed(ctx)
		}
	}()

	if err := r.stream(ctx, conn, ticket); err != nil {
		r.logger.LogError(err, "stream ended with error",
			"ticket_id", ticketID,
			"conversation_id", ticket.ConversationID,
		)
		r.metrics.StreamFailed(ctx)
		return
	}
	r.metrics.StreamCompleted(ctx)
}

func (r *Relay) stream(ctx context.Context, conn *websocket.Conn, ticket Ticket) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client never sends application data on this channel; the read pump
	// exists to notice disconnects and stop provider consumption promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	history, err := r.store.History(ticket.ConversationID)
	if err != nil {
		r.sendError(conn, "Server error: failed to load conversation history")
		return err
	}
	// The store makes no ordering promise
	sort.Slice(history, func(i, j int) bool { return history[i].Index < history[j].Index })

	providerMessages := make([]ai.Message, 0, len(history))
	for _, msg := range history {
		providerMessages = append(providerMessages, ai.Message{Role: msg.Role, Content: msg.Content})
	}

	// Reserve the assistant row before any token arrives so partial progress
	// is visible to concurrent readers. It is not part of the provider input.
	messageID, err := r.store.ReserveAssistantMessage(ticket.ConversationID, ticket.Model)
	if err != nil {
		r.sendError(conn, "Server error: failed to create assistant message")
		return err
	}

	fragments, err := r.provider.StreamChat(ctx, providerMessages, ticket.Model)
	if err != nil {
		r.sendError(conn, fmt.Sprintf("Error from provider: %v", err))
		return err
	}

	var full strings.Builder
	for fragment := range fragments {
		if fragment.Err != nil {
			// Persisted content stays at whatever the last checkpoint wrote
			r.sendError(conn, fmt.Sprintf("Error from provider: %v", fragment.Err))
			return fragment.Err
		}
		if fragment.Done {
			break
		}

		full.WriteString(fragment.Content)

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(fragment.Content)); err != nil {
			cancel()
			return err
		}
		r.metrics.FragmentForwarded(ctx)

		// Checkpoint on oversized fragments rather than on a fixed cadence
		if len(fragment.Content) > r.checkpointThreshold {
			if err := r.store.SaveAssistantContent(messageID, full.String()); err != nil {
				r.logger.LogError(err, "checkpoint write failed", "message_id", messageID)
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// The tail may never have crossed the checkpoint threshold, so the final
	// write is unconditional
	if err := r.store.SaveAssistantContent(messageID, full.String()); err != nil {
		r.sendError(conn, "Server error: failed to persist response")
		return err
	}

	r.sendEvent(conn, "chat_ended")
	r.closeWith(conn, websocket.CloseNormalClosure)
	return nil
}

// sendError best-effort delivers an error event; a gone channel is fine
func (r *Relay) sendError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(gin.H{"error": message})
}

func (r *Relay) sendEvent(conn *websocket.Conn, event string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(gin.H{"event": event})
}

func (r *Relay) closeWith(conn *websocket.Conn, code int) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), deadline)
}
