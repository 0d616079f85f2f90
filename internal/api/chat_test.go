package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatbot-api/backend/internal/ai"
	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/service"
	"chatbot-api/backend/internal/ws"
	"chatbot-api/backend/pkg/cache"
	"chatbot-api/backend/pkg/jwt"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "chatbot-api/backend/pkg/errors"
)

type memConversationRepo struct {
	conversations map[uint]*models.Conversation
	messages      map[uint][]models.Message
	nextConvID    uint
	nextMsgID     uint
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{
		conversations: make(map[uint]*models.Conversation),
		messages:      make(map[uint][]models.Message),
	}
}

func (r *memConversationRepo) GetByID(id uint) (*models.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conversation
	return &copied, nil
}

func (r *memConversationRepo) ListByUser(userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conversation := range r.conversations {
		if conversation.UserID == userID {
			out = append(out, *conversation)
		}
	}
	return out, nil
}

func (r *memConversationRepo) Create(conversation *models.Conversation) error {
	r.nextConvID++
	conversation.ID = r.nextConvID
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *memConversationRepo) Save(conversation *models.Conversation) error {
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *memConversationRepo) MessagesByConversation(conversationID uint) ([]models.Message, error) {
	return append([]models.Message(nil), r.messages[conversationID]...), nil
}

func (r *memConversationRepo) AppendMessage(conversationID uint, role models.Role, content, model string) (*models.Message, error) {
	if _, ok := r.conversations[conversationID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.nextMsgID++
	message := models.Message{
		ID:             r.nextMsgID,
		ConversationID: conversationID,
		Index:          len(r.messages[conversationID]),
		Role:           role,
		Content:        content,
		Model:          model,
		Timestamp:      time.Now().UTC(),
	}
	r.messages[conversationID] = append(r.messages[conversationID], message)
	return &message, nil
}

func (r *memConversationRepo) UpdateMessageContent(messageID uint, content string) error {
	for convID, msgs := range r.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				r.messages[convID][i].Content = content
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

type stubProvider struct {
	fragments []string
}

func (p *stubProvider) StreamChat(ctx context.Context, messages []ai.Message, model string) (<-chan ai.StreamResponse, error) {
	out := make(chan ai.StreamResponse)
	go func() {
		defer close(out)
		for _, content := range p.fragments {
			select {
			case out <- ai.StreamResponse{Content: content}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- ai.StreamResponse{Done: true}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (r *memUserRepo) GetByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) Save(user *models.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type chatTestEnv struct {
	server   *httptest.Server
	repo     *memConversationRepo
	users    *memUserRepo
	registry *ws.TicketRegistry
	jwt      *jwt.Service
}

func newChatTestEnv(t *testing.T, provider ai.Provider) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: "error"})
	jwtService := jwt.NewService("test-secret", "")

	repo := newMemConversationRepo()
	users := newMemUserRepo()
	conversationService := service.NewConversationService(repo)
	userService := service.NewUserService(users, cache.Disabled())
	registry := ws.NewTicketRegistry(time.Minute)
	relay := ws.NewRelay(registry, service.NewChatStoreAdapter(repo), provider, log, nil, 50)

	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(apperrors.ErrorHandler())

	auth := middleware.JWTAuthMiddleware(jwtService, log)
	NewChatController(conversationService, registry, relay).RegisterRoutes(engine, auth)
	NewConversationController(conversationService).RegisterRoutes(engine, auth)
	NewUserController(userService).RegisterRoutes(engine, auth)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &chatTestEnv{server: server, repo: repo, users: users, registry: registry, jwt: jwtService}
}

func (e *chatTestEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(userID, userID+"@example.com", nil, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *chatTestEnv) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestStartChatRequiresAuth(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	resp := env.post(t, "/chat", "", gin.H{"conversation_id": 1, "content": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStartChatUnknownConversation(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	resp := env.post(t, "/chat", env.token(t, "user-a"), gin.H{"conversation_id": 42, "content": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartChatForeignConversationHidden(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Chat", Model: "gpt-4o"})

	resp := env.post(t, "/chat", env.token(t, "user-b"), gin.H{"conversation_id": 1, "content": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatRoundTrip(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{fragments: []string{"Hi", " there"}})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Chat", Model: "gpt-4o"})

	resp := env.post(t, "/chat", env.token(t, "user-a"), gin.H{"conversation_id": 1, "content": "Say hi"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WSURL string `json:"ws_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Contains(t, body.WSURL, "/ws/stream/")

	// The user message was persisted before the ticket was issued
	messages, err := env.repo.MessagesByConversation(1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "Say hi", messages[0].Content)

	conn, _, err := websocket.DefaultDialer.Dial(body.WSURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var received strings.Builder
	sawEnd := false
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var event map[string]string
		if json.Unmarshal(payload, &event) == nil && event["event"] == "chat_ended" {
			sawEnd = true
			continue
		}
		received.Write(payload)
	}

	assert.True(t, sawEnd)
	assert.Equal(t, "Hi there", received.String())

	// The assistant reply landed at the next index with the full content
	messages, err = env.repo.MessagesByConversation(1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, 1, messages[1].Index)
	assert.Equal(t, "Hi there", messages[1].Content)

	// The ticket is gone
	assert.Equal(t, 0, env.registry.Len())
}

func TestListModels(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/models", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "user-a"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Models       []string `json:"models"`
		DefaultModel string   `json:"default_model"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Models)
	assert.Contains(t, body.Models, body.DefaultModel)
}
