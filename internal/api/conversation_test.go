package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"chatbot-api/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *chatTestEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateAndGetConversation(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	token := env.token(t, "user-a")

	resp := env.do(t, http.MethodPost, "/conversations", token, gin.H{"title": "My chat", "model": "gpt-4o"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "My chat", created.Title)
	assert.Equal(t, "user-a", created.UserID)

	resp = env.do(t, http.MethodGet, "/conversations/1", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateConversationRejectsUnknownModel(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	resp := env.do(t, http.MethodPost, "/conversations", env.token(t, "user-a"), gin.H{"model": "not-a-model"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetConversationHidesForeign(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Chat", Model: "gpt-4o"})

	resp := env.do(t, http.MethodGet, "/conversations/1", env.token(t, "user-b"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatchConversation(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Chat", Model: "gpt-4o"})

	resp := env.do(t, http.MethodPatch, "/conversations/1", env.token(t, "user-a"), gin.H{"title": "Renamed"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "gpt-4o", updated.Model)
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	resp := env.do(t, http.MethodGet, "/conversations/search", env.token(t, "user-a"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchFindsMatches(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Kubernetes notes", Model: "gpt-4o"})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Cooking", Model: "gpt-4o"})

	resp := env.do(t, http.MethodGet, "/conversations/search?q=kubernetes", env.token(t, "user-a"), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []models.ConversationSearchResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Kubernetes notes", body.Results[0].Conversation.Title)
}

func TestConversationMessagesEndpoint(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})
	env.repo.Create(&models.Conversation{UserID: "user-a", Title: "Chat", Model: "gpt-4o"})
	_, err := env.repo.AppendMessage(1, models.RoleUser, "hello", "")
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/conversations/1/messages", env.token(t, "user-a"), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hello", body.Messages[0].Content)
}

func TestInvalidConversationIDParam(t *testing.T) {
	env := newChatTestEnv(t, &stubProvider{})

	resp := env.do(t, http.MethodGet, "/conversations/abc", env.token(t, "user-a"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
