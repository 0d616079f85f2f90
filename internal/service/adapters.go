package service

import (
	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/repository"
	"chatbot-api/backend/internal/ws"
)

// ChatStoreAdapter exposes the conversation repository through the narrow
// interface the websocket relay streams against.
type ChatStoreAdapter struct {
	repo repository.ConversationRepository
}

func NewChatStoreAdapter(repo repository.ConversationRepository) *ChatStoreAdapter {
	return &ChatStoreAdapter{repo: repo}
}

func (a *ChatStoreAdapter) History(conversationID uint) ([]ws.HistoryMessage, error) {
	messages, err := a.repo.MessagesByConversation(conversationID)
	if err != nil {
		return nil, err
	}

	history := make([]ws.HistoryMessage, 0, len(messages))
	for _, message := range messages {
		history = append(history, ws.HistoryMessage{
			Index:   message.Index,
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return history, nil
}

// ReserveAssistantMessage creates the assistant row up front so its index is
// fixed before any fragments arrive, then returns its id for content updates.
func (a *ChatStoreAdapter) ReserveAssistantMessage(conversationID uint, model string) (uint, error) {
	message, err := a.repo.AppendMessage(conversationID, models.RoleAssistant, "", model)
	if err != nil {
		return 0, err
	}
	return message.ID, nil
}

func (a *ChatStoreAdapter) SaveAssistantContent(messageID uint, content string) error {
	return a.repo.UpdateMessageContent(messageID, content)
}
