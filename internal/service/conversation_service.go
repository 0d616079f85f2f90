package service

import (
	"errors"
	"strings"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/repository"
	"chatbot-api/backend/pkg/config"

	"gorm.io/gorm"
)

var (
	// ErrConversationNotFound covers both "does not exist" and "belongs to
	// someone else" so responses never leak which one it was.
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidModel         = errors.New("invalid model")
)

// ConversationService owns conversation access control, CRUD and search
type ConversationService struct {
	repo repository.ConversationRepository
}

func NewConversationService(repo repository.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

// Authorize fetches a conversation and verifies it belongs to userID. Every
// conversation-scoped operation goes through here before touching anything.
func (s *ConversationService) Authorize(conversationID uint, userID string) (*models.Conversation, error) {
	conversation, err := s.repo.GetByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conversation.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// List returns all conversations owned by userID
func (s *ConversationService) List(userID string) ([]models.Conversation, error) {
	return s.repo.ListByUser(userID)
}

// Create starts a new conversation, applying defaults and validating the model
func (s *ConversationService) Create(userID, title, model string) (*models.Conversation, error) {
	cfg := config.Get()

	if title == "" {
		title = "New Conversation"
	}
	if model == "" {
		model = cfg.Chat.DefaultModel
	}
	if !cfg.IsValidModel(model) {
		return nil, ErrInvalidModel
	}

	conversation := &models.Conversation{
		UserID: userID,
		Title:  title,
		Model:  model,
	}
	if err := s.repo.Create(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Update patches title and/or model of an owned conversation
func (s *ConversationService) Update(conversationID uint, userID string, req models.ConversationUpdateRequest) (*models.Conversation, error) {
	conversation, err := s.Authorize(conversationID, userID)
	if err != nil {
		return nil, err
	}

	if req.Model != nil && !config.Get().IsValidModel(*req.Model) {
		return nil, ErrInvalidModel
	}

	if req.Title != nil {
		conversation.Title = *req.Title
	}
	if req.Model != nil {
		conversation.Model = *req.Model
	}

	if err := s.repo.Save(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Messages returns the ordered history of an owned conversation
func (s *ConversationService) Messages(conversationID uint, userID string) ([]models.Message, error) {
	if _, err := s.Authorize(conversationID, userID); err != nil {
		return nil, err
	}
	return s.repo.MessagesByConversation(conversationID)
}

// SendMessage persists a user-role message at the next index. The role is
// fixed here; client-supplied roles are not accepted.
func (s *ConversationService) SendMessage(conversationID uint, userID, content string) (*models.Conversation, *models.Message, error) {
	conversation, err := s.Authorize(conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	message, err := s.repo.AppendMessage(conversationID, models.RoleUser, content, "")
	if err != nil {
		return nil, nil, err
	}
	return conversation, message, nil
}

// Search finds the user's conversations whose title or messages contain the
// query substring, case-insensitively, with the matches grouped per
// conversation.
func (s *ConversationService) Search(userID, query string) ([]models.ConversationSearchResult, error) {
	conversations, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	results := make([]models.ConversationSearchResult, 0)

	for _, conversation := range conversations {
		titleMatch := strings.Contains(strings.ToLower(conversation.Title), needle)

		messages, err := s.repo.MessagesByConversation(conversation.ID)
		if err != nil {
			return nil, err
		}

		matching := make([]models.Message, 0)
		for _, message := range messages {
			if strings.Contains(strings.ToLower(message.Content), needle) {
				matching = append(matching, message)
			}
		}

		if titleMatch || len(matching) > 0 {
			results = append(results, models.ConversationSearchResult{
				Conversation:     conversation,
				MatchingMessages: matching,
			})
		}
	}

	return results, nil
}
