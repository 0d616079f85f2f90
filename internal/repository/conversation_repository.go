package repository

import (
	"time"

	"chatbot-api/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	GetByID(id uint) (*models.Conversation, error)
	ListByUser(userID string) ([]models.Conversation, error)
	Create(conversation *models.Conversation) error
	Save(conversation *models.Conversation) error
	MessagesByConversation(conversationID uint) ([]models.Message, error)
	AppendMessage(conversationID uint, role models.Role, content, model string) (*models.Message, error)
	UpdateMessageContent(messageID uint, content string) error
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.First(&conversation, id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *GormConversationRepository) ListByUser(userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *GormConversationRepository) Create(conversation *models.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *GormConversationRepository) Save(conversation *models.Conversation) error {
	return r.db.Save(conversation).Error
}

func (r *GormConversationRepository) MessagesByConversation(conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order(`"index" ASC`).
		Find(&messages).Error
	return messages, err
}

// AppendMessage inserts a message at the next free index. The parent
// conversation row is locked for the duration of the transaction so that
// concurrent appends to the same conversation cannot compute the same index.
func (r *GormConversationRepository) AppendMessage(conversationID uint, role models.Role, content, model string) (*models.Message, error) {
	var message models.Message

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, conversationID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ?", conversationID).
			Count(&count).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		message = models.Message{
			ConversationID: conversationID,
			Index:          int(count),
			Role:           role,
			Content:        content,
			Model:          model,
			Timestamp:      now,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		return tx.Model(&conversation).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *GormConversationRepository) UpdateMessageContent(messageID uint, content string) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("content", content).Error
}
