package repository

import (
	"chatbot-api/backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(id string) (*models.User, error)
	Save(user *models.User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Save(user *models.User) error {
	return r.db.Save(user).Error
}
