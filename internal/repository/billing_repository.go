package repository

import (
	"chatbot-api/backend/internal/models"

	"gorm.io/gorm"
)

type BillingRepository interface {
	GetPlan(id uint) (*models.Plan, error)
	CreatePayment(payment *models.Payment) error
	CreateSubscription(subscription *models.Subscription) error
}

type GormBillingRepository struct {
	db *gorm.DB
}

func NewGormBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

func (r *GormBillingRepository) GetPlan(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *GormBillingRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *GormBillingRepository) CreateSubscription(subscription *models.Subscription) error {
	return r.db.Create(subscription).Error
}
