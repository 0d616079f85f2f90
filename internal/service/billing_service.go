package service

import (
	"errors"
	"time"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/repository"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("plan not found")

const subscriptionPeriod = 30 * 24 * time.Hour

// SubscribeResult describes a completed subscription purchase
type SubscribeResult struct {
	SubscriptionID uint      `json:"subscription_id"`
	PlanName       string    `json:"plan_name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

// BillingService handles plan purchases. Payments are simulated end to end,
// there is no gateway integration.
type BillingService struct {
	repo  repository.BillingRepository
	users repository.UserRepository
}

func NewBillingService(repo repository.BillingRepository, users repository.UserRepository) *BillingService {
	return &BillingService{repo: repo, users: users}
}

// Subscribe records a completed payment for the plan and opens a 30-day
// subscription window for the user.
func (s *BillingService) Subscribe(userID string, planID uint) (*SubscribeResult, error) {
	plan, err := s.repo.GetPlan(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()

	payment := &models.Payment{
		UserID:    userID,
		Amount:    plan.Price,
		Method:    "credit_card",
		Status:    "completed",
		PlanID:    plan.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, err
	}

	subscription := &models.Subscription{
		UserID:    userID,
		PaymentID: payment.ID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.Add(subscriptionPeriod),
	}
	if err := s.repo.CreateSubscription(subscription); err != nil {
		return nil, err
	}

	if user, err := s.users.GetByID(userID); err == nil {
		user.SubscriptionStatus = "active"
		user.SubscriptionPlan = plan.Name
		user.UpdatedAt = now
		if err := s.users.Save(user); err != nil {
			return nil, err
		}
	}

	return &SubscribeResult{
		SubscriptionID: subscription.ID,
		PlanName:       plan.Name,
		StartDate:      subscription.StartDate,
		EndDate:        subscription.EndDate,
	}, nil
}
