package models

import (
	"time"
)

// Plan represents a subscription plan offering
type Plan struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:text" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `json:"price"`
}

// Payment represents a payment record. Payments here are simulated; a real
// deployment would record the gateway's transaction ids instead.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;type:uuid" json:"user_id"`
	Amount    float64   `json:"amount"`
	Method    string    `gorm:"type:text" json:"method"`
	Status    string    `gorm:"type:text" json:"status"`
	PlanID    uint      `gorm:"index" json:"plan_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription represents an active plan subscription window
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;type:uuid" json:"user_id"`
	PaymentID uint      `gorm:"index" json:"payment_id"`
	PlanID    uint      `gorm:"index" json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
