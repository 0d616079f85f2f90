package models

import (
	"time"
)

// User represents a user in the system. The id comes from the external auth
// provider, so rows are created on first sight rather than via signup.
type User struct {
	ID                 string    `gorm:"primaryKey;type:uuid" json:"id"`
	DisplayName        string    `gorm:"type:text;default:User" json:"display_name"`
	ProfilePictureURL  string    `gorm:"type:text" json:"profile_picture_url,omitempty"`
	SubscriptionStatus string    `gorm:"type:text;default:free" json:"subscription_status"`
	SubscriptionPlan   string    `gorm:"type:text;default:free" json:"subscription_plan"`
	LastSelectedModel  string    `gorm:"type:text" json:"last_selected_model,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserUpdateRequest is the request structure for patching a user profile
type UserUpdateRequest struct {
	DisplayName       *string `json:"display_name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	LastSelectedModel *string `json:"last_selected_model"`
}
