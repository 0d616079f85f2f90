package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/repository"
	"chatbot-api/backend/pkg/cache"
	"chatbot-api/backend/pkg/config"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNotProfileOwner = errors.New("cannot modify another user's profile")
)

// UserService manages profile reads and updates with a read-through cache
type UserService struct {
	repo  repository.UserRepository
	cache *cache.Cache
}

func NewUserService(repo repository.UserRepository, c *cache.Cache) *UserService {
	return &UserService{repo: repo, cache: c}
}

func userCacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// GetUser fetches a profile, serving from cache when possible
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var cached models.User
	if s.cache.GetJSON(ctx, userCacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cache.SetJSON(ctx, userCacheKey(id), user)
	return user, nil
}

// GetOrCreateUser returns the profile for id, creating a default row on
// first sight. Accounts originate in the external auth provider, so the
// first authenticated request is when a profile row comes into existence.
func (s *UserService) GetOrCreateUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:                 id,
		SubscriptionStatus: "free",
		SubscriptionPlan:   "free",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial profile update. Only the profile owner may
// update it.
func (s *UserService) UpdateUser(ctx context.Context, id, callerID string, req models.UserUpdateRequest) (*models.User, error) {
	if id != callerID {
		return nil, ErrNotProfileOwner
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.LastSelectedModel != nil && !config.Get().IsValidModel(*req.LastSelectedModel) {
		return nil, ErrInvalidModel
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.ProfilePictureURL != nil {
		user.ProfilePictureURL = *req.ProfilePictureURL
	}
	if req.LastSelectedModel != nil {
		user.LastSelectedModel = *req.LastSelectedModel
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(user); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, userCacheKey(id))
	return user, nil
}
