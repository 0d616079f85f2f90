package service

import (
	"context"
	"testing"
	"time"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) GetByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) Save(user *models.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func TestGetUserNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), cache.Disabled())

	_, err := svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetOrCreateUserCreatesDefaults(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, cache.Disabled())

	user, err := svc.GetOrCreateUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "free", user.SubscriptionStatus)
	assert.Equal(t, "free", user.SubscriptionPlan)

	// Second call returns the existing row
	again, err := svc.GetOrCreateUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)
}

func TestUpdateUserSelfOnly(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["user-1"] = &models.User{ID: "user-1"}
	svc := NewUserService(repo, cache.Disabled())

	name := "New Name"
	_, err := svc.UpdateUser(context.Background(), "user-1", "user-2", models.UserUpdateRequest{DisplayName: &name})
	assert.ErrorIs(t, err, ErrNotProfileOwner)
}

func TestUpdateUserAppliesPartialPatch(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["user-1"] = &models.User{
		ID:                "user-1",
		DisplayName:       "Old",
		ProfilePictureURL: "http://example.com/old.png",
		UpdatedAt:         time.Now().Add(-time.Hour),
	}
	svc := NewUserService(repo, cache.Disabled())

	name := "New Name"
	updated, err := svc.UpdateUser(context.Background(), "user-1", "user-1", models.UserUpdateRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.DisplayName)
	assert.Equal(t, "http://example.com/old.png", updated.ProfilePictureURL)
	assert.WithinDuration(t, time.Now(), updated.UpdatedAt, time.Minute)
}

func TestUpdateUserRejectsUnknownModel(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["user-1"] = &models.User{ID: "user-1"}
	svc := NewUserService(repo, cache.Disabled())

	bad := "not-a-model"
	_, err := svc.UpdateUser(context.Background(), "user-1", "user-1", models.UserUpdateRequest{LastSelectedModel: &bad})
	assert.ErrorIs(t, err, ErrInvalidModel)
}
