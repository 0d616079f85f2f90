package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing authorization credentials")
	ErrInvalidToken   = errors.New("invalid token or signature")
	ErrExpiredToken   = errors.New("token has expired")
	ErrMissingSubject = errors.New("invalid user information in token")
)

// UserInfo holds the identity extracted from a verified token.
type UserInfo struct {
	ID     string
	Email  string
	Claims map[string]any
}

// Claims represents the claims carried by an auth provider token
type Claims struct {
	Email        string         `json:"email,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Service verifies bearer tokens issued by the auth provider
type Service struct {
	secretKey string
	audience  string
}

// NewService creates a new JWT service
func NewService(secretKey, audience string) *Service {
	if audience == "" {
		audience = "authenticated"
	}
	return &Service{
		secretKey: secretKey,
		audience:  audience,
	}
}

// Verify validates a bearer token and extracts the user identity from it.
// The subject claim is required; email and metadata default to empty.
func (s *Service) Verify(tokenString string) (*UserInfo, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(s.secretKey), nil
		},
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	metadata := claims.UserMetadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &UserInfo{
		ID:     claims.Subject,
		Email:  claims.Email,
		Claims: metadata,
	}, nil
}

// GenerateToken mints a token the way the auth provider would. Used by
// tests and local tooling; production tokens come from the provider itself.
func (s *Service) GenerateToken(userID, email string, metadata map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:        email,
		UserMetadata: metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}
