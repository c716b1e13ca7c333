package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and verifies bearer tokens. Every token is a signed
// JWT whose jti refers to a persisted AccessToken row, so tokens can be
// revoked before they expire.
type TokenService struct {
	tokenRepo repository.TokenRepository
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(tokenRepo repository.TokenRepository, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue creates and signs a new token for user
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	record := &models.AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.tokenRepo.CreateAccessToken(record); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        record.ID,
		Subject:   fmt.Sprintf("%d", user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and the stored token, returning the token row
func (s *TokenService) Verify(tokenString string) (*models.AccessToken, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	now := s.now()
	record, err := s.tokenRepo.FindActiveAccessToken(claims.ID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	if err := s.tokenRepo.TouchAccessToken(record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to touch token: %w", err)
	}

	return record, nil
}

// Revoke revokes a single token by its id
func (s *TokenService) Revoke(tokenID string) error {
	if err := s.tokenRepo.RevokeAccessToken(tokenID, s.now()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeAll revokes every token of a user
func (s *TokenService) RevokeAll(userID uint64) error {
	if err := s.tokenRepo.RevokeUserTokens(userID, s.now()); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}
