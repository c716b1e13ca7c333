package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/repository"
	"github.com/yukikurage/kanban-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("the provided credentials are incorrect")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrInvalidResetToken    = errors.New("this password reset token is invalid")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    *TokenService
	mailer    Mailer
	appURL    string
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens *TokenService, mailer Mailer, appURL string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		mailer:    mailer,
		appURL:    strings.TrimRight(appURL, "/"),
		now:       time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// Register creates a new user and issues a bearer token.
func (s *AuthService) Register(input RegisterInput) (*models.User, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, "", invalid("name", "name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, "", invalid("email", "email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	role := input.Role
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleInstructor:
	default:
		return nil, "", invalid("role", "role must be instructor or student")
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, "", invalid("email", "the email has already been taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", ErrFailedToCreateUser
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the user with a fresh token.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout revokes the token the request was authenticated with, if any.
func (s *AuthService) Logout(tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return s.tokens.Revoke(tokenID)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// SendResetLink stores a reset token for the email and mails it. Unknown
// emails are silently ignored so the response does not reveal accounts.
func (s *AuthService) SendResetLink(email string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateToken(utils.PasswordResetTokenBytes)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.tokenRepo.SavePasswordReset(&models.PasswordReset{
		Email:     user.Email,
		TokenHash: string(hash),
		CreatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s?email=%s", s.appURL, token, url.QueryEscape(user.Email))
	if err := s.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		slog.Error("failed to send password reset email",
			slog.Uint64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// ResetPasswordInput holds a reset token and the new password
type ResetPasswordInput struct {
	Email    string
	Token    string
	Password string
}

// ResetPassword sets a new password using a valid reset token. The token is
// consumed and every access token of the user is revoked.
func (s *AuthService) ResetPassword(input ResetPasswordInput) error {
	if len(input.Password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	email := normalizeEmail(input.Email)
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	reset, err := s.tokenRepo.FindPasswordReset(user.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find reset token: %w", err)
	}

	if !s.now().Before(reset.CreatedAt.Add(constants.PasswordResetTTL)) {
		_ = s.tokenRepo.DeletePasswordReset(user.Email)
		return ErrInvalidResetToken
	}
	if err := bcrypt.CompareHashAndPassword([]byte(reset.TokenHash), []byte(input.Token)); err != nil {
		return ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.userRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.tokenRepo.DeletePasswordReset(user.Email); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	return s.tokens.RevokeAll(user.ID)
}

// SearchUsers finds users by name or email, excluding the searcher
func (s *AuthService) SearchUsers(userID uint64, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < constants.MinUserSearchQuery {
		return nil, invalid("query", fmt.Sprintf("query must be at least %d characters", constants.MinUserSearchQuery))
	}
	if limit <= 0 || limit > constants.UserSearchMax {
		limit = constants.UserSearchMax
	}

	users, err := s.userRepo.Search(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
