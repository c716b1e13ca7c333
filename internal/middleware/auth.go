package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/services"
)

// Session is the authenticated principal of a request. TokenID is empty when
// the request was authenticated by the cookie session.
type Session struct {
	User    models.User
	TokenID string
}

// Actor returns the policy view of the session's user
func (s *Session) Actor() policy.Actor {
	return policy.Actor{UserID: s.User.ID, Role: s.User.Role, Name: s.User.Name}
}

// RequireAuth authenticates the request by bearer token or cookie session
func RequireAuth(tokens *services.TokenService, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint64
		var tokenID string

		if raw, ok := bearerToken(c); ok {
			token, err := tokens.Verify(raw)
			if err != nil {
				if !errors.Is(err, services.ErrInvalidToken) {
					slog.Error("failed to verify token", slog.String("error", err.Error()))
				}
				apierrors.Unauthorized(c, "")
				c.Abort()
				return
			}
			userID = token.UserID
			tokenID = token.ID
		} else {
			id, ok := sessionUserID(sessions.Default(c))
			if !ok {
				apierrors.Unauthorized(c, "")
				c.Abort()
				return
			}
			userID = id
		}

		user, err := authService.GetUser(userID)
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeySession, &Session{User: *user, TokenID: tokenID})
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func sessionUserID(session sessions.Session) (uint64, bool) {
	switch v := session.Get(constants.ContextKeyUserID).(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetSession retrieves the authenticated session from context
func GetSession(c *gin.Context) (*Session, bool) {
	value, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}

// GetActor returns the actor of the authenticated session
func GetActor(c *gin.Context) (policy.Actor, bool) {
	session, ok := GetSession(c)
	if !ok {
		return policy.Actor{}, false
	}
	return session.Actor(), true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
