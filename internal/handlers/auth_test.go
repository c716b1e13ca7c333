package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/models"
)

type authResponse struct {
	Message string      `json:"message"`
	User    dto.UserDTO `json:"user"`
	Token   string      `json:"token"`
}

func TestAuthHandler_Register(t *testing.T) {
	srv := setupTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "New User",
		"email":    "New.User@Example.com",
		"password": "supersecret",
		"role":     "instructor",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "new.user@example.com", response.User.Email)
	require.Equal(t, models.RoleInstructor, response.User.Role)
	require.NotEmpty(t, response.Token)

	me := srv.do(t, http.MethodGet, "/api/auth/me", response.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
}

func TestAuthHandler_Register_DefaultsToStudent(t *testing.T) {
	srv := setupTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Student",
		"email":    "student@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, models.RoleStudent, response.User.Role)
}

func TestAuthHandler_Register_Rejected(t *testing.T) {
	srv := setupTestServer(t)
	srv.createUser(t, "taken", models.RoleStudent)

	tests := []struct {
		name    string
		payload map[string]string
		status  int
	}{
		{
			name:    "admin role",
			payload: map[string]string{"name": "Eve", "email": "eve@example.com", "password": "supersecret", "role": "admin"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "short password",
			payload: map[string]string{"name": "Eve", "email": "eve@example.com", "password": "short"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "email taken",
			payload: map[string]string{"name": "Eve", "email": "taken@example.com", "password": "supersecret"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "missing email",
			payload: map[string]string{"name": "Eve", "password": "supersecret"},
			status:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/auth/register", "", tt.payload)
			require.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	srv := setupTestServer(t)
	user, _ := srv.createUser(t, "existing", models.RoleStudent)

	w := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.ID, response.User.ID)
	require.NotEmpty(t, response.Token)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	// the session cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	srv.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	srv := setupTestServer(t)
	user, _ := srv.createUser(t, "existing", models.RoleStudent)

	w := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, apiErr.Code)
}

func TestAuthHandler_GetCurrentUser_Unauthenticated(t *testing.T) {
	srv := setupTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout_RevokesToken(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "leaving", models.RoleStudent)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/auth/me", token, nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/auth/logout", token, nil).Code)
	require.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/auth/me", token, nil).Code)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	srv := setupTestServer(t)
	user, oldToken := srv.createUser(t, "forgetful", models.RoleStudent)

	// unknown emails get the same answer and no mail
	w := srv.do(t, http.MethodPost, "/api/auth/password/email", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, srv.mailer.last())

	w = srv.do(t, http.MethodPost, "/api/auth/password/email", "", map[string]string{"email": user.Email})
	require.Equal(t, http.StatusOK, w.Code)

	link, err := url.Parse(srv.mailer.last())
	require.NoError(t, err)
	resetToken := path.Base(link.Path)
	require.Len(t, resetToken, 64)
	require.Equal(t, user.Email, link.Query().Get("email"))

	w = srv.do(t, http.MethodPost, "/api/auth/password/reset", "", map[string]string{
		"email":                 user.Email,
		"token":                 "wrong-token",
		"password":              "brand-new-password",
		"password_confirmation": "brand-new-password",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	reset := map[string]string{
		"email":                 user.Email,
		"token":                 resetToken,
		"password":              "brand-new-password",
		"password_confirmation": "brand-new-password",
	}
	w = srv.do(t, http.MethodPost, "/api/auth/password/reset", "", reset)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// tokens are single use and old sessions are revoked
	w = srv.do(t, http.MethodPost, "/api/auth/password/reset", "", reset)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/auth/me", oldToken, nil).Code)

	w = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_PasswordReset_ConfirmationMismatch(t *testing.T) {
	srv := setupTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/password/reset", "", map[string]string{
		"email":                 "someone@example.com",
		"token":                 "token",
		"password":              "brand-new-password",
		"password_confirmation": "different-password",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_SearchUsers(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "searcher", models.RoleInstructor)
	srv.createUser(t, "alice", models.RoleStudent)
	srv.createUser(t, "alina", models.RoleStudent)
	srv.createUser(t, "bob", models.RoleStudent)

	w := srv.do(t, http.MethodGet, "/api/users/search?query=ali", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users []dto.UserDTO
	decodeData(t, w, &users)
	require.Len(t, users, 2)

	w = srv.do(t, http.MethodGet, "/api/users/search?query=a", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
