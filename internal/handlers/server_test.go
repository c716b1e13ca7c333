package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/realtime"
	"github.com/yukikurage/kanban-api/internal/repository"
	"github.com/yukikurage/kanban-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingMailer keeps password reset links instead of sending them
type recordingMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *recordingMailer) SendPasswordReset(_, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *recordingMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		return ""
	}
	return m.urls[len(m.urls)-1]
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	deps   Dependencies
	mailer *recordingMailer
}

func setupTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(models.All()...))
	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	labelRepo := repository.NewLabelRepository(db)

	hub := realtime.NewHub()
	mailer := &recordingMailer{}

	access := services.NewAccessService(projectRepo, boardRepo, taskRepo)
	activities := services.NewActivityService(repository.NewActivityRepository(db), access, hub)
	tokens := services.NewTokenService(tokenRepo, "test-jwt-secret", time.Hour)

	deps := Dependencies{
		Auth:           services.NewAuthService(userRepo, tokenRepo, tokens, mailer, "http://localhost:5173"),
		Tokens:         tokens,
		Access:         access,
		Projects:       services.NewProjectService(projectRepo, userRepo, access),
		Boards:         services.NewBoardService(boardRepo, access),
		Tasks:          services.NewTaskService(taskRepo, boardRepo, labelRepo, userRepo, access, activities, nil),
		Subtasks:       services.NewSubtaskService(repository.NewSubtaskRepository(db), access, activities),
		Comments:       services.NewCommentService(repository.NewCommentRepository(db), access, activities),
		Labels:         services.NewLabelService(labelRepo, access),
		Activities:     activities,
		Dashboard:      services.NewDashboardService(projectRepo, repository.NewStatsRepository(db)),
		Hub:            hub,
		AllowedOrigins: []string{"*"},
	}

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	RegisterRoutes(r, deps)

	return testServer{db: db, router: r, deps: deps, mailer: mailer}
}

// createUser stores a user with password "password" and returns a bearer token for it
func (s testServer) createUser(t *testing.T, name string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, s.db.Create(user).Error)

	token, err := s.deps.Tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

func (s testServer) addMember(t *testing.T, projectID, userID uint64, role models.MemberRole) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  time.Now(),
	}).Error)
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the "data" member of a response body into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
