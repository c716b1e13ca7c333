package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/yukikurage/kanban-api/internal/config"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/handlers"
	"github.com/yukikurage/kanban-api/internal/realtime"
	"github.com/yukikurage/kanban-api/internal/repository"
	"github.com/yukikurage/kanban-api/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kanban-api",
		Short:         "Project and task management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := setup()
				return err
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the demo accounts",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := setup(); err != nil {
					return err
				}
				return database.Seed(database.GetDB())
			},
		},
	)

	return root
}

// setup loads configuration, installs the logger and brings the schema up
// to date.
func setup() (*config.Config, error) {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	if err := database.Connect(cfg); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)
	db := database.GetDB()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	labelRepo := repository.NewLabelRepository(db)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		slog.Info("OPENAI_API_KEY not set, task generation disabled")
	}

	tokens := services.NewTokenService(tokenRepo, cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	access := services.NewAccessService(projectRepo, boardRepo, taskRepo)
	activities := services.NewActivityService(repository.NewActivityRepository(db), access, hub)

	deps := handlers.Dependencies{
		Auth:           services.NewAuthService(userRepo, tokenRepo, tokens, services.NewMailer(cfg.SMTP), cfg.AppURL),
		Tokens:         tokens,
		Access:         access,
		Projects:       services.NewProjectService(projectRepo, userRepo, access),
		Boards:         services.NewBoardService(boardRepo, access),
		Tasks:          services.NewTaskService(taskRepo, boardRepo, labelRepo, userRepo, access, activities, aiService),
		Subtasks:       services.NewSubtaskService(repository.NewSubtaskRepository(db), access, activities),
		Comments:       services.NewCommentService(repository.NewCommentRepository(db), access, activities),
		Labels:         services.NewLabelService(labelRepo, access),
		Activities:     activities,
		Dashboard:      services.NewDashboardService(projectRepo, repository.NewStatsRepository(db)),
		Hub:            hub,
		AllowedOrigins: cfg.CORSOrigins,
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		slog.Error("failed to create session store", slog.String("error", err.Error()))
		return err
	}

	r := gin.Default()
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	handlers.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newCORS(cfg.CORSOrigins).Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// newSessionStore uses Redis when REDIS_HOST is set and signed cookies
// otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.RedisHost == "" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	store, err := redisStore.NewStore(10, "tcp", cfg.RedisHost+":"+cfg.RedisPort, "", []byte(cfg.SessionSecret))
	if err != nil {
		return nil, err
	}
	store.Options(options)
	return store, nil
}

func newCORS(origins []string) *cors.Cors {
	allowAll := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
	options := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-Requested-With"},
		AllowCredentials: !allowAll,
	}
	if allowAll {
		options.AllowedOrigins = []string{"*"}
	} else {
		options.AllowedOrigins = origins
	}
	return cors.New(options)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
