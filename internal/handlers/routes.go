package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/middleware"
	"github.com/yukikurage/kanban-api/internal/realtime"
	"github.com/yukikurage/kanban-api/internal/services"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Auth       *services.AuthService
	Tokens     *services.TokenService
	Access     *services.AccessService
	Projects   *services.ProjectService
	Boards     *services.BoardService
	Tasks      *services.TaskService
	Subtasks   *services.SubtaskService
	Comments   *services.CommentService
	Labels     *services.LabelService
	Activities *services.ActivityService
	Dashboard  *services.DashboardService
	Hub        *realtime.Hub

	// Origins allowed to open the realtime socket
	AllowedOrigins []string
}

// RegisterRoutes mounts the API on r. Session middleware must already be
// installed on r.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth)
	projectHandler := NewProjectHandler(deps.Projects)
	boardHandler := NewBoardHandler(deps.Boards)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Comments)
	subtaskHandler := NewSubtaskHandler(deps.Subtasks)
	commentHandler := NewCommentHandler(deps.Comments)
	labelHandler := NewLabelHandler(deps.Labels)
	activityHandler := NewActivityHandler(deps.Activities, deps.Hub, deps.AllowedOrigins)
	dashboardHandler := NewDashboardHandler(deps.Dashboard)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Auth)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/password/email", authHandler.SendResetLink)
			auth.POST("/password/reset", authHandler.ResetPassword)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/users/search", authHandler.SearchUsers)
			protected.GET("/dashboard/stats", dashboardHandler.Stats)

			projects := protected.Group("/projects")
			{
				projects.GET("", projectHandler.ListProjects)
				projects.POST("", projectHandler.CreateProject)
				projects.GET("/:id", projectHandler.GetProject)
				projects.PUT("/:id", projectHandler.UpdateProject)
				projects.DELETE("/:id", projectHandler.DeleteProject)
				projects.POST("/:id/archive", projectHandler.ArchiveProject)
				projects.POST("/:id/unarchive", projectHandler.UnarchiveProject)
				projects.POST("/:id/duplicate", projectHandler.DuplicateProject)

				projects.GET("/:id/members", projectHandler.ListMembers)
				projects.POST("/:id/members", projectHandler.AddMember)
				projects.PUT("/:id/members/:user_id", projectHandler.UpdateMemberRole)
				projects.DELETE("/:id/members/:user_id", projectHandler.RemoveMember)

				projects.GET("/:id/boards", boardHandler.ListBoards)
				projects.POST("/:id/boards", boardHandler.CreateBoard)

				projects.GET("/:id/labels", labelHandler.ListLabels)
				projects.POST("/:id/labels", labelHandler.CreateLabel)
				projects.PUT("/:id/labels/:label_id", labelHandler.UpdateLabel)
				projects.DELETE("/:id/labels/:label_id", labelHandler.DeleteLabel)

				projects.GET("/:id/activities", activityHandler.ProjectActivities)
				projects.GET("/:id/ws", middleware.RequireProjectAccess(deps.Access), activityHandler.Subscribe)
			}

			boards := protected.Group("/boards")
			{
				boards.GET("/:id", boardHandler.GetBoard)
				boards.PUT("/:id", boardHandler.UpdateBoard)
				boards.DELETE("/:id", boardHandler.DeleteBoard)
				boards.POST("/:id/columns", boardHandler.CreateColumn)
				boards.POST("/:id/columns/reorder", boardHandler.ReorderColumns)
			}

			columns := protected.Group("/columns")
			{
				columns.PUT("/:id", boardHandler.UpdateColumn)
				columns.DELETE("/:id", boardHandler.DeleteColumn)
				columns.POST("/:id/tasks/generate", taskHandler.GenerateTasks)
			}

			tasks := protected.Group("/tasks")
			{
				tasks.GET("", taskHandler.ListTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.GET("/:id", taskHandler.GetTask)
				tasks.PUT("/:id", taskHandler.UpdateTask)
				tasks.PATCH("/:id", taskHandler.UpdateTask)
				tasks.DELETE("/:id", taskHandler.DeleteTask)
				tasks.POST("/:id/move", taskHandler.MoveTask)
				tasks.POST("/:id/labels", taskHandler.SyncLabels)

				tasks.GET("/:id/subtasks", subtaskHandler.ListSubtasks)
				tasks.POST("/:id/subtasks", subtaskHandler.CreateSubtask)
				tasks.POST("/:id/subtasks/reorder", subtaskHandler.ReorderSubtasks)
				tasks.PATCH("/:id/subtasks/:subtask_id", subtaskHandler.UpdateSubtask)
				tasks.DELETE("/:id/subtasks/:subtask_id", subtaskHandler.DeleteSubtask)

				tasks.GET("/:id/comments", commentHandler.ListComments)
				tasks.POST("/:id/comments", commentHandler.CreateComment)

				tasks.GET("/:id/activities", activityHandler.TaskActivities)
			}

			comments := protected.Group("/comments")
			{
				comments.PATCH("/:id", commentHandler.UpdateComment)
				comments.DELETE("/:id", commentHandler.DeleteComment)
			}
		}
	}
}
