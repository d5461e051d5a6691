package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleGetSubtasks(c *gin.Context)
	HandleCreateSubtask(c *gin.Context)
	HandleUpdateSubtask(c *gin.Context)
	HandleDeleteSubtask(c *gin.Context)

	HandleGetSubmissions(c *gin.Context)
	HandleRecordSubmission(c *gin.Context)
	HandleUploadSubmission(c *gin.Context)
	HandleDownloadSubmission(c *gin.Context)
	HandleDownloadFile(c *gin.Context)

	HandleGetStats(c *gin.Context)
}

type Options struct {
	// MaxUploadSize caps the multipart body of an upload, in bytes.
	MaxUploadSize int64
	// PublicDownloads makes file_url point at the unauthenticated
	// by-filename route.
	PublicDownloads bool
	// DisableAdminSignup rejects /register requests asking for the admin
	// role.
	DisableAdminSignup bool
}

type handlerImpl struct {
	logger      zerolog.Logger
	tokens      services.TokenService
	auth        services.AuthService
	tasks       services.TaskService
	subtasks    services.SubtaskService
	submissions services.SubmissionService
	stats       services.StatsService
	opts        Options
}

func New(
	logger zerolog.Logger,
	tokenService services.TokenService,
	authService services.AuthService,
	taskService services.TaskService,
	subtaskService services.SubtaskService,
	submissionService services.SubmissionService,
	statsService services.StatsService,
	opts Options,
) Handler {
	return &handlerImpl{
		logger:      logger,
		tokens:      tokenService,
		auth:        authService,
		tasks:       taskService,
		subtasks:    subtaskService,
		submissions: submissionService,
		stats:       statsService,
		opts:        opts,
	}
}

// RegisterRoutes mounts every endpoint on router. The by-filename
// download is only mounted when public downloads are enabled.
func RegisterRoutes(router gin.IRouter, h Handler, opts Options) {
	router.POST("/register", h.HandleRegister)
	router.POST("/login", h.HandleLogin)
	if opts.PublicDownloads {
		router.GET("/entregas/:filename", h.HandleDownloadFile)
	}

	authorized := router.Group("", h.HandleAuthMiddleware)
	adminOnly := RequireRole(models.RoleAdmin)

	authorized.GET("/stats", h.HandleGetStats)

	tasks := authorized.Group("/tasks")
	tasks.POST("", adminOnly, h.HandleCreateTask)
	tasks.GET("", h.HandleGetTasks)
	tasks.PUT("/:id", adminOnly, h.HandleUpdateTask)
	tasks.PATCH("/:id/status", h.HandleSetTaskStatus)
	tasks.DELETE("/:id", adminOnly, h.HandleDeleteTask)

	tasks.GET("/:id/subtasks", h.HandleGetSubtasks)
	tasks.POST("/:id/subtasks", adminOnly, h.HandleCreateSubtask)
	tasks.PUT("/:id/subtasks/:subtaskId", adminOnly, h.HandleUpdateSubtask)
	tasks.DELETE("/:id/subtasks/:subtaskId", adminOnly, h.HandleDeleteSubtask)

	tasks.GET("/:id/entregas", h.HandleGetSubmissions)
	tasks.POST("/:id/entregas", h.HandleRecordSubmission)
	tasks.POST("/:id/entregas/file", h.HandleUploadSubmission)
	tasks.GET("/:id/entregas/:userId/archivo", h.HandleDownloadSubmission)
}
