// Package api exposes the generation stages over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pagesmith/internal/events"
	"pagesmith/internal/models"
	"pagesmith/internal/services"
)

// Stages is the generation surface the handlers drive.
type Stages interface {
	StartChat(ctx context.Context, userID, prompt string) (*services.StartChatResult, error)
	GenerateStructure(ctx context.Context, userID, sessionID string, analysis *models.AnalysisResult) (*services.StructureResult, error)
	GenerateFile(ctx context.Context, userID, sessionID, fileName string, analysis *models.AnalysisResult, structure *models.FileStructure) (*services.FileContentResult, error)
	RunPipeline(ctx context.Context, userID, sessionID string, fileNames []string) (*services.PipelineReport, error)
	ModifyFile(ctx context.Context, userID, sessionID, fileName, instruction string) (*services.ModifyResult, error)
}

type Deps struct {
	Stages   Stages
	Chats    services.ChatService
	Files    services.FileService
	Settings services.SettingsService
	Catalog  services.ModelConfigService
	Broker   *events.Broker

	DefaultUserID string
	// GeneratedDir is served under /generated when set.
	GeneratedDir string
}

type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	if deps.DefaultUserID == "" {
		deps.DefaultUserID = "local"
	}
	return &Handler{deps: deps, logger: logger}
}

// NewRouter builds the engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger), userID(h.deps.DefaultUserID))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := r.Group("/chat")
	{
		chat.POST("/start", h.StartChat)
		chat.GET("/:sessionId", h.GetSession)
		chat.GET("/:sessionId/events", h.StreamEvents)
		chat.POST("/:sessionId/generate-structure", h.GenerateStructure)
		chat.POST("/:sessionId/generate-content", h.GenerateContent)
		chat.POST("/:sessionId/generate-all", h.GenerateAll)
		chat.POST("/:sessionId/modify", h.Modify)
	}

	projects := r.Group("/projects/:projectId/files")
	{
		projects.GET("", h.ListFiles)
		projects.GET("/:fileName", h.ReadFile)
		projects.GET("/:fileName/history", h.FileHistory)
	}

	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.GET("/models", h.ListModels)

	if h.deps.GeneratedDir != "" {
		r.Static("/"+models.GeneratedFilesRoot, h.deps.GeneratedDir)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "kind": "not_found"})
	})
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
