package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pagesmith/internal/models"
)

const heartbeatInterval = 30 * time.Second

type StartChatRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateStructureRequest struct {
	AnalysisResult *models.AnalysisResult `json:"analysisResult"`
}

type GenerateContentRequest struct {
	FileName       string                 `json:"fileName"`
	AnalysisResult *models.AnalysisResult `json:"analysisResult"`
	FileStructure  *models.FileStructure  `json:"fileStructure"`
}

type GenerateAllRequest struct {
	FileNames []string `json:"fileNames"`
}

type ModifyRequest struct {
	FileName            string `json:"fileName"`
	ModificationRequest string `json:"modificationRequest"`
}

type UpdateSettingsRequest struct {
	Provider string `json:"provider"`
	ModelKey string `json:"modelKey"`
}

// bindOptional decodes a JSON body into v, treating an empty body as {}.
func bindOptional(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// stageContext detaches a stage from the client connection; a disconnect
// does not abort a running stage.
func stageContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) StartChat(c *gin.Context) {
	var req StartChatRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Stages.StartChat(stageContext(c), currentUser(c), req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GenerateStructure(c *gin.Context) {
	var req GenerateStructureRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Stages.GenerateStructure(stageContext(c), currentUser(c), c.Param("sessionId"), req.AnalysisResult)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GenerateContent(c *gin.Context) {
	var req GenerateContentRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Stages.GenerateFile(stageContext(c), currentUser(c), c.Param("sessionId"), req.FileName, req.AnalysisResult, req.FileStructure)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GenerateAll(c *gin.Context) {
	var req GenerateAllRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.deps.Stages.RunPipeline(stageContext(c), currentUser(c), c.Param("sessionId"), req.FileNames)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Modify(c *gin.Context) {
	var req ModifyRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Stages.ModifyFile(stageContext(c), currentUser(c), c.Param("sessionId"), req.FileName, req.ModificationRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.deps.Chats.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// StreamEvents sends the session's workflow events as server-sent events
// until the client disconnects.
func (h *Handler) StreamEvents(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if _, err := h.deps.Chats.Get(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	if h.deps.Broker == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event streaming is disabled", "kind": "internal"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	messages, cancel := h.deps.Broker.Subscribe(sessionID)
	defer cancel()

	c.SSEvent("ready", gin.H{"sessionId": sessionID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.SSEvent(msg.Name, msg.Event)
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.deps.Files.List(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) ReadFile(c *gin.Context) {
	content, err := h.deps.Files.Read(c.Request.Context(), c.Param("projectId"), c.Param("fileName"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(content))
}

func (h *Handler) FileHistory(c *gin.Context) {
	history, err := h.deps.Files.History(c.Request.Context(), c.Param("projectId"), c.Param("fileName"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.deps.Settings.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := h.deps.Settings.Update(c.Request.Context(), currentUser(c), req.Provider, req.ModelKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) ListModels(c *gin.Context) {
	groups, err := h.deps.Catalog.ListModelGroups()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": groups})
}
