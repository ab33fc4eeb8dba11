package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docwatch/internal/domain"
	"docwatch/internal/report"
	"docwatch/internal/service"
)

// RunHandler handles run, report, link and evaluation endpoints.
type RunHandler struct {
	runService    service.RunService
	sourceService service.SourceService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runService service.RunService, sourceService service.SourceService) *RunHandler {
	return &RunHandler{runService: runService, sourceService: sourceService}
}

type startRunRequest struct {
	ObjectKey   string `json:"object_key" binding:"required"`
	NotifyEmail string `json:"notify_email" binding:"omitempty,email"`
}

type linksRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// runKey reads the :key path parameter. Keys containing slashes arrive path-escaped.
func runKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// Start handles POST /api/v1/runs
func (h *RunHandler) Start(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	view, err := h.runService.Start(c.Request.Context(), service.StartRunInput{
		ObjectKey:   req.ObjectKey,
		NotifyEmail: req.NotifyEmail,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, view)
}

// Upload handles POST /api/v1/uploads
func (h *RunHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	src, err := h.sourceService.Upload(c.Request.Context(), service.SourceUploadInput{
		FileName: header.Filename,
		Body:     file,
		Size:     header.Size,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	view, err := h.runService.Start(c.Request.Context(), service.StartRunInput{
		ObjectKey:   src.ObjectKey,
		NotifyEmail: c.PostForm("notify_email"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"source": src, "run": view})
}

// Get handles GET /api/v1/runs/:key
func (h *RunHandler) Get(c *gin.Context) {
	view, err := h.runService.Get(c.Request.Context(), runKey(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Cancel handles DELETE /api/v1/runs/:key
func (h *RunHandler) Cancel(c *gin.Context) {
	key := runKey(c)
	if err := h.runService.Cancel(key); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"object_key": key, "canceled": true})
}

// History handles GET /api/v1/runs/:key/snapshots?limit=N
func (h *RunHandler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	snaps, err := h.runService.History(c.Request.Context(), runKey(c), limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snaps)
}

// Report handles GET /api/v1/runs/:key/report?format=html|pdf|xlsx|csv
func (h *RunHandler) Report(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	art, err := h.runService.Report(c.Request.Context(), runKey(c), format)
	if err != nil {
		HandleError(c, err)
		return
	}

	disposition := "attachment"
	if format == domain.ReportFormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, art.FileName))
	c.Data(http.StatusOK, art.ContentType, art.Body)
}

// Links handles POST /api/v1/links
func (h *RunHandler) Links(c *gin.Context) {
	var req linksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	links, err := h.runService.Links(c.Request.Context(), req.ObjectKey)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, links)
}

// Evaluate handles POST /api/v1/evaluate. The body is a raw status envelope.
func (h *RunHandler) Evaluate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to read request body")
		return
	}
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil || env == nil {
		HandleError(c, domain.ErrInvalidEnvelope)
		return
	}
	RespondOK(c, h.runService.Evaluate(env))
}
