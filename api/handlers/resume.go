package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/api/middleware"
	"github.com/feichai0017/interview-practice/internal/agent"
	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/internal/service/resume"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

type ResumeHandler struct {
	service resume.ResumeProcessor
	logger  logger.Logger
}

type ProcessResponse struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	FileSize  int64  `json:"fileSize"`
	FileType  string `json:"fileType"`
	CreatedAt string `json:"createdAt"`
}

type ExtractResponse struct {
	Text        string               `json:"text"`
	PagesTotal  int                  `json:"pagesTotal"`
	PagesFailed int                  `json:"pagesFailed"`
	Pages       []models.PageSegment `json:"pages"`
	DurationMs  int64                `json:"durationMs"`
}

func NewResumeHandler(service resume.ResumeProcessor, log logger.Logger) *ResumeHandler {
	return &ResumeHandler{service: service, logger: log}
}

// Extract runs the extraction inline and returns the text.
func (h *ResumeHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc := models.RawDocument{
		Filename:  header.Filename,
		MediaType: agent.DeclaredMediaType(header.Header.Get("Content-Type"), header.Filename),
		Size:      header.Size,
		Body:      file,
	}

	result, err := h.service.ExtractResume(c.Request.Context(), middleware.SessionID(c), doc)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to extract resume", err)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		Text:        result.Text,
		PagesTotal:  result.PagesTotal,
		PagesFailed: result.PagesFailed,
		Pages:       result.Pages,
		DurationMs:  result.Duration.Milliseconds(),
	})
}

// Progress reports the session's inline extraction progress.
func (h *ResumeHandler) Progress(c *gin.Context) {
	progress, _ := h.service.Progress(middleware.SessionID(c))
	c.JSON(http.StatusOK, progress)
}

// Upload stores the file and queues its extraction.
func (h *ResumeHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	task, err := h.service.SubmitResume(c.Request.Context(), middleware.SessionID(c), file, header)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to submit resume", err)
		return
	}

	c.JSON(http.StatusAccepted, processResponse(task))
}

func (h *ResumeHandler) Batch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		handleError(c, h.logger, http.StatusBadRequest, "No files provided", nil)
		return
	}

	tasks, err := h.service.SubmitBatch(c.Request.Context(), middleware.SessionID(c), files)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to submit resumes", err)
		return
	}

	responses := make([]ProcessResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = processResponse(task)
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Processing %d resumes", len(tasks)),
		"tasks":   responses,
	})
}

func processResponse(task *models.ProcessingTask) ProcessResponse {
	filename := task.Metadata["filename"]
	size, _ := strconv.ParseInt(task.Metadata["size"], 10, 64)
	return ProcessResponse{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Filename:  filename,
		FileSize:  size,
		FileType:  filepath.Ext(filename),
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ResumeHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.GetProcessingStatus(c.Request.Context(), taskID)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":    task.ID,
		"status":    string(task.Status),
		"stage":     string(task.Stage),
		"progress":  task.Progress,
		"error":     task.Error,
		"errorKind": task.ErrorKind,
		"createdAt": task.CreatedAt.Format(time.RFC3339),
		"updatedAt": task.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *ResumeHandler) GetResult(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	result, err := h.service.GetProcessedResume(c.Request.Context(), taskID)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to get result", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ResumeHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

// GetText returns the last resume text extracted in this session.
func (h *ResumeHandler) GetText(c *gin.Context) {
	text, err := h.service.GetResumeText(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to get resume text", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}
