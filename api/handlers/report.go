package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/internal/service/report"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

type ReportHandler struct {
	service report.Generator
	logger  logger.Logger
}

func NewReportHandler(service report.Generator, log logger.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: log}
}

// Score returns the overall score, deriving it from the breakdown when unset.
func (h *ReportHandler) Score(c *gin.Context) {
	var card models.Scorecard
	if err := c.ShouldBindJSON(&card); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid score request", err)
		return
	}

	card.Overall = h.service.Score(c.Request.Context(), &card)
	c.JSON(http.StatusOK, card)
}

// Generate renders the report and sends it as a download.
func (h *ReportHandler) Generate(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid report request", err)
		return
	}

	artifact, err := h.service.Generate(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", artifact.Name))
	c.Header("X-Report-Pages", strconv.Itoa(artifact.Pages))
	c.Data(http.StatusOK, "application/pdf", artifact.Data)
}
