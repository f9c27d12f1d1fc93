package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/internal/service/extraction"
	"github.com/feichai0017/interview-practice/internal/service/interview"
	"github.com/feichai0017/interview-practice/internal/service/report"
	"github.com/feichai0017/interview-practice/internal/service/resume"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

type Handlers struct {
	Resume  *ResumeHandler
	Report  *ReportHandler
	Session *SessionHandler
}

func NewHandlers(
	resumeService resume.ResumeProcessor,
	reportService report.Generator,
	interviewService interview.Interviewer,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Resume:  NewResumeHandler(resumeService, log.Named("resume")),
		Report:  NewReportHandler(reportService, log.Named("report")),
		Session: NewSessionHandler(interviewService, log.Named("session")),
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleError writes the response for err. Extraction failures carry their
// own kind and user message; everything else uses message.
func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	response := ErrorResponse{Error: http.StatusText(status), Message: message}

	var extErr *extraction.Error
	switch {
	case errors.As(err, &extErr):
		status = http.StatusUnprocessableEntity
		response = ErrorResponse{Error: string(extErr.Kind), Message: extErr.Message}
	case errors.Is(err, extraction.ErrExtractionInFlight):
		status = http.StatusConflict
		response = ErrorResponse{Error: "ExtractionInFlight", Message: err.Error()}
	case errors.Is(err, resume.ErrTaskNotFound), errors.Is(err, resume.ErrNoResumeText):
		status = http.StatusNotFound
		response.Error = http.StatusText(status)
	case errors.Is(err, resume.ErrTaskNotCompleted):
		status = http.StatusConflict
		response.Error = http.StatusText(status)
	case errors.Is(err, interview.ErrInvalidSelection):
		status = http.StatusBadRequest
		response.Error = http.StatusText(status)
	}

	l := logger.FromContext(c.Request.Context(), log)
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		l.Error(message, fields...)
	} else {
		l.Warn(message, fields...)
	}

	c.AbortWithStatusJSON(status, response)
}
