package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/internal/service/interview"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

type SessionHandler struct {
	service interview.Interviewer
	logger  logger.Logger
}

type selectionRequest struct {
	Role       string `json:"role"`
	Experience string `json:"experience"`
	Difficulty string `json:"difficulty"`
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func NewSessionHandler(service interview.Interviewer, log logger.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: log}
}

func (h *SessionHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Email and password are required", err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), creds)
	if err != nil {
		handleError(c, h.logger, http.StatusBadGateway, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Options lists the catalogues offered by the pickers.
func (h *SessionHandler) Options(c *gin.Context) {
	roles := models.Roles
	if q := c.Query("q"); q != "" {
		roles = models.SearchRoles(q)
	}
	c.JSON(http.StatusOK, gin.H{
		"roles":        roles,
		"experience":   sortedOptions(models.ExperienceLevels),
		"difficulties": sortedOptions(models.Difficulties),
	})
}

func sortedOptions(m map[string]string) []option {
	out := make([]option, 0, len(m))
	for v, l := range m {
		out = append(out, option{Value: v, Label: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func (h *SessionHandler) SetRole(c *gin.Context) {
	h.selection(c, func(req selectionRequest) (*interview.Selection, error) {
		return h.service.SelectRole(c.Request.Context(), req.Role)
	})
}

func (h *SessionHandler) SetExperience(c *gin.Context) {
	h.selection(c, func(req selectionRequest) (*interview.Selection, error) {
		return h.service.SelectExperience(c.Request.Context(), req.Experience)
	})
}

func (h *SessionHandler) SetDifficulty(c *gin.Context) {
	h.selection(c, func(req selectionRequest) (*interview.Selection, error) {
		return h.service.SelectDifficulty(c.Request.Context(), req.Difficulty)
	})
}

func (h *SessionHandler) selection(c *gin.Context, apply func(selectionRequest) (*interview.Selection, error)) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid selection request", err)
		return
	}

	sel, err := apply(req)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid selection", err)
		return
	}
	c.JSON(http.StatusOK, sel)
}
