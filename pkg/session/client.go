// Package session talks to the remote interview session API.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/feichai0017/interview-practice/pkg/logger"
)

// Header carries the interview session id on every forwarded request.
const Header = "X-Session-ID"

// Preview defaults used when the resume is sent ahead of an interview.
const (
	PreviewRole        = "Software Engineer"
	PreviewExperience  = "2-3"
	PreviewDifficulty  = "Medium"
	PreviewUserMessage = "start"
)

// Response is the common envelope returned by the session API.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

type PreviewRequest struct {
	Role                string          `json:"role"`
	Experience          string          `json:"experience"`
	Difficulty          string          `json:"difficulty"`
	ResumeText          string          `json:"resume_text"`
	UserMessage         string          `json:"user_message"`
	ConversationHistory json.RawMessage `json:"conversation_history"`
}

type PreviewResponse struct {
	Success       bool     `json:"success"`
	ResumeSummary string   `json:"resume_summary,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Projects      []string `json:"projects,omitempty"`
	Experience    string   `json:"experience,omitempty"`
	FirstQuestion string   `json:"first_question,omitempty"`
}

// StatusError is returned for a non-2xx reply.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

type API interface {
	Login(ctx context.Context, email, password string) (*Response, error)
	SetRole(ctx context.Context, role string) (*Response, error)
	SetExperience(ctx context.Context, experience string) (*Response, error)
	SetDifficulty(ctx context.Context, difficulty string) (*Response, error)
	PreviewInterview(ctx context.Context, resumeText string) (*PreviewResponse, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*Response, error) {
	var resp Response
	err := c.post(ctx, "/login", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetRole(ctx context.Context, role string) (*Response, error) {
	return c.set(ctx, "/set-role", "role", role)
}

func (c *Client) SetExperience(ctx context.Context, experience string) (*Response, error) {
	return c.set(ctx, "/set-experience", "experience", experience)
}

func (c *Client) SetDifficulty(ctx context.Context, difficulty string) (*Response, error) {
	return c.set(ctx, "/set-difficulty", "difficulty", difficulty)
}

// PreviewInterview sends freshly extracted resume text with the preview defaults.
func (c *Client) PreviewInterview(ctx context.Context, resumeText string) (*PreviewResponse, error) {
	req := PreviewRequest{
		Role:                PreviewRole,
		Experience:          PreviewExperience,
		Difficulty:          PreviewDifficulty,
		ResumeText:          resumeText,
		UserMessage:         PreviewUserMessage,
		ConversationHistory: json.RawMessage("null"),
	}
	var resp PreviewResponse
	if err := c.post(ctx, "/preview-interview", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) set(ctx context.Context, path, field, value string) (*Response, error) {
	var resp Response
	if err := c.post(ctx, path, map[string]string{field: value}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	reqData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := logger.SessionID(ctx); id != "" {
		req.Header.Set(Header, id)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Session API call",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respData))}
	}
	if len(bytes.TrimSpace(respData)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
