// Package interview validates interview selections and forwards them to the
// remote session API.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/session"
)

// ErrInvalidSelection is returned for a value outside the catalogue.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the accepted value of one picker step.
type Selection struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Label string `json:"label"`
	// Forwarded is false when the session API could not be reached.
	Forwarded bool `json:"forwarded"`
}

type Service struct {
	api    session.API
	logger logger.Logger
}

func NewService(api session.API, log logger.Logger) *Service {
	return &Service{api: api, logger: log}
}

// Login forwards credentials; unlike selections a failure is returned.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*session.Response, error) {
	resp, err := s.api.Login(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("Login failed", logger.Error(err))
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return resp, nil
}

func (s *Service) SelectRole(ctx context.Context, role string) (*Selection, error) {
	canonical, ok := models.IsKnownRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSelection, role)
	}
	sel := &Selection{Field: "role", Value: canonical, Label: canonical}
	sel.Forwarded = s.forward(ctx, sel, s.api.SetRole)
	return sel, nil
}

func (s *Service) SelectExperience(ctx context.Context, experience string) (*Selection, error) {
	value := strings.TrimSpace(experience)
	label, ok := models.ExperienceLevels[value]
	if !ok {
		return nil, fmt.Errorf("%w: unknown experience level %q", ErrInvalidSelection, experience)
	}
	sel := &Selection{Field: "experience", Value: value, Label: label}
	sel.Forwarded = s.forward(ctx, sel, s.api.SetExperience)
	return sel, nil
}

func (s *Service) SelectDifficulty(ctx context.Context, difficulty string) (*Selection, error) {
	value := strings.ToLower(strings.TrimSpace(difficulty))
	label, ok := models.Difficulties[value]
	if !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSelection, difficulty)
	}
	sel := &Selection{Field: "difficulty", Value: value, Label: label}
	sel.Forwarded = s.forward(ctx, sel, s.api.SetDifficulty)
	return sel, nil
}

// forward sends the selection; failures are logged and do not block the caller.
func (s *Service) forward(ctx context.Context, sel *Selection, send func(context.Context, string) (*session.Response, error)) bool {
	if _, err := send(ctx, sel.Value); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to forward selection",
			logger.String("field", sel.Field),
			logger.String("value", sel.Value),
			logger.Error(err),
		)
		return false
	}
	return true
}

type Interviewer interface {
	Login(ctx context.Context, creds models.Credentials) (*session.Response, error)
	SelectRole(ctx context.Context, role string) (*Selection, error)
	SelectExperience(ctx context.Context, experience string) (*Selection, error)
	SelectDifficulty(ctx context.Context, difficulty string) (*Selection, error)
}
