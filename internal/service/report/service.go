// Package report builds the downloadable interview feedback report.
package report

import (
	"context"
	"fmt"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/internal/service/scoring"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

// Request is the body of a report request.
type Request struct {
	Role           string                     `json:"role"`
	OverallScore   int                        `json:"overallScore"`
	ScoreBreakdown models.ScoreBreakdown      `json:"scoreBreakdown"`
	Chat           []models.TranscriptMessage `json:"chat"`
}

// Scorecard returns the request scores as a card that can be resolved once.
func (r *Request) Scorecard() *models.Scorecard {
	return &models.Scorecard{Breakdown: r.ScoreBreakdown, Overall: r.OverallScore}
}

type Generator interface {
	Score(ctx context.Context, card *models.Scorecard) int
	Generate(ctx context.Context, req *Request) (*Artifact, error)
}

type Service struct {
	engine *Engine
	logger logger.Logger
}

func NewService(engine *Engine, log logger.Logger) *Service {
	return &Service{engine: engine, logger: log}
}

// Score fills in the overall score of the card when it is still unset.
func (s *Service) Score(ctx context.Context, card *models.Scorecard) int {
	before := card.Overall
	overall := scoring.Resolve(card)
	if before != overall {
		logger.FromContext(ctx, s.logger).Debug("Derived overall score",
			logger.Int("overall", overall),
		)
	}
	return overall
}

// Generate resolves the overall score and renders the report.
func (s *Service) Generate(ctx context.Context, req *Request) (*Artifact, error) {
	log := logger.FromContext(ctx, s.logger)

	card := req.Scorecard()
	s.Score(ctx, card)

	artifact, err := s.engine.Render(Input{
		Role:       req.Role,
		Overall:    card.Overall,
		Breakdown:  card.Breakdown,
		Transcript: req.Chat,
	})
	if err != nil {
		log.Error("Report rendering failed", logger.Error(err))
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	log.Info("Report generated",
		logger.String("role", req.Role),
		logger.Int("overall", card.Overall),
		logger.Int("pages", artifact.Pages),
		logger.Int("pairs", artifact.Pairs),
		logger.Int("bytes", len(artifact.Data)),
	)
	return artifact, nil
}
