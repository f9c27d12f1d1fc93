package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/feichai0017/interview-practice/internal/agent/document"
	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

// MinTextLength is the shortest trimmed text accepted as a usable extraction.
const MinTextLength = 10

// Progress floors per stage.
const (
	progressReading    = 20
	progressParsing    = 40
	progressExtracting = 60
	progressPageSpan   = 35
	progressValidating = 90
	progressDone       = 100
)

const pageSeparator = "\n\n"

// Pipeline turns uploaded PDF bytes into text, page by page.
type Pipeline struct {
	parser      document.Parser
	logger      logger.Logger
	maxFileSize int64
}

type Option func(*Pipeline)

// WithMaxFileSize lowers the upload limit. Values outside
// (0, models.MaxResumeSize] leave the default in place.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 && n <= models.MaxResumeSize {
			p.maxFileSize = n
		}
	}
}

func NewPipeline(parser document.Parser, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:      parser,
		logger:      log,
		maxFileSize: models.MaxResumeSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract runs one extraction using the caller's state. The state is reset at
// the start, reports progress after every change and is released on return.
// Failures are *Error; ErrExtractionInFlight if the state is busy.
func (p *Pipeline) Extract(ctx context.Context, state *models.ExtractionState, doc models.RawDocument) (*models.ExtractionResult, error) {
	if !state.Begin() {
		return nil, ErrExtractionInFlight
	}
	defer state.End()

	started := time.Now()
	result, err := p.run(ctx, state, doc)
	if err != nil {
		state.Fail()
		p.logger.Warn("Resume extraction failed",
			logger.String("filename", doc.Filename),
			logger.String("kind", string(KindOf(err))),
			logger.Error(err),
		)
		return nil, err
	}

	result.Duration = time.Since(started)
	p.logger.Info("Resume extraction completed",
		logger.String("filename", doc.Filename),
		logger.Int("pages", result.PagesTotal),
		logger.Int("pagesFailed", result.PagesFailed),
		logger.Int("chars", utf8.RuneCountInString(result.Text)),
		logger.Duration("duration", result.Duration),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, state *models.ExtractionState, doc models.RawDocument) (*models.ExtractionResult, error) {
	if err := p.checkInput(doc); err != nil {
		return nil, err
	}

	state.Advance(models.StageReading, progressReading)
	data, err := p.read(doc)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, emptyDocument()
	}

	state.Advance(models.StageParsing, progressParsing)
	opened, err := p.parser.Open(ctx, data)
	if err != nil {
		return nil, openFailure(err)
	}

	total := opened.NumPages()
	if total <= 0 {
		return nil, noPages()
	}
	state.SetPages(total)
	state.Advance(models.StageExtracting, progressExtracting)

	result := &models.ExtractionResult{
		PagesTotal: total,
		Pages:      make([]models.PageSegment, 0, total),
	}
	texts := make([]string, 0, total)

	for page := 1; page <= total; page++ {
		text, err := opened.PageText(ctx, page)
		if err != nil {
			p.logger.Warn("Could not extract text from page",
				logger.String("filename", doc.Filename),
				logger.Int("page", page),
				logger.Error(err),
			)
			result.PagesFailed++
			result.Pages = append(result.Pages, models.PageSegment{Page: page, Failed: true, Reason: pageReason(err)})
		} else {
			result.Pages = append(result.Pages, models.PageSegment{Page: page, Text: text})
			if strings.TrimSpace(text) != "" {
				texts = append(texts, text)
			}
		}

		processed := state.PageDone()
		state.Advance(models.StageExtracting, progressExtracting+float64(processed)/float64(total)*progressPageSpan)
	}

	state.Advance(models.StageValidating, progressValidating)
	joined := strings.TrimSpace(strings.Join(texts, pageSeparator))
	if utf8.RuneCountInString(joined) < MinTextLength {
		return nil, insufficientText()
	}

	result.Text = joined
	state.Advance(models.StageDone, progressDone)
	return result, nil
}

func (p *Pipeline) checkInput(doc models.RawDocument) error {
	if !p.parser.CanProcess(doc.MediaType) {
		return invalidInput("Only PDF allowed")
	}
	if doc.Size > p.maxFileSize {
		return invalidInput("File too large")
	}
	if doc.Body == nil {
		return emptyDocument()
	}
	return nil
}

// read pulls the whole body, stopping one byte past the limit.
func (p *Pipeline) read(doc models.RawDocument) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(doc.Body, p.maxFileSize+1))
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidInput,
			Message: "Could not read the uploaded file.",
			Err:     fmt.Errorf("failed to read upload: %w", err),
		}
	}
	if int64(len(data)) > p.maxFileSize {
		return nil, invalidInput("File too large")
	}
	return data, nil
}

func pageReason(err error) string {
	var pageErr *document.PageError
	if errors.As(err, &pageErr) {
		return pageErr.Reason
	}
	return err.Error()
}
