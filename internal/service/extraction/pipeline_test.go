package extraction

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/interview-practice/internal/agent/document"
	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

// fakeParser serves pages from memory; pages listed in failPages cannot be read.
type fakeParser struct {
	pages     []string
	failPages map[int]bool
	openErr   error
	opened    []byte
}

func (p *fakeParser) CanProcess(mimeType string) bool {
	return mimeType == models.PDFMediaType
}

func (p *fakeParser) Open(_ context.Context, data []byte) (document.Document, error) {
	p.opened = data
	if p.openErr != nil {
		return nil, p.openErr
	}
	return &fakeDocument{parser: p}, nil
}

func (p *fakeParser) Close() error { return nil }

type fakeDocument struct {
	parser *fakeParser
}

func (d *fakeDocument) NumPages() int { return len(d.parser.pages) }

func (d *fakeDocument) PageText(_ context.Context, page int) (string, error) {
	if d.parser.failPages[page] {
		return "", &document.PageError{Page: page, Reason: "bad content stream"}
	}
	return d.parser.pages[page-1], nil
}

type progressLog struct {
	mu     sync.Mutex
	events []models.ExtractionProgress
}

func (l *progressLog) observe(p models.ExtractionProgress) {
	l.mu.Lock()
	l.events = append(l.events, p)
	l.mu.Unlock()
}

func pdfDoc(data string) models.RawDocument {
	doc := models.NewRawDocument([]byte(data), models.PDFMediaType)
	doc.Filename = "resume.pdf"
	return doc
}

func TestExtract_JoinsPagesAndSkipsFailures(t *testing.T) {
	parser := &fakeParser{
		pages:     []string{"Jane Doe, Go engineer", "", "broken", "  Built a job queue  "},
		failPages: map[int]bool{3: true},
	}
	log := logger.NewTestLogger()
	events := &progressLog{}
	state := models.NewExtractionState(events.observe)

	result, err := NewPipeline(parser, log).Extract(context.Background(), state, pdfDoc("%PDF-1.4 fake"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe, Go engineer\n\n  Built a job queue", result.Text)
	assert.Equal(t, 4, result.PagesTotal)
	assert.Equal(t, 1, result.PagesFailed)
	require.Len(t, result.Pages, 4)
	assert.True(t, result.Pages[2].Failed)
	assert.Equal(t, "bad content stream", result.Pages[2].Reason)
	assert.Equal(t, []byte("%PDF-1.4 fake"), parser.opened)

	snap := state.Snapshot()
	assert.Equal(t, models.StageDone, snap.Stage)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Equal(t, 4, snap.PagesProcessed)
	assert.False(t, state.InFlight())

	assert.Equal(t, 1, log.Count("WARN"))
}

func TestExtract_ProgressIsMonotonic(t *testing.T) {
	parser := &fakeParser{pages: []string{"first page text", "second page text"}}
	events := &progressLog{}
	state := models.NewExtractionState(events.observe)

	_, err := NewPipeline(parser, logger.NewNop()).Extract(context.Background(), state, pdfDoc("%PDF"))
	require.NoError(t, err)

	require.NotEmpty(t, events.events)
	assert.Equal(t, models.StageIdle, events.events[0].Stage)
	assert.Equal(t, 0.0, events.events[0].Progress)

	var stages []models.ExtractionStage
	last := -1.0
	for _, e := range events.events {
		assert.GreaterOrEqual(t, e.Progress, last)
		last = e.Progress
		if len(stages) == 0 || stages[len(stages)-1] != e.Stage {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []models.ExtractionStage{
		models.StageIdle,
		models.StageReading,
		models.StageParsing,
		models.StageExtracting,
		models.StageValidating,
		models.StageDone,
	}, stages)

	// 60 + 1/2*35 after the first page, 95 after the last; validating does not lower it.
	var extracting []float64
	for _, e := range events.events {
		switch e.Stage {
		case models.StageExtracting:
			extracting = append(extracting, e.Progress)
		case models.StageValidating:
			assert.Equal(t, 95.0, e.Progress)
		}
	}
	assert.Equal(t, []float64{60, 77.5, 95}, extracting)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		parser   *fakeParser
		doc      models.RawDocument
		opts     []Option
		kind     Kind
		message  string
		progress float64
	}{
		{
			name:    "wrong media type",
			parser:  &fakeParser{pages: []string{"plenty of text here"}},
			doc:     models.NewRawDocument([]byte("hello"), "text/plain"),
			kind:    KindInvalidInput,
			message: "Only PDF allowed",
		},
		{
			name:    "declared size too large",
			parser:  &fakeParser{pages: []string{"plenty of text here"}},
			doc:     models.RawDocument{MediaType: models.PDFMediaType, Size: models.MaxResumeSize + 1, Body: strings.NewReader("x")},
			kind:    KindInvalidInput,
			message: "File too large",
		},
		{
			name:     "body larger than limit",
			parser:   &fakeParser{pages: []string{"plenty of text here"}},
			doc:      models.RawDocument{MediaType: models.PDFMediaType, Size: -1, Body: bytes.NewReader(make([]byte, 11))},
			opts:     []Option{WithMaxFileSize(10)},
			kind:     KindInvalidInput,
			message:  "File too large",
			progress: 20,
		},
		{
			name:     "empty",
			parser:   &fakeParser{pages: []string{"plenty of text here"}},
			doc:      pdfDoc(""),
			kind:     KindEmptyDocument,
			message:  "File is empty. Please upload a valid PDF.",
			progress: 20,
		},
		{
			name:     "corrupted",
			parser:   &fakeParser{openErr: &document.OpenError{Kind: document.OpenCorrupted, Message: "xref missing"}},
			doc:      pdfDoc("%PDF-garbage"),
			kind:     KindOpenCorrupted,
			message:  "PDF file appears to be corrupted. Try re-saving it.",
			progress: 40,
		},
		{
			name:     "worker unavailable",
			parser:   &fakeParser{openErr: &document.OpenError{Kind: document.OpenWorkerUnavailable, Message: "busy"}},
			doc:      pdfDoc("%PDF"),
			kind:     KindOpenWorkerUnavailable,
			message:  "PDF parser is unavailable right now. Please try again.",
			progress: 40,
		},
		{
			name:     "unknown open failure keeps raw message",
			parser:   &fakeParser{openErr: &document.OpenError{Kind: document.OpenUnknown, Message: "unsupported filter JBIG2"}},
			doc:      pdfDoc("%PDF"),
			kind:     KindOpenUnknown,
			message:  "Failed to read PDF: unsupported filter JBIG2. Try 'Build Resume' instead.",
			progress: 40,
		},
		{
			name:     "no pages",
			parser:   &fakeParser{},
			doc:      pdfDoc("%PDF"),
			kind:     KindNoPages,
			message:  "PDF has no pages. Please upload a valid PDF.",
			progress: 40,
		},
		{
			name:     "too little text",
			parser:   &fakeParser{pages: []string{"  short  ", ""}},
			doc:      pdfDoc("%PDF"),
			kind:     KindInsufficientText,
			progress: 95,
		},
		{
			name:     "every page failed",
			parser:   &fakeParser{pages: []string{"a", "b"}, failPages: map[int]bool{1: true, 2: true}},
			doc:      pdfDoc("%PDF"),
			kind:     KindInsufficientText,
			progress: 95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewExtractionState(nil)
			result, err := NewPipeline(tt.parser, logger.NewNop(), tt.opts...).Extract(context.Background(), state, tt.doc)
			require.Error(t, err)
			assert.Nil(t, result)

			var extErr *Error
			require.True(t, errors.As(err, &extErr))
			assert.Equal(t, tt.kind, extErr.Kind)
			if tt.message != "" {
				assert.Equal(t, tt.message, extErr.Message)
			}

			snap := state.Snapshot()
			assert.Equal(t, models.StageFailed, snap.Stage)
			assert.Equal(t, tt.progress, snap.Progress)
			assert.False(t, state.InFlight())
		})
	}
}

func TestExtract_UnclassifiedOpenError(t *testing.T) {
	parser := &fakeParser{openErr: errors.New("boom")}
	_, err := NewPipeline(parser, logger.NewNop()).Extract(context.Background(), models.NewExtractionState(nil), pdfDoc("%PDF"))
	assert.Equal(t, KindOpenUnknown, KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestExtract_RejectsConcurrentUseOfState(t *testing.T) {
	parser := &fakeParser{pages: []string{"plenty of text here"}}
	state := models.NewExtractionState(nil)
	require.True(t, state.Begin())

	_, err := NewPipeline(parser, logger.NewNop()).Extract(context.Background(), state, pdfDoc("%PDF"))
	assert.ErrorIs(t, err, ErrExtractionInFlight)
	assert.True(t, state.InFlight())

	state.End()
	result, err := NewPipeline(parser, logger.NewNop()).Extract(context.Background(), state, pdfDoc("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "plenty of text here", result.Text)
}

func TestWithMaxFileSize_NeverRaisesLimit(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want int64
	}{
		{"lower", 1024, 1024},
		{"at limit", models.MaxResumeSize, models.MaxResumeSize},
		{"above limit", models.MaxResumeSize + 1, models.MaxResumeSize},
		{"far above limit", 100 * models.MaxResumeSize, models.MaxResumeSize},
		{"zero", 0, models.MaxResumeSize},
		{"negative", -5, models.MaxResumeSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&fakeParser{}, logger.NewNop(), WithMaxFileSize(tt.n))
			assert.Equal(t, tt.want, p.maxFileSize)
		})
	}
}

func TestExtract_OversizedLimitStillRejectsLargeUpload(t *testing.T) {
	parser := &fakeParser{pages: []string{"plenty of text here"}}
	doc := models.RawDocument{
		MediaType: models.PDFMediaType,
		Size:      -1,
		Body:      bytes.NewReader(make([]byte, models.MaxResumeSize+1)),
	}

	_, err := NewPipeline(parser, logger.NewNop(), WithMaxFileSize(10*models.MaxResumeSize)).
		Extract(context.Background(), models.NewExtractionState(nil), doc)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Nil(t, parser.opened)
}

func TestExtract_StateIsResetBetweenCalls(t *testing.T) {
	state := models.NewExtractionState(nil)
	pipeline := NewPipeline(&fakeParser{pages: []string{"plenty of text here"}}, logger.NewNop())

	_, err := pipeline.Extract(context.Background(), state, pdfDoc("%PDF"))
	require.NoError(t, err)
	require.Equal(t, 100.0, state.Snapshot().Progress)

	_, err = pipeline.Extract(context.Background(), state, pdfDoc(""))
	require.Error(t, err)
	assert.Equal(t, 20.0, state.Snapshot().Progress)
}
