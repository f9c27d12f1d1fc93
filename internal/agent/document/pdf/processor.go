package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/interview-practice/internal/agent/document"
	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

// DefaultMaxWorkers bounds concurrent parse work across all sessions.
const DefaultMaxWorkers = 4

// Processor adapts github.com/ledongthuc/pdf to document.Parser.
type Processor struct {
	logger logger.Logger
	sem    chan struct{}
}

func NewProcessor(log logger.Logger, maxWorkers int) *Processor {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Processor{
		logger: log,
		sem:    make(chan struct{}, maxWorkers),
	}
}

func (p *Processor) CanProcess(mimeType string) bool {
	return strings.EqualFold(mimeType, models.PDFMediaType)
}

// Open parses data. The reader panics on some malformed inputs, so both the
// open and every page read run behind recover.
func (p *Processor) Open(ctx context.Context, data []byte) (doc document.Document, err error) {
	if err := p.acquire(ctx); err != nil {
		return nil, &document.OpenError{
			Kind:    document.OpenWorkerUnavailable,
			Message: "no PDF parser available",
			Err:     err,
		}
	}
	defer p.release()

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &document.OpenError{
				Kind:    document.OpenCorrupted,
				Message: fmt.Sprintf("%v", r),
			}
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, openErr := pdf.NewReader(reader, reader.Size())
	if openErr != nil {
		return nil, &document.OpenError{
			Kind:    classifyOpenError(openErr),
			Message: openErr.Error(),
			Err:     openErr,
		}
	}

	return &pdfDocument{processor: p, reader: pdfReader}, nil
}

func (p *Processor) Close() error {
	return nil
}

func (p *Processor) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) release() { <-p.sem }

type pdfDocument struct {
	processor *Processor
	reader    *pdf.Reader
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(ctx context.Context, pageNum int) (text string, err error) {
	if err := d.processor.acquire(ctx); err != nil {
		return "", &document.PageError{Page: pageNum, Reason: "parser unavailable", Err: err}
	}
	defer d.processor.release()

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &document.PageError{Page: pageNum, Reason: fmt.Sprintf("malformed page content: %v", r)}
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", &document.PageError{Page: pageNum, Reason: "page object missing"}
	}

	raw, getErr := page.GetPlainText(nil)
	if getErr != nil {
		return "", &document.PageError{Page: pageNum, Reason: getErr.Error(), Err: getErr}
	}

	return cleanText(raw), nil
}

// classifyOpenError is the only place that inspects reader error text.
func classifyOpenError(err error) document.OpenFailureKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return document.OpenWorkerUnavailable
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return document.OpenCorrupted
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"not a pdf", "malformed", "invalid", "corrupt", "%%eof", "xref", "trailer"} {
		if strings.Contains(msg, marker) {
			return document.OpenCorrupted
		}
	}
	return document.OpenUnknown
}

// cleanText collapses runs of blanks and drops NULs left by some encoders.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
