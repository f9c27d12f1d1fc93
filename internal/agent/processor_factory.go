package agent

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/feichai0017/interview-practice/internal/agent/document"
	"github.com/feichai0017/interview-practice/internal/agent/document/pdf"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

// extension to MIME type for uploads that arrive without a usable Content-Type
var extToMIME = map[string]string{
	".pdf": "application/pdf",
}

type ProcessorFactory struct {
	processors map[string]document.Parser
	logger     logger.Logger
}

func NewProcessorFactory(log logger.Logger, maxWorkers int) *ProcessorFactory {
	factory := &ProcessorFactory{
		processors: make(map[string]document.Parser),
		logger:     log,
	}

	factory.Register("application/pdf", pdf.NewProcessor(log.Named("pdf"), maxWorkers))
	return factory
}

// Register binds a parser to a MIME type, replacing any previous binding.
func (f *ProcessorFactory) Register(mimeType string, p document.Parser) {
	f.processors[strings.ToLower(mimeType)] = p
}

// GetProcessor returns the parser for a MIME type such as "application/pdf".
func (f *ProcessorFactory) GetProcessor(mimeType string) (document.Parser, error) {
	mediaType := NormalizeMediaType(mimeType)
	processor, ok := f.processors[mediaType]
	if !ok {
		f.logger.Warn("No processor found",
			logger.String("mimeType", mimeType),
		)
		return nil, fmt.Errorf("no processor found for mime type: %s", mimeType)
	}
	return processor, nil
}

// Close closes every registered parser.
func (f *ProcessorFactory) Close() error {
	for mimeType, p := range f.processors {
		if err := p.Close(); err != nil {
			return fmt.Errorf("failed to close processor for %s: %w", mimeType, err)
		}
	}
	return nil
}

// NormalizeMediaType strips parameters and lowercases a Content-Type value.
func NormalizeMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// DeclaredMediaType picks the upload's Content-Type, falling back to the
// filename extension when the client sent none or a generic one.
func DeclaredMediaType(contentType, filename string) string {
	mediaType := NormalizeMediaType(contentType)
	if mediaType != "" && mediaType != "application/octet-stream" {
		return mediaType
	}
	if m, ok := extToMIME[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	return mediaType
}
