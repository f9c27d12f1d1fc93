package converters

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/feichai0017/interview-practice/internal/models"
)

// ResumeConverter turns an extraction result into its stored form.
type ResumeConverter interface {
	Convert(result *models.ExtractionResult) (*ProcessedResume, error)
}

// ProcessedResume is the JSON document stored for a finished extraction.
type ProcessedResume struct {
	TaskID      string         `json:"taskId"`
	SessionID   string         `json:"sessionId,omitempty"`
	Status      string         `json:"status"`
	Text        string         `json:"text"`
	Content     []PageContent  `json:"content"`
	Metadata    ResumeMetadata `json:"metadata"`
	ProcessedAt time.Time      `json:"processedAt"`
}

type PageContent struct {
	Text     string `json:"text,omitempty"`
	Position int    `json:"position"`
	Type     string `json:"type"`
	Failed   bool   `json:"failed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type ResumeMetadata struct {
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
	FileSize     int64  `json:"fileSize"`
	PageCount    int    `json:"pageCount"`
	PagesFailed  int    `json:"pagesFailed"`
	CharCount    int    `json:"charCount"`
	ProcessingMs int64  `json:"processingMs"`
}

type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(result *models.ExtractionResult) (*ProcessedResume, error) {
	if result == nil {
		return nil, fmt.Errorf("no extraction result to convert")
	}

	doc := &ProcessedResume{
		Status:      "completed",
		Text:        result.Text,
		Content:     make([]PageContent, 0, len(result.Pages)),
		ProcessedAt: time.Now(),
		Metadata: ResumeMetadata{
			PageCount:    result.PagesTotal,
			PagesFailed:  result.PagesFailed,
			CharCount:    utf8.RuneCountInString(result.Text),
			ProcessingMs: result.Duration.Milliseconds(),
		},
	}

	for _, page := range result.Pages {
		doc.Content = append(doc.Content, PageContent{
			Text:     page.Text,
			Position: page.Page,
			Type:     "page",
			Failed:   page.Failed,
			Reason:   page.Reason,
		})
	}
	return doc, nil
}
