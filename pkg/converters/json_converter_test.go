package converters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/interview-practice/internal/models"
)

func TestJSONConverter_Convert(t *testing.T) {
	result := &models.ExtractionResult{
		Text:        "Jane Doe\n\nGo engineer",
		PagesTotal:  3,
		PagesFailed: 1,
		Duration:    1500 * time.Millisecond,
		Pages: []models.PageSegment{
			{Page: 1, Text: "Jane Doe"},
			{Page: 2, Failed: true, Reason: "broken content stream"},
			{Page: 3, Text: "Go engineer"},
		},
	}

	doc, err := NewJSONConverter().Convert(result)
	require.NoError(t, err)

	assert.Equal(t, "completed", doc.Status)
	assert.Equal(t, result.Text, doc.Text)
	assert.Equal(t, 3, doc.Metadata.PageCount)
	assert.Equal(t, 1, doc.Metadata.PagesFailed)
	assert.Equal(t, int64(1500), doc.Metadata.ProcessingMs)
	assert.Equal(t, 21, doc.Metadata.CharCount)

	require.Len(t, doc.Content, 3)
	assert.Equal(t, 2, doc.Content[1].Position)
	assert.True(t, doc.Content[1].Failed)
	assert.Equal(t, "broken content stream", doc.Content[1].Reason)
	assert.Equal(t, "page", doc.Content[2].Type)
}

func TestJSONConverter_Nil(t *testing.T) {
	_, err := NewJSONConverter().Convert(nil)
	assert.Error(t, err)
}
