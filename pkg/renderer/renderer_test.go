package renderer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPDF_PageGeometry(t *testing.T) {
	r := NewFPDF(Options{Title: "Report", Created: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)})
	w, h := r.PageSize()
	assert.InDelta(t, 210.0, w, 0.01)
	assert.InDelta(t, 297.0, h, 0.01)

	assert.Equal(t, 0, r.PageCount())
	r.AddPage()
	r.AddPage()
	assert.Equal(t, 2, r.PageCount())
}

func TestFPDF_SplitTextFitsWidth(t *testing.T) {
	r := NewFPDF(Options{})
	r.AddPage()
	r.SetStyle(Style{Size: 11})

	text := strings.Repeat("interview feedback report ", 30)
	lines := r.SplitText(text, 80)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, r.StringWidth(line), 80.0)
		assert.Equal(t, strings.TrimSpace(line), line)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(lines, " "))
}

func TestFPDF_SplitTextKeepsNewlines(t *testing.T) {
	r := NewFPDF(Options{})
	r.AddPage()
	r.SetStyle(Style{Size: 11})

	lines := r.SplitText("first\r\n\nthird", 100)
	assert.Equal(t, []string{"first", "", "third"}, lines)
}

func TestFPDF_SplitTextCutsLongWords(t *testing.T) {
	r := NewFPDF(Options{})
	r.AddPage()
	r.SetStyle(Style{Size: 11})

	word := strings.Repeat("x", 200)
	lines := r.SplitText(word, 30)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.NotEmpty(t, line)
		assert.LessOrEqual(t, r.StringWidth(line), 30.0)
	}
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestFPDF_Output(t *testing.T) {
	r := NewFPDF(Options{Title: "Report", Creator: "tests"})
	r.AddPage()
	r.SetStyle(Style{Size: 14, Bold: true, Color: RGB{R: 34, G: 211, B: 238}})
	r.Text(15, 20, "• Practice explaining complex concepts simply")

	var buf bytes.Buffer
	require.NoError(t, r.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
