package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/renderer"
)

// fakeRenderer measures every rune as 2mm and records what is drawn.
type fakeRenderer struct {
	pages  int
	style  renderer.Style
	texts  []string
	outErr error
}

func (f *fakeRenderer) PageSize() (float64, float64) { return 210, 297 }
func (f *fakeRenderer) AddPage()                     { f.pages++ }
func (f *fakeRenderer) PageCount() int               { return f.pages }
func (f *fakeRenderer) SetStyle(s renderer.Style)    { f.style = s }
func (f *fakeRenderer) Text(_, _ float64, s string)  { f.texts = append(f.texts, s) }

func (f *fakeRenderer) StringWidth(s string) float64 {
	return 2 * float64(utf8.RuneCountInString(s))
}

func (f *fakeRenderer) SplitText(s string, width float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(s) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if f.StringWidth(candidate) > width && current != "" {
			lines = append(lines, current)
			candidate = word
		}
		current = candidate
	}
	return append(lines, current)
}

func (f *fakeRenderer) Output(w io.Writer) error {
	if f.outErr != nil {
		return f.outErr
	}
	_, err := fmt.Fprintf(w, "pages=%d", f.pages)
	return err
}

var fixedDate = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func fakeEngine(f *fakeRenderer) *Engine {
	return NewEngine(logger.NewNop(),
		WithRendererFactory(func(renderer.Options) renderer.Renderer { return f }),
		WithClock(func() time.Time { return fixedDate }),
	)
}

func sampleInput() Input {
	return Input{
		Role:      "Backend Developer",
		Overall:   76,
		Breakdown: models.ScoreBreakdown{Communication: 80, Technical: 70, Confidence: 90, FillerWords: 20, Pace: 60.5},
		Transcript: []models.TranscriptMessage{
			{Sender: "interviewer", Text: "Q1"},
			{Sender: "candidate", Text: "A1"},
			{Sender: "candidate", Text: "orphan"},
			{Sender: "interviewer", Text: "Q2"},
		},
	}
}

func longTranscript(n int) []models.TranscriptMessage {
	answer := strings.Repeat("I designed the ingestion service and its retry policy. ", 8)
	var out []models.TranscriptMessage
	for i := 0; i < n; i++ {
		out = append(out,
			models.TranscriptMessage{Sender: "interviewer", Text: fmt.Sprintf("Describe project number %d in detail", i+1)},
			models.TranscriptMessage{Sender: "candidate", Text: answer},
		)
	}
	return out
}

func blocksOf(a *Artifact, kind BlockKind) []Block {
	var out []Block
	for _, b := range a.Blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func TestRender_SinglePageLayout(t *testing.T) {
	f := &fakeRenderer{}
	artifact, err := fakeEngine(f).Render(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, ArtifactName, artifact.Name)
	assert.Equal(t, 1, artifact.Pages)
	assert.Equal(t, 1, artifact.Pairs)
	assert.Equal(t, "Q2", artifact.Unanswered)
	assert.Equal(t, []byte("pages=1"), artifact.Data)
	assert.Equal(t, fixedDate, artifact.GeneratedAt)

	title := blocksOf(artifact, BlockTitle)
	require.Len(t, title, 1)
	assert.Equal(t, "Interview Feedback Report", title[0].Text())
	assert.Equal(t, TopOffset, title[0].Y)
	assert.InDelta(t, (210-2*25)/2.0, title[0].X, 0.001)

	headers := blocksOf(artifact, BlockHeader)
	require.Len(t, headers, 3)
	assert.Equal(t, "Role: Backend Developer", headers[0].Text())
	assert.Equal(t, 35.0, headers[0].Y)
	assert.Equal(t, "Overall Score: 76/100", headers[1].Text())
	assert.Equal(t, "Date: 3/7/2025", headers[2].Text())
	assert.Equal(t, 51.0, headers[2].Y)

	breakdown := blocksOf(artifact, BlockBreakdown)
	require.Len(t, breakdown, 5)
	assert.Equal(t, "Communication: 80%", breakdown[0].Text())
	assert.Equal(t, "Pace: 60.5%", breakdown[3].Text())
	assert.Equal(t, "Filler Words: 20%", breakdown[4].Text())
	assert.Equal(t, Margin+5, breakdown[0].X)
	assert.Equal(t, 76.0, breakdown[0].Y)
	assert.Equal(t, 7.0, breakdown[1].Y-breakdown[0].Y)

	questions := blocksOf(artifact, BlockQuestion)
	answers := blocksOf(artifact, BlockAnswer)
	require.Len(t, questions, 1)
	require.Len(t, answers, 1)
	assert.Equal(t, "Q1: Q1", questions[0].Text())
	assert.Equal(t, "A: A1", answers[0].Text())
	assert.Equal(t, LineHeight+3, answers[0].Y-questions[0].Y)
	assert.Empty(t, blocksOf(artifact, BlockNote))

	improvements := blocksOf(artifact, BlockImprovement)
	require.Len(t, improvements, len(Improvements))
	assert.Equal(t, Improvements[0], improvements[0].Text())

	footer := blocksOf(artifact, BlockFooter)
	require.Len(t, footer, 1)
	assert.Equal(t, "Generated by AI Interview Practice Partner", footer[0].Text())
	assert.Equal(t, 297-FooterOffset, footer[0].Y)
	assert.Equal(t, 1, footer[0].Page)
}

func TestRender_RoleFallbackAndNote(t *testing.T) {
	in := Input{
		Role:       "  ",
		Transcript: []models.TranscriptMessage{{Sender: "candidate", Text: "hello?"}},
	}
	artifact, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)

	assert.Equal(t, "Role: Not specified", blocksOf(artifact, BlockHeader)[0].Text())
	assert.Equal(t, "Overall Score: 0/100", blocksOf(artifact, BlockHeader)[1].Text())
	assert.Len(t, blocksOf(artifact, BlockNote), 1)
	assert.Empty(t, blocksOf(artifact, BlockQuestion))
}

func TestRender_EmptyTranscriptHasNoNote(t *testing.T) {
	artifact, err := fakeEngine(&fakeRenderer{}).Render(Input{Role: "Data Analyst"})
	require.NoError(t, err)
	assert.Empty(t, blocksOf(artifact, BlockNote))
	assert.Equal(t, 0, artifact.Pairs)
}

func TestRender_Paginates(t *testing.T) {
	in := sampleInput()
	in.Transcript = longTranscript(12)

	artifact, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)

	assert.Greater(t, artifact.Pages, 1)
	assert.Equal(t, 12, artifact.Pairs)

	limit := artifact.PageHeight - ReservedBottomMargin
	lastPage := 1
	for _, b := range artifact.Blocks {
		assert.GreaterOrEqual(t, b.Page, lastPage, "pages must not go backwards")
		lastPage = b.Page
		if b.Kind == BlockFooter {
			continue
		}
		assert.LessOrEqual(t, b.Y, limit, "%s block %q starts in the bottom margin", b.Kind, b.Lines[0])
		assert.GreaterOrEqual(t, b.Y, TopOffset)
		lastBaseline := b.Y + float64(len(b.Lines)-1)*LineHeight
		assert.LessOrEqual(t, lastBaseline, limit)
	}

	footer := blocksOf(artifact, BlockFooter)
	require.Len(t, footer, 1)
	assert.Equal(t, artifact.Pages, footer[0].Page)
}

func TestRender_QuestionStaysWithAnswer(t *testing.T) {
	in := sampleInput()
	in.Transcript = longTranscript(12)

	artifact, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)

	questions := blocksOf(artifact, BlockQuestion)
	answers := blocksOf(artifact, BlockAnswer)
	require.Len(t, answers, len(questions))
	for i := range questions {
		assert.Equal(t, questions[i].Page, answers[i].Page, "pair %d split across pages", i+1)
	}
}

func TestRender_SplitsAnswerTallerThanPage(t *testing.T) {
	answer := strings.TrimSpace(strings.Repeat("word ", 1200))
	in := sampleInput()
	in.Transcript = []models.TranscriptMessage{
		{Sender: "interviewer", Text: "Walk me through your longest project"},
		{Sender: "candidate", Text: answer},
	}

	artifact, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)

	answers := blocksOf(artifact, BlockAnswer)
	require.Greater(t, len(answers), 1)
	questions := blocksOf(artifact, BlockQuestion)
	require.Len(t, questions, 1)
	assert.Equal(t, questions[0].Page, answers[0].Page, "question must share a page with the start of its answer")

	limit := artifact.PageHeight - ReservedBottomMargin
	var lines []string
	for i, b := range answers {
		if i > 0 {
			assert.Equal(t, answers[i-1].Page+1, b.Page)
			assert.Equal(t, TopOffset, b.Y)
		}
		assert.LessOrEqual(t, b.Y+float64(len(b.Lines)-1)*LineHeight, limit, "answer part %d runs into the bottom margin", i+1)
		lines = append(lines, b.Lines...)
	}
	assert.Equal(t, strings.Fields("A: "+answer), strings.Fields(strings.Join(lines, " ")), "no answer line may be lost")

	assert.Greater(t, artifact.Pages, 2)
	footer := blocksOf(artifact, BlockFooter)
	require.Len(t, footer, 1)
	assert.Equal(t, artifact.Pages, footer[0].Page)
	for _, b := range blocksOf(artifact, BlockImprovement) {
		assert.GreaterOrEqual(t, b.Page, answers[len(answers)-1].Page)
	}
}

func TestRender_IsDeterministic(t *testing.T) {
	in := sampleInput()
	in.Transcript = longTranscript(6)

	first, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)
	second, err := fakeEngine(&fakeRenderer{}).Render(in)
	require.NoError(t, err)

	assert.Equal(t, first.Pages, second.Pages)
	require.Len(t, second.Blocks, len(first.Blocks))
	for i := range first.Blocks {
		assert.Equal(t, first.Blocks[i].Text(), second.Blocks[i].Text())
		assert.Equal(t, first.Blocks[i].Page, second.Blocks[i].Page)
	}
}

func TestRender_OutputFailure(t *testing.T) {
	f := &fakeRenderer{outErr: errors.New("disk full")}
	_, err := fakeEngine(f).Render(sampleInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render report")
	assert.Contains(t, err.Error(), "disk full")
}

func TestRender_FPDFProducesReadablePDF(t *testing.T) {
	api.DisableConfigDir()

	in := sampleInput()
	in.Transcript = longTranscript(10)
	in.Date = fixedDate

	artifact, err := NewEngine(logger.NewNop()).Render(in)
	require.NoError(t, err)
	require.Greater(t, artifact.Pages, 1)
	assert.InDelta(t, 210.0, artifact.PageWidth, 0.01)
	assert.InDelta(t, 297.0, artifact.PageHeight, 0.01)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF-")))

	ctx, err := api.ReadContext(bytes.NewReader(artifact.Data), model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.Equal(t, artifact.Pages, ctx.PageCount)

	for _, b := range artifact.Blocks {
		if b.Kind != BlockFooter {
			assert.LessOrEqual(t, b.Y, artifact.PageHeight-ReservedBottomMargin)
		}
	}
}
