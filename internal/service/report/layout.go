package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/renderer"
)

// ArtifactName is the download name of every report.
const ArtifactName = "Interview_Report.pdf"

// Page geometry in mm.
const (
	Margin               = 15.0
	TopOffset            = 20.0
	ReservedBottomMargin = 20.0
	LineHeight           = 6.0
	FooterOffset         = 10.0
	contentIndent        = 5.0
)

const (
	reportTitle     = "Interview Feedback Report"
	footerText      = "Generated by AI Interview Practice Partner"
	roleFallback    = "Not specified"
	noPairsNote     = "(No complete question and answer pairs were found in the transcript)"
	dateLayout      = "1/2/2006"
	breakdownHeader = "Performance Breakdown"
	qaHeader        = "Questions & Answers"
	improveHeader   = "Areas for Improvement"
)

// Improvements is rendered verbatim in every report.
var Improvements = []string{
	"• Practice technical concepts with real-world examples",
	"• Work on communication clarity and conciseness",
	"• Reduce filler words (um, uh, like) in responses",
	"• Improve response pace - take time to think before answering",
	"• Build confidence through mock interviews",
	"• Study system design patterns for your role",
	"• Practice explaining complex concepts simply",
}

var (
	black = renderer.RGB{}
	cyan  = renderer.RGB{R: 34, G: 211, B: 238}
	grey  = renderer.RGB{R: 100, G: 100, B: 100}
	light = renderer.RGB{R: 150, G: 150, B: 150}

	styleTitle    = renderer.Style{Size: 24, Color: cyan}
	styleHeader   = renderer.Style{Size: 12, Color: black}
	styleSection  = renderer.Style{Size: 14, Bold: true, Color: black}
	styleBody     = renderer.Style{Size: 11, Color: black}
	styleQuestion = renderer.Style{Size: 11, Bold: true, Color: cyan}
	styleAnswer   = renderer.Style{Size: 11, Color: black}
	styleNote     = renderer.Style{Size: 11, Color: grey}
	styleFooter   = renderer.Style{Size: 9, Color: light}
)

// BlockKind names what a placed block is.
type BlockKind string

const (
	BlockTitle       BlockKind = "title"
	BlockHeader      BlockKind = "header"
	BlockSection     BlockKind = "section"
	BlockBreakdown   BlockKind = "breakdown"
	BlockQuestion    BlockKind = "question"
	BlockAnswer      BlockKind = "answer"
	BlockNote        BlockKind = "note"
	BlockImprovement BlockKind = "improvement"
	BlockFooter      BlockKind = "footer"
)

// Block is one placed piece of text. Y is the baseline of the first line.
type Block struct {
	Kind  BlockKind      `json:"kind"`
	Page  int            `json:"page"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Lines []string       `json:"lines"`
	Style renderer.Style `json:"style"`
}

// Text joins the block lines with newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Artifact is a finished report. It is not modified after Render returns.
type Artifact struct {
	Name        string
	Pages       int
	PageWidth   float64
	PageHeight  float64
	Blocks      []Block
	Pairs       int
	Unanswered  string
	Data        []byte
	GeneratedAt time.Time
}

// Input is everything a report is built from.
type Input struct {
	Role       string
	Overall    int
	Breakdown  models.ScoreBreakdown
	Transcript []models.TranscriptMessage
	// Date is printed on the header line; zero means now.
	Date time.Time
}

// RendererFactory returns a fresh drawing surface per report.
type RendererFactory func(opts renderer.Options) renderer.Renderer

// Engine lays out interview reports on fixed-size pages.
type Engine struct {
	newRenderer RendererFactory
	now         func() time.Time
	logger      logger.Logger
}

type EngineOption func(*Engine)

func WithRendererFactory(f RendererFactory) EngineOption {
	return func(e *Engine) { e.newRenderer = f }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(log logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		newRenderer: func(o renderer.Options) renderer.Renderer { return renderer.NewFPDF(o) },
		now:         time.Now,
		logger:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render builds the report. Only a renderer fault returns an error.
func (e *Engine) Render(in Input) (*Artifact, error) {
	date := in.Date
	if date.IsZero() {
		date = e.now()
	}

	r := e.newRenderer(renderer.Options{
		Title:   reportTitle,
		Creator: footerText,
		Created: date,
	})
	l := newLayout(r)

	l.title(reportTitle)

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = roleFallback
	}
	l.line(BlockHeader, styleHeader, Margin, "Role: "+role, 8)
	l.line(BlockHeader, styleHeader, Margin, fmt.Sprintf("Overall Score: %d/100", in.Overall), 8)
	l.line(BlockHeader, styleHeader, Margin, "Date: "+date.Format(dateLayout), 15)

	l.line(BlockSection, styleSection, Margin, breakdownHeader, 10)
	for _, s := range breakdownLines(in.Breakdown) {
		l.line(BlockBreakdown, styleBody, Margin+contentIndent, s, 7)
	}
	l.y += 10

	l.line(BlockSection, styleSection, Margin, qaHeader, 10)
	pairing := PairTranscript(in.Transcript)
	for i, pair := range pairing.Pairs {
		l.pair(i+1, pair)
	}
	if len(pairing.Pairs) == 0 && len(in.Transcript) > 0 {
		l.line(BlockNote, styleNote, Margin+contentIndent, noPairsNote, LineHeight)
	}
	if pairing.Unanswered != "" {
		e.logger.Debug("Dropping unanswered trailing question",
			logger.String("question", pairing.Unanswered),
		)
	}

	l.y += 10
	l.line(BlockSection, styleSection, Margin, improveHeader, 10)
	for _, item := range Improvements {
		l.wrapped(BlockImprovement, styleBody, item, 3)
	}

	l.footer(footerText)

	var buf bytes.Buffer
	if err := r.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return &Artifact{
		Name:        ArtifactName,
		Pages:       r.PageCount(),
		PageWidth:   l.pageW,
		PageHeight:  l.pageH,
		Blocks:      l.blocks,
		Pairs:       len(pairing.Pairs),
		Unanswered:  pairing.Unanswered,
		Data:        buf.Bytes(),
		GeneratedAt: date,
	}, nil
}

func breakdownLines(b models.ScoreBreakdown) []string {
	dims := []struct {
		label string
		value float64
	}{
		{"Communication", b.Communication},
		{"Confidence", b.Confidence},
		{"Technical", b.Technical},
		{"Pace", b.Pace},
		{"Filler Words", b.FillerWords},
	}
	lines := make([]string, len(dims))
	for i, d := range dims {
		lines[i] = fmt.Sprintf("%s: %s%%", d.label, strconv.FormatFloat(d.value, 'f', -1, 64))
	}
	return lines
}

// layout owns the vertical cursor of one render call.
type layout struct {
	r      renderer.Renderer
	pageW  float64
	pageH  float64
	y      float64
	page   int
	blocks []Block
}

func newLayout(r renderer.Renderer) *layout {
	r.AddPage()
	w, h := r.PageSize()
	return &layout{r: r, pageW: w, pageH: h, y: TopOffset, page: 1}
}

func (l *layout) limit() float64 {
	return l.pageH - ReservedBottomMargin
}

// reserve starts a new page when a block whose last baseline lies extent
// below the cursor would cross the reserved bottom margin.
func (l *layout) reserve(extent float64) {
	if l.y+extent > l.limit() && l.y > TopOffset {
		l.newPage()
	}
}

func (l *layout) newPage() {
	l.r.AddPage()
	l.page++
	l.y = TopOffset
}

// fits counts the baselines left between the cursor and the bottom margin.
func (l *layout) fits() int {
	if l.y > l.limit() {
		return 0
	}
	return int(math.Floor((l.limit()-l.y)/LineHeight+1e-9)) + 1
}

func (l *layout) pageLines() int {
	return int(math.Floor((l.limit()-TopOffset)/LineHeight+1e-9)) + 1
}

// flow draws lines as one block, moving it to a fresh page when it does not
// fit below the cursor. A block longer than a whole page is split at line
// boundaries, one block per page. The cursor ends one line below the last
// baseline.
func (l *layout) flow(kind BlockKind, style renderer.Style, x float64, lines []string) {
	if len(lines) <= l.pageLines() {
		l.reserve(float64(len(lines)-1) * LineHeight)
	}
	for {
		n := l.fits()
		if n == 0 && l.y > TopOffset {
			l.newPage()
			continue
		}
		if n < 1 {
			n = 1
		}
		if n >= len(lines) {
			break
		}
		l.draw(kind, style, x, lines[:n])
		lines = lines[n:]
		l.newPage()
	}
	l.draw(kind, style, x, lines)
	l.y += float64(len(lines)) * LineHeight
}

func (l *layout) draw(kind BlockKind, style renderer.Style, x float64, lines []string) {
	l.r.SetStyle(style)
	for i, s := range lines {
		l.r.Text(x, l.y+float64(i)*LineHeight, s)
	}
	l.blocks = append(l.blocks, Block{
		Kind:  kind,
		Page:  l.page,
		X:     x,
		Y:     l.y,
		Lines: lines,
		Style: style,
	})
}

func (l *layout) title(s string) {
	l.reserve(0)
	l.r.SetStyle(styleTitle)
	x := (l.pageW - l.r.StringWidth(s)) / 2
	l.draw(BlockTitle, styleTitle, x, []string{s})
	l.y += 15
}

func (l *layout) line(kind BlockKind, style renderer.Style, x float64, s string, advance float64) {
	l.reserve(0)
	l.draw(kind, style, x, []string{s})
	l.y += advance
}

func (l *layout) wrapWidth() float64 {
	return l.pageW - 2*Margin - 2*contentIndent
}

func (l *layout) split(style renderer.Style, s string) []string {
	l.r.SetStyle(style)
	return l.r.SplitText(s, l.wrapWidth())
}

func (l *layout) wrapped(kind BlockKind, style renderer.Style, s string, spacing float64) {
	l.flow(kind, style, Margin+contentIndent, l.split(style, s))
	l.y += spacing
}

// pair keeps a question with its answer when both fit on one page, and
// otherwise with at least the first line of the answer.
func (l *layout) pair(n int, p models.QAPair) {
	q := l.split(styleQuestion, fmt.Sprintf("Q%d: %s", n, p.Question))
	a := l.split(styleAnswer, "A: "+p.Answer)

	together := float64(len(q))*LineHeight + 3 + float64(len(a)-1)*LineHeight
	if together > l.limit()-TopOffset {
		together = float64(len(q))*LineHeight + 3
	}
	l.reserve(together)
	l.flow(BlockQuestion, styleQuestion, Margin+contentIndent, q)
	l.y += 3

	l.flow(BlockAnswer, styleAnswer, Margin+contentIndent, a)
	l.y += 8
}

// footer sits at a fixed offset from the bottom of the last page.
func (l *layout) footer(s string) {
	l.r.SetStyle(styleFooter)
	x := (l.pageW - l.r.StringWidth(s)) / 2
	y := l.pageH - FooterOffset
	l.r.Text(x, y, s)
	l.blocks = append(l.blocks, Block{
		Kind:  BlockFooter,
		Page:  l.page,
		X:     x,
		Y:     y,
		Lines: []string{s},
		Style: styleFooter,
	})
}
