// Package renderer wraps a PDF generation library behind the drawing
// primitives the report layout engine needs.
package renderer

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// RGB is a text colour.
type RGB struct {
	R, G, B int
}

// Style is the font state used for subsequent Text calls.
type Style struct {
	Size  float64
	Bold  bool
	Color RGB
}

// Renderer is a page-oriented drawing surface. Coordinates are in mm from
// the top-left corner; y is the text baseline.
type Renderer interface {
	PageSize() (width, height float64)
	AddPage()
	PageCount() int
	SetStyle(s Style)
	Text(x, y float64, s string)
	StringWidth(s string) float64
	// SplitText wraps s to lines no wider than width using the current style.
	SplitText(s string, width float64) []string
	Output(w io.Writer) error
}

// Options describes document properties.
type Options struct {
	Title   string
	Author  string
	Creator string
	Created time.Time
}

// FPDF implements Renderer with github.com/go-pdf/fpdf (A4 portrait, core Helvetica).
type FPDF struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
}

func NewFPDF(opts Options) *FPDF {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}
	if !opts.Created.IsZero() {
		pdf.SetCreationDate(opts.Created)
	}

	r := &FPDF{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: "Helvetica",
	}
	pdf.SetFont(r.family, "", 12)
	return r
}

func (r *FPDF) PageSize() (float64, float64) {
	return r.pdf.GetPageSize()
}

func (r *FPDF) AddPage() {
	r.pdf.AddPage()
}

func (r *FPDF) PageCount() int {
	return r.pdf.PageCount()
}

func (r *FPDF) SetStyle(s Style) {
	style := ""
	if s.Bold {
		style = "B"
	}
	r.pdf.SetFont(r.family, style, s.Size)
	r.pdf.SetTextColor(s.Color.R, s.Color.G, s.Color.B)
}

func (r *FPDF) Text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

func (r *FPDF) StringWidth(s string) float64 {
	return r.pdf.GetStringWidth(r.tr(s))
}

// SplitText breaks on explicit newlines first, then greedily on spaces.
// A word wider than width is cut at rune boundaries.
func (r *FPDF) SplitText(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		lines = append(lines, r.wrapParagraph(para, width)...)
	}
	return lines
}

func (r *FPDF) wrapParagraph(para string, width float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if r.StringWidth(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for r.StringWidth(word) > width {
			head, tail := r.cut(word, width)
			lines = append(lines, head)
			word = tail
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// cut returns the longest prefix of word that fits width (at least one rune).
func (r *FPDF) cut(word string, width float64) (string, string) {
	end := 0
	for i := range word {
		_, size := utf8.DecodeRuneInString(word[i:])
		next := i + size
		if end > 0 && r.StringWidth(word[:next]) > width {
			break
		}
		end = next
	}
	return word[:end], word[end:]
}

// Output writes the document; any error accumulated while drawing is returned here.
func (r *FPDF) Output(w io.Writer) error {
	if r.pdf.Err() {
		return r.pdf.Error()
	}
	return r.pdf.Output(w)
}
