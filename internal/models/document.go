package models

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MaxResumeSize is the largest upload the extraction pipeline accepts (5 MiB).
const MaxResumeSize int64 = 5 * 1024 * 1024

// PDFMediaType is the only media type the pipeline extracts.
const PDFMediaType = "application/pdf"

// RawDocument is an uploaded file as handed to the extraction pipeline.
// The pipeline reads Body once and does not retain it.
type RawDocument struct {
	Filename  string
	MediaType string
	// Size is the declared length; -1 when unknown.
	Size int64
	Body io.Reader
}

// NewRawDocument wraps an in-memory buffer.
func NewRawDocument(data []byte, mediaType string) RawDocument {
	return RawDocument{
		MediaType: mediaType,
		Size:      int64(len(data)),
		Body:      bytes.NewReader(data),
	}
}

// ExtractionStage is the coarse position of an extraction call.
type ExtractionStage string

const (
	StageIdle       ExtractionStage = "idle"
	StageReading    ExtractionStage = "reading"
	StageParsing    ExtractionStage = "parsing"
	StageExtracting ExtractionStage = "extracting"
	StageValidating ExtractionStage = "validating"
	StageDone       ExtractionStage = "done"
	StageFailed     ExtractionStage = "failed"
)

// ExtractionProgress is a point-in-time copy of an ExtractionState.
type ExtractionProgress struct {
	Stage          ExtractionStage `json:"stage"`
	Progress       float64         `json:"progress"`
	PagesTotal     int             `json:"pagesTotal"`
	PagesProcessed int             `json:"pagesProcessed"`
}

// ProgressObserver receives a snapshot after every state change.
type ProgressObserver func(ExtractionProgress)

// ExtractionState tracks one extraction in flight. It is owned by the caller,
// passed into every extraction call and never shared between sessions.
type ExtractionState struct {
	mu       sync.Mutex
	progress ExtractionProgress
	inFlight bool
	observer ProgressObserver
}

// NewExtractionState creates an idle state that reports to observer (may be nil).
func NewExtractionState(observer ProgressObserver) *ExtractionState {
	return &ExtractionState{
		progress: ExtractionProgress{Stage: StageIdle},
		observer: observer,
	}
}

// Begin marks the state as in flight and resets progress to zero.
// It reports false if another call already holds the state.
func (s *ExtractionState) Begin() bool {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return false
	}
	s.inFlight = true
	s.progress = ExtractionProgress{Stage: StageIdle}
	snap := s.progress
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// End releases the in-flight mark.
func (s *ExtractionState) End() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// InFlight reports whether an extraction currently holds the state.
func (s *ExtractionState) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Advance moves to stage and raises progress to at least floor.
// Progress never decreases while a call runs.
func (s *ExtractionState) Advance(stage ExtractionStage, floor float64) {
	s.mu.Lock()
	s.progress.Stage = stage
	if floor > 100 {
		floor = 100
	}
	if floor > s.progress.Progress {
		s.progress.Progress = floor
	}
	snap := s.progress
	s.mu.Unlock()

	s.notify(snap)
}

// SetPages records the page count reported by the parser.
func (s *ExtractionState) SetPages(total int) {
	s.mu.Lock()
	s.progress.PagesTotal = total
	s.progress.PagesProcessed = 0
	s.mu.Unlock()
}

// PageDone counts one processed page (successful or not) and returns the new count.
func (s *ExtractionState) PageDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.PagesProcessed++
	return s.progress.PagesProcessed
}

// Fail marks the state failed without touching progress.
func (s *ExtractionState) Fail() {
	s.mu.Lock()
	s.progress.Stage = StageFailed
	snap := s.progress
	s.mu.Unlock()

	s.notify(snap)
}

// Snapshot returns the current progress.
func (s *ExtractionState) Snapshot() ExtractionProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *ExtractionState) notify(p ExtractionProgress) {
	if s.observer != nil {
		s.observer(p)
	}
}

// PageSegment is the text pulled from one page.
type PageSegment struct {
	Page   int    `json:"page"`
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ExtractionResult is a successful extraction.
type ExtractionResult struct {
	// Text is the trimmed, blank-line joined text of all usable pages.
	Text        string        `json:"text"`
	Pages       []PageSegment `json:"pages"`
	PagesTotal  int           `json:"pagesTotal"`
	PagesFailed int           `json:"pagesFailed"`
	Duration    time.Duration `json:"duration"`
}

// ProcessingTask is an asynchronous extraction as seen by API clients.
type ProcessingTask struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId,omitempty"`
	Status    ProcessingStatus  `json:"status"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Stage     ExtractionStage   `json:"stage,omitempty"`
	Progress  float64           `json:"progress"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"errorKind,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusCancelled ProcessingStatus = "cancelled"
)
