package models

import "strings"

// ScoreBreakdown holds the five performance dimensions, each a percentage.
// Missing JSON keys decode to 0.
type ScoreBreakdown struct {
	Communication float64 `json:"communication"`
	Confidence    float64 `json:"confidence"`
	Technical     float64 `json:"technical"`
	Pace          float64 `json:"pace"`
	FillerWords   float64 `json:"fillerWords"`
}

// AnyPositive reports whether at least one dimension carries a score.
func (b ScoreBreakdown) AnyPositive() bool {
	return b.Communication > 0 || b.Confidence > 0 || b.Technical > 0 || b.Pace > 0 || b.FillerWords > 0
}

// Scorecard pairs a breakdown with its overall score.
type Scorecard struct {
	Breakdown ScoreBreakdown `json:"scoreBreakdown"`
	Overall   int            `json:"overallScore"`
}

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderInterviewer Sender = "interviewer"
	SenderCandidate   Sender = "candidate"
	SenderUnknown     Sender = ""
)

// ParseSender normalises the sender labels used by chat clients.
func ParseSender(s string) Sender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interviewer", "ai", "bot":
		return SenderInterviewer
	case "candidate", "user", "assistant":
		return SenderCandidate
	default:
		return SenderUnknown
	}
}

// TranscriptMessage is one chat line; order in the transcript is significant.
type TranscriptMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// QAPair is one interviewer question with the candidate answer that followed it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
