package report

import (
	"strings"

	"github.com/feichai0017/interview-practice/internal/models"
)

// pairingState is the state of the transcript pairing machine.
type pairingState int

const (
	awaitingQuestion pairingState = iota
	awaitingAnswer
)

func (s pairingState) String() string {
	if s == awaitingAnswer {
		return "awaiting_answer"
	}
	return "awaiting_question"
}

// Pairing is the outcome of scanning a transcript.
type Pairing struct {
	Pairs []models.QAPair
	// Unanswered is the question still pending when the transcript ended.
	Unanswered string
	// Orphans counts candidate messages that had no pending question.
	Orphans int
}

type pairer struct {
	state    pairingState
	question string
	out      Pairing
}

// transitions is the full rule table; senders without an entry are ignored.
var transitions = map[pairingState]map[models.Sender]func(p *pairer, text string){
	awaitingQuestion: {
		models.SenderInterviewer: (*pairer).ask,
		models.SenderCandidate:   (*pairer).dropOrphan,
	},
	awaitingAnswer: {
		models.SenderInterviewer: (*pairer).ask,
		models.SenderCandidate:   (*pairer).answer,
	},
}

// ask sets or replaces the pending question. A blank question leaves nothing pending.
func (p *pairer) ask(text string) {
	if strings.TrimSpace(text) == "" {
		p.question = ""
		p.state = awaitingQuestion
		return
	}
	p.question = text
	p.state = awaitingAnswer
}

func (p *pairer) answer(text string) {
	p.out.Pairs = append(p.out.Pairs, models.QAPair{Question: p.question, Answer: text})
	p.question = ""
	p.state = awaitingQuestion
}

func (p *pairer) dropOrphan(string) {
	p.out.Orphans++
}

func (p *pairer) step(msg models.TranscriptMessage) {
	if rule, ok := transitions[p.state][models.ParseSender(msg.Sender)]; ok {
		rule(p, msg.Text)
	}
}

// PairTranscript reduces a transcript to question/answer pairs in order.
func PairTranscript(transcript []models.TranscriptMessage) Pairing {
	p := &pairer{state: awaitingQuestion}
	for _, msg := range transcript {
		p.step(msg)
	}
	if p.state == awaitingAnswer {
		p.out.Unanswered = p.question
	}
	return p.out
}
