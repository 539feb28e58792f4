// Package interview implements the session orchestration core: it fuses
// asynchronous evidence streams into a deduplicated bounded context,
// schedules questions and summary refreshes, and produces the final
// evidence-grounded evaluation report.
package interview

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joss/viva/internal/evidence"
)

// Mode selects how a session is conducted.
type Mode string

const (
	ModeLive                Mode = "live"
	ModeRecordThenInterview Mode = "record_then_interview"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusCapturing        Status = "capturing"
	StatusInterviewing     Status = "interviewing"
	StatusGeneratingReport Status = "generating_report"
	StatusDone             Status = "done"
)

// Intent is the topical category of an interview question.
type Intent string

const (
	IntentArchitecture   Intent = "architecture"
	IntentImplementation Intent = "implementation"
	IntentTradeoff       Intent = "tradeoff"
	IntentDebugging      Intent = "debugging"
	IntentTesting        Intent = "testing"
	IntentSecurity       Intent = "security"
	IntentPerformance    Intent = "performance"
)

// Intents lists all intents in declaration order. The order doubles as
// the tie-break for deficit-based intent selection.
var Intents = []Intent{
	IntentArchitecture,
	IntentImplementation,
	IntentTradeoff,
	IntentDebugging,
	IntentTesting,
	IntentSecurity,
	IntentPerformance,
}

// ValidIntent reports whether s names a known intent.
func ValidIntent(s string) bool {
	for _, intent := range Intents {
		if string(intent) == s {
			return true
		}
	}
	return false
}

// Settings is the immutable per-session configuration snapshot.
type Settings struct {
	ChunkSec           int    `json:"chunkSec"`
	OCRIntervalSec     int    `json:"ocrIntervalSec"`
	SummaryIntervalSec int    `json:"summaryIntervalSec"`
	MaxQuestions       int    `json:"maxQuestions"`
	KeepFrames         bool   `json:"keepFrames"`
	ReasoningModel     string `json:"reasoningModel"`
	VisionModel        string `json:"visionModel"`
	STTModel           string `json:"sttModel"`
}

// Session is the root record of one interview.
type Session struct {
	ID             string    `json:"id"`
	Mode           Mode      `json:"mode"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt,omitempty"`
	Settings       Settings  `json:"settings"`
	RollingSummary string    `json:"rollingSummary"`
	Status         Status    `json:"status"`
}

// NewSession creates a session in the idle state.
func NewSession(mode Mode, settings Settings, startedAt time.Time) *Session {
	return &Session{
		ID:        ulid.Make().String(),
		Mode:      mode,
		StartedAt: startedAt,
		Settings:  settings,
		Status:    StatusIdle,
	}
}

// SegmentSource tells presenter narration apart from answer speech.
type SegmentSource string

const (
	SourcePresenter SegmentSource = "presenter"
	SourceAnswer    SegmentSource = "answer"
)

// TranscriptSegment is one deduplicated transcription delta covering
// the elapsed-time interval [T0, T1]. Append-only, never mutated.
type TranscriptSegment struct {
	ID     string        `json:"id"`
	T0     int           `json:"t0"`
	T1     int           `json:"t1"`
	Text   string        `json:"text"`
	Source SegmentSource `json:"source"`
}

// OCRResult is one deduplicated, compressed screen-text delta.
type OCRResult struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Frame      []byte    `json:"frame,omitempty"`
}

// Grounding references the evidence snippets that justified a question.
type Grounding struct {
	FromTranscript []string `json:"from_transcript"`
	FromOCR        []string `json:"from_ocr"`
}

// Question is one asked interview question.
type Question struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	Intent     Intent    `json:"intent"`
	Difficulty int       `json:"difficulty"`
	Grounding  Grounding `json:"grounding"`
}

// AnswerSource distinguishes typed answers from transcribed speech.
type AnswerSource string

const (
	AnswerTyped AnswerSource = "typed"
	AnswerSTT   AnswerSource = "stt"
)

// Answer responds to a question. A skipped question has none.
type Answer struct {
	ID         string       `json:"id"`
	QuestionID string       `json:"questionId"`
	Timestamp  time.Time    `json:"timestamp"`
	Text       string       `json:"text"`
	Source     AnswerSource `json:"source"`
}

// ContextPacket is one entry of the append-only session context log.
type ContextPacket struct {
	ID               string              `json:"id"`
	Timestamp        time.Time           `json:"timestamp"`
	TranscriptDelta  string              `json:"transcriptDelta"`
	OCRDelta         string              `json:"ocrDelta"`
	ScreenHint       evidence.ScreenHint `json:"screenHint"`
	ActiveQuestionID string              `json:"activeQuestionId,omitempty"`
	LastAnswerDelta  string              `json:"lastAnswerDelta,omitempty"`
}

// BuildPacket assembles a timestamped delta record. It always produces
// a packet, even with both deltas empty (answer-only events), and
// classifies the OCR delta (empty delta classifies to unknown).
func BuildPacket(transcriptDelta, ocrDelta, activeQuestionID, lastAnswerDelta string, at time.Time) ContextPacket {
	return ContextPacket{
		ID:               uuid.NewString(),
		Timestamp:        at,
		TranscriptDelta:  transcriptDelta,
		OCRDelta:         ocrDelta,
		ScreenHint:       evidence.Classify(ocrDelta),
		ActiveQuestionID: activeQuestionID,
		LastAnswerDelta:  lastAnswerDelta,
	}
}

// EvidenceSource is where a report evidence quote came from.
type EvidenceSource string

const (
	EvidenceTranscript EvidenceSource = "transcript"
	EvidenceOCR        EvidenceSource = "ocr"
	EvidenceAnswer     EvidenceSource = "answer"
)

// EvidenceItem backs a report claim with a quote.
type EvidenceItem struct {
	Claim  string         `json:"claim"`
	Quote  string         `json:"quote"`
	Source EvidenceSource `json:"source"`
}

// Scores are the four evaluation dimensions, each in [0,10].
type Scores struct {
	TechnicalDepth              float64 `json:"technicalDepth"`
	Clarity                     float64 `json:"clarity"`
	Originality                 float64 `json:"originality"`
	ImplementationUnderstanding float64 `json:"implementationUnderstanding"`
}

// Report is the final evaluation. Lists are length-bounded: at most 8
// strengths, 8 improvements and 16 evidence items.
type Report struct {
	Scores       Scores         `json:"scores"`
	Overall      float64        `json:"overall"`
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	Evidence     []EvidenceItem `json:"evidence"`
}

// EmptyReport returns a well-formed zero report.
func EmptyReport() *Report {
	return &Report{
		Strengths:    []string{},
		Improvements: []string{},
		Evidence:     []EvidenceItem{},
	}
}

// SummaryMeta carries the structured parts of a rolling summary update.
type SummaryMeta struct {
	KeyPoints   []string `json:"key_points"`
	OpenThreads []string `json:"open_threads"`
	Terminology []string `json:"terminology"`
}

// Bundle is the full session output: every record list plus the report.
// Its shape is the input contract of the export layer.
type Bundle struct {
	Session        *Session            `json:"session"`
	Transcript     []TranscriptSegment `json:"transcriptSegments"`
	OCR            []OCRResult         `json:"ocrResults"`
	Questions      []Question          `json:"questions"`
	Answers        []Answer            `json:"answers"`
	Packets        []ContextPacket     `json:"contextPackets"`
	Report         *Report             `json:"report,omitempty"`
	RollingSummary string              `json:"rollingSummary"`
	SummaryMeta    SummaryMeta         `json:"summaryMeta"`
}
