// Package backend defines the intelligence backend contract consumed
// by the session controller, plus the OpenAI HTTP implementation. All
// six operations may fail (timeout, transport error, malformed JSON);
// callers treat failure identically to "no result".
package backend

import "context"

// OCRText is the result of a vision OCR call.
type OCRText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// EvidenceLists pairs recent transcript and OCR snippets.
type EvidenceLists struct {
	Transcript []string `json:"transcript"`
	OCR        []string `json:"ocr"`
}

// SummaryInput feeds a rolling-summary refresh.
type SummaryInput struct {
	RollingSummary     string   `json:"rollingSummary"`
	TranscriptSnippets []string `json:"transcriptSnippets"`
	OCRSnippets        []string `json:"ocrSnippets"`
	QASnippets         []string `json:"qaSnippets"`
}

// Summary is the refreshed rolling summary with structured metadata.
type Summary struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	OpenThreads []string `json:"open_threads"`
	Terminology []string `json:"terminology"`
}

// Grounding references the snippets that justified a question.
type Grounding struct {
	FromTranscript []string `json:"from_transcript"`
	FromOCR        []string `json:"from_ocr"`
}

// QuestionInput seeds next-question generation.
type QuestionInput struct {
	RollingSummary string        `json:"rolling_summary"`
	TopEvidence    EvidenceLists `json:"top_evidence"`
	LastQuestion   string        `json:"last_question,omitempty"`
	LastAnswer     string        `json:"last_answer,omitempty"`
	DesiredIntent  string        `json:"desired_intent"`
	DifficultyHint int           `json:"difficulty_hint"`
}

// GeneratedQuestion is a backend-proposed question.
type GeneratedQuestion struct {
	Question         string    `json:"question"`
	Intent           string    `json:"intent"`
	Difficulty       int       `json:"difficulty"`
	Grounding        Grounding `json:"grounding"`
	FollowupTriggers []string  `json:"followup_triggers"`
}

// FollowupInput seeds follow-up generation from the last Q/A pair.
type FollowupInput struct {
	CurrentQuestion string        `json:"current_question"`
	Answer          string        `json:"answer"`
	EvidenceDeltas  EvidenceLists `json:"evidence_deltas"`
}

// Followup is a backend-proposed follow-up question.
type Followup struct {
	Followup  string     `json:"followup"`
	Reason    string     `json:"reason"`
	Grounding *Grounding `json:"grounding"`
}

// QAPair carries the full question and answer text lists.
type QAPair struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

// EvaluationInput feeds the final evaluation call.
type EvaluationInput struct {
	RollingSummary string   `json:"rolling_summary"`
	Transcript     []string `json:"transcript"`
	OCR            []string `json:"ocr"`
	QA             QAPair   `json:"qa"`
}

// Evaluation is the raw final-evaluation payload. Field values are
// deliberately loose: the backend is never trusted verbatim, and the
// controller clamps, truncates and validates every field before use.
type Evaluation struct {
	Scores       map[string]any   `json:"scores"`
	Overall      any              `json:"overall"`
	Strengths    []any            `json:"strengths"`
	Improvements []any            `json:"improvements"`
	Evidence     []map[string]any `json:"evidence"`
}

// Intelligence is the backend contract. Implementations must honor the
// context for cancellation and carry their own per-call timeouts.
type Intelligence interface {
	TranscribeAudio(ctx context.Context, chunk []byte) (string, error)
	OCRFromImage(ctx context.Context, image []byte) (*OCRText, error)
	UpdateRollingSummary(ctx context.Context, input SummaryInput) (*Summary, error)
	GenerateNextQuestion(ctx context.Context, input QuestionInput) (*GeneratedQuestion, error)
	GenerateFollowup(ctx context.Context, input FollowupInput) (*Followup, error)
	GenerateFinalEvaluation(ctx context.Context, input EvaluationInput) (*Evaluation, error)
}
