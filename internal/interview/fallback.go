package interview

import (
	"fmt"
	"math"
)

// Candidate is a question proposal, produced either by the intelligence
// backend or by the fixed fallback templates.
type Candidate struct {
	Question         string
	Intent           Intent
	Difficulty       int
	Grounding        Grounding
	FollowupTriggers []string
}

// One canonical prompt per intent. The backend-independent question
// source of last resort.
var fallbackQuestions = map[Intent]string{
	IntentArchitecture:   "Can you describe the end-to-end architecture and identify the most critical component?",
	IntentImplementation: "Walk me through one core function or module and explain exact implementation steps.",
	IntentTradeoff:       "What tradeoff did you make intentionally, and what alternative did you reject?",
	IntentDebugging:      "Tell me about a bug you hit and how you diagnosed and fixed it.",
	IntentTesting:        "How did you validate correctness and reliability for this project?",
	IntentSecurity:       "What are the main security/privacy risks here, and what mitigations did you implement?",
	IntentPerformance:    "Where are the main latency or cost bottlenecks, and how would you optimize them?",
}

// FallbackQuestion produces a fixed template question for the intent.
// Never fails: an unknown intent falls back to the implementation
// prompt. Grounding takes the first 2 snippets of each evidence list.
func (s *Scheduler) FallbackQuestion(intent Intent, transcriptSnippets, ocrSnippets []string) Candidate {
	text, ok := fallbackQuestions[intent]
	if !ok {
		text = fallbackQuestions[IntentImplementation]
	}
	return Candidate{
		Question:   text,
		Intent:     intent,
		Difficulty: s.DifficultyHint(),
		Grounding: Grounding{
			FromTranscript: firstN(transcriptSnippets, 2),
			FromOCR:        firstN(ocrSnippets, 2),
		},
	}
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

// FallbackReport derives a deterministic report from accumulated
// evidence volume alone. Used whenever no intelligence backend is
// available or every backend call failed. Each score is anchored at a
// base of 2, incremented by character volume over a per-dimension
// divisor and capped at 10.
func FallbackReport(transcript []TranscriptSegment, ocr []OCRResult, answers []Answer) *Report {
	transcriptChars := 0
	for _, seg := range transcript {
		transcriptChars += len(seg.Text)
	}
	ocrChars := 0
	for _, item := range ocr {
		ocrChars += len(item.Text)
	}
	answerChars := 0
	for _, a := range answers {
		answerChars += len(a.Text)
	}

	scores := Scores{
		TechnicalDepth:              volumeScore(answerChars+ocrChars, 450),
		Clarity:                     volumeScore(answerChars, 300),
		Originality:                 volumeScore(ocrChars, 600),
		ImplementationUnderstanding: volumeScore(transcriptChars, 450),
	}
	sum := scores.TechnicalDepth + scores.Clarity + scores.Originality + scores.ImplementationUnderstanding

	report := EmptyReport()
	report.Scores = scores
	report.Overall = math.Round(sum/4*10) / 10
	report.Strengths = []string{"Presented enough artifacts to support an interview baseline."}
	report.Improvements = []string{"Connect richer implementation evidence to each answer."}
	report.Evidence = []EvidenceItem{
		{
			Claim:  "Fallback scoring based on captured evidence volume",
			Quote:  volumeQuote(transcriptChars, ocrChars, answerChars),
			Source: EvidenceTranscript,
		},
	}
	return report
}

func volumeQuote(transcriptChars, ocrChars, answerChars int) string {
	return fmt.Sprintf("transcript=%d chars, ocr=%d chars, answers=%d chars", transcriptChars, ocrChars, answerChars)
}

func volumeScore(chars, divisor int) float64 {
	score := 2 + chars/divisor
	if score > 10 {
		score = 10
	}
	return float64(score)
}
