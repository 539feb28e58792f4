package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackQuestionPerIntent(t *testing.T) {
	s := NewScheduler(60)

	for _, intent := range Intents {
		got := s.FallbackQuestion(intent, nil, nil)
		assert.Equal(t, intent, got.Intent)
		assert.NotEmpty(t, got.Question)
		assert.Equal(t, 1, got.Difficulty)
	}
}

func TestFallbackQuestionUnknownIntent(t *testing.T) {
	s := NewScheduler(60)

	got := s.FallbackQuestion(Intent("nonsense"), nil, nil)
	assert.Equal(t, fallbackQuestions[IntentImplementation], got.Question)
}

func TestFallbackQuestionGrounding(t *testing.T) {
	s := NewScheduler(60)
	transcript := []string{"snippet one", "snippet two", "snippet three"}
	ocr := []string{"screen text"}

	got := s.FallbackQuestion(IntentArchitecture, transcript, ocr)
	assert.Equal(t, []string{"snippet one", "snippet two"}, got.Grounding.FromTranscript)
	assert.Equal(t, []string{"screen text"}, got.Grounding.FromOCR)
}

func TestFallbackReportEmptySession(t *testing.T) {
	report := FallbackReport(nil, nil, nil)

	// Base score 2 on every dimension with no evidence at all.
	assert.Equal(t, 2.0, report.Scores.TechnicalDepth)
	assert.Equal(t, 2.0, report.Scores.Clarity)
	assert.Equal(t, 2.0, report.Scores.Originality)
	assert.Equal(t, 2.0, report.Scores.ImplementationUnderstanding)
	assert.Equal(t, 2.0, report.Overall)
	require.Len(t, report.Evidence, 1)
	assert.Equal(t, "transcript=0 chars, ocr=0 chars, answers=0 chars", report.Evidence[0].Quote)
	assert.Equal(t, EvidenceTranscript, report.Evidence[0].Source)
}

func TestFallbackReportVolumeScoring(t *testing.T) {
	transcript := []TranscriptSegment{{Text: strings.Repeat("t", 900)}}
	ocr := []OCRResult{{Text: strings.Repeat("o", 600)}}
	answers := []Answer{{Text: strings.Repeat("a", 300)}}

	report := FallbackReport(transcript, ocr, answers)

	// technicalDepth: 2 + (300+600)/450 = 4
	assert.Equal(t, 4.0, report.Scores.TechnicalDepth)
	// clarity: 2 + 300/300 = 3
	assert.Equal(t, 3.0, report.Scores.Clarity)
	// originality: 2 + 600/600 = 3
	assert.Equal(t, 3.0, report.Scores.Originality)
	// implementationUnderstanding: 2 + 900/450 = 4
	assert.Equal(t, 4.0, report.Scores.ImplementationUnderstanding)
	// overall: mean of (4,3,3,4) = 3.5
	assert.Equal(t, 3.5, report.Overall)
	assert.Equal(t, "transcript=900 chars, ocr=600 chars, answers=300 chars", report.Evidence[0].Quote)
}

func TestFallbackReportScoreCap(t *testing.T) {
	answers := []Answer{{Text: strings.Repeat("a", 100000)}}

	report := FallbackReport(nil, nil, answers)
	assert.Equal(t, 10.0, report.Scores.TechnicalDepth)
	assert.Equal(t, 10.0, report.Scores.Clarity)
}

func TestFallbackReportDeterministic(t *testing.T) {
	transcript := []TranscriptSegment{{Text: "hello world"}}

	first := FallbackReport(transcript, nil, nil)
	second := FallbackReport(transcript, nil, nil)
	assert.Equal(t, first, second)
}
