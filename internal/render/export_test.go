package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/viva/internal/interview"
)

func sampleBundle() *interview.Bundle {
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	report := interview.EmptyReport()
	report.Scores = interview.Scores{
		TechnicalDepth:              8,
		Clarity:                     6.5,
		Originality:                 5,
		ImplementationUnderstanding: 7,
	}
	report.Overall = 6.6
	report.Strengths = []string{"explains tradeoffs"}
	report.Improvements = []string{"quantify latency claims"}
	report.Evidence = []interview.EvidenceItem{
		{Claim: "knows the retry path", Quote: "we retry twice with backoff", Source: interview.EvidenceTranscript},
	}

	return &interview.Bundle{
		Session: &interview.Session{
			ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Mode:      interview.ModeLive,
			StartedAt: started,
			EndedAt:   started.Add(10 * time.Minute),
			Status:    interview.StatusDone,
		},
		Questions: []interview.Question{
			{ID: "q1", Text: "How does retry work?", Intent: interview.IntentImplementation, Difficulty: 2},
			{ID: "q2", Text: "What would you change?", Intent: interview.IntentTradeoff, Difficulty: 1},
		},
		Answers: []interview.Answer{
			{ID: "a1", QuestionID: "q1", Text: "We retry twice with linear backoff."},
		},
		Report: report,
	}
}

func TestMarkdownReport(t *testing.T) {
	md := Markdown(sampleBundle())

	assert.True(t, strings.HasPrefix(md, "# Interview Report: 01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.Contains(t, md, "- Started: 2026-03-14T10:00:00Z")
	assert.Contains(t, md, "- Ended: 2026-03-14T10:10:00Z")
	assert.Contains(t, md, "- Overall: 6.6/10")
	assert.Contains(t, md, "- Technical Depth: 8/10")
	assert.Contains(t, md, "- Clarity: 6.5/10")
	assert.Contains(t, md, "- explains tradeoffs")
	assert.Contains(t, md, `- **knows the retry path** (transcript): "we retry twice with backoff"`)
	assert.Contains(t, md, "- Q (implementation, d2): How does retry work?")
	assert.Contains(t, md, "  - A: We retry twice with linear backoff.")

	// Unanswered questions carry no answer line.
	qa := md[strings.Index(md, "What would you change?"):]
	assert.NotContains(t, qa, "- A:")
}

func TestMarkdownEmptyBundle(t *testing.T) {
	md := Markdown(&interview.Bundle{})

	assert.Contains(t, md, "# Interview Report: session")
	assert.Contains(t, md, "- Started: n/a")
	assert.Contains(t, md, "- Overall: n/a/10")
	assert.Contains(t, md, "- Technical Depth: n/a/10")
}

func TestBundleJSONRoundTrip(t *testing.T) {
	data, err := BundleJSON(sampleBundle())
	require.NoError(t, err)

	var decoded interview.Bundle
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", decoded.Session.ID)
	assert.Len(t, decoded.Questions, 2)
	assert.Equal(t, 6.6, decoded.Report.Overall)
}

func TestRendererReportPlain(t *testing.T) {
	out := New(false).Report(sampleBundle())

	assert.Contains(t, out, "INTERVIEW REPORT")
	assert.Contains(t, out, "Overall:                      6.6/10")
	assert.Contains(t, out, "+ explains tradeoffs")
	assert.Contains(t, out, "- quantify latency claims")
	assert.Contains(t, out, "Q (implementation): How does retry work?")
}

func TestRendererReportMissing(t *testing.T) {
	assert.Equal(t, "No report available", New(false).Report(nil))
	assert.Equal(t, "No report available", New(false).Report(&interview.Bundle{}))
}

func TestRendererSessions(t *testing.T) {
	r := New(false)
	assert.Equal(t, "No sessions found", r.Sessions(nil))

	out := r.Sessions([]*interview.Session{{
		ID:        "abc",
		Mode:      interview.ModeLive,
		Status:    interview.StatusDone,
		StartedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "2026-03-14 10:00")
	assert.Contains(t, out, "done")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "long te...", Truncate("long text that overflows", 10))
}
