package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joss/viva/internal/interview"
)

// Markdown renders a session bundle as a shareable report document.
func Markdown(b *interview.Bundle) string {
	var lines []string
	push := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	sessionID := "session"
	if b.Session != nil && b.Session.ID != "" {
		sessionID = b.Session.ID
	}
	push("# Interview Report: %s", sessionID)
	push("")
	push("- Started: %s", formatTime(sessionTime(b, false)))
	push("- Ended: %s", formatTime(sessionTime(b, true)))
	push("- Overall: %s/10", overallScore(b.Report))
	push("")
	push("## Scores")
	if b.Report != nil {
		push("- Technical Depth: %s/10", formatScore(b.Report.Scores.TechnicalDepth))
		push("- Clarity: %s/10", formatScore(b.Report.Scores.Clarity))
		push("- Originality: %s/10", formatScore(b.Report.Scores.Originality))
		push("- Implementation Understanding: %s/10", formatScore(b.Report.Scores.ImplementationUnderstanding))
	} else {
		push("- Technical Depth: n/a/10")
		push("- Clarity: n/a/10")
		push("- Originality: n/a/10")
		push("- Implementation Understanding: n/a/10")
	}
	push("")
	push("## Strengths")
	if b.Report != nil {
		for _, item := range b.Report.Strengths {
			push("- %s", item)
		}
	}
	push("")
	push("## Improvements")
	if b.Report != nil {
		for _, item := range b.Report.Improvements {
			push("- %s", item)
		}
	}
	push("")
	push("## Evidence")
	if b.Report != nil {
		for _, ev := range b.Report.Evidence {
			push("- **%s** (%s): %q", ev.Claim, ev.Source, ev.Quote)
		}
	}
	push("")
	push("## Q/A")
	for _, q := range b.Questions {
		push("- Q (%s, d%d): %s", q.Intent, q.Difficulty, q.Text)
		if answer := findAnswer(b.Answers, q.ID); answer != nil {
			push("  - A: %s", answer.Text)
		}
	}

	return strings.Join(lines, "\n")
}

// BundleJSON serializes the full bundle for archival export.
func BundleJSON(b *interview.Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

func findAnswer(answers []interview.Answer, questionID string) *interview.Answer {
	for i := range answers {
		if answers[i].QuestionID == questionID {
			return &answers[i]
		}
	}
	return nil
}

func sessionTime(b *interview.Bundle, ended bool) time.Time {
	if b.Session == nil {
		return time.Time{}
	}
	if ended {
		return b.Session.EndedAt
	}
	return b.Session.StartedAt
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func overallScore(r *interview.Report) string {
	if r == nil {
		return "n/a"
	}
	return formatScore(r.Overall)
}
