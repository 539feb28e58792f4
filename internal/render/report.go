package render

import (
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/viva/internal/interview"
)

// Renderer formats session output for the terminal.
type Renderer struct {
	pretty bool
}

// New creates a renderer. Pretty mode adds color; plain mode suits
// piping and machine consumption.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Report formats the final evaluation.
func (r *Renderer) Report(b *interview.Bundle) string {
	if b == nil || b.Report == nil {
		return "No report available"
	}

	var sb strings.Builder
	rep := b.Report

	if r.pretty {
		sb.WriteString(color.CyanString("Interview Report"))
		sb.WriteString("\n" + strings.Repeat("─", 60) + "\n")
	} else {
		sb.WriteString("INTERVIEW REPORT\n\n")
	}

	sb.WriteString("  Overall:                      " + r.score(rep.Overall) + "/10\n")
	sb.WriteString("  Technical depth:              " + r.score(rep.Scores.TechnicalDepth) + "/10\n")
	sb.WriteString("  Clarity:                      " + r.score(rep.Scores.Clarity) + "/10\n")
	sb.WriteString("  Originality:                  " + r.score(rep.Scores.Originality) + "/10\n")
	sb.WriteString("  Implementation understanding: " + r.score(rep.Scores.ImplementationUnderstanding) + "/10\n")

	if len(rep.Strengths) > 0 {
		sb.WriteString("\n" + r.heading("Strengths") + "\n")
		for _, item := range rep.Strengths {
			sb.WriteString("  + " + item + "\n")
		}
	}
	if len(rep.Improvements) > 0 {
		sb.WriteString("\n" + r.heading("Improvements") + "\n")
		for _, item := range rep.Improvements {
			sb.WriteString("  - " + item + "\n")
		}
	}
	if len(rep.Evidence) > 0 {
		sb.WriteString("\n" + r.heading("Evidence") + "\n")
		for _, ev := range rep.Evidence {
			sb.WriteString("  • " + ev.Claim + " (" + string(ev.Source) + ")\n")
			sb.WriteString("    \"" + Truncate(ev.Quote, 100) + "\"\n")
		}
	}
	if len(b.Questions) > 0 {
		sb.WriteString("\n" + r.heading("Questions") + "\n")
		for _, q := range b.Questions {
			sb.WriteString("  Q (" + string(q.Intent) + "): " + q.Text + "\n")
			if answer := findAnswer(b.Answers, q.ID); answer != nil {
				sb.WriteString("    A: " + Truncate(answer.Text, 120) + "\n")
			}
		}
	}

	return sb.String()
}

// Sessions formats a session list, newest first.
func (r *Renderer) Sessions(sessions []*interview.Session) string {
	if len(sessions) == 0 {
		return "No sessions found"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Sessions"))
		sb.WriteString("\n" + strings.Repeat("─", 60) + "\n")
	} else {
		sb.WriteString("SESSIONS\n\n")
	}

	for _, sess := range sessions {
		status := string(sess.Status)
		if r.pretty {
			switch sess.Status {
			case interview.StatusDone:
				status = color.GreenString(status)
			case interview.StatusGeneratingReport:
				status = color.YellowString(status)
			default:
				status = color.BlueString(status)
			}
		}
		sb.WriteString("  " + sess.ID + "  " + sess.StartedAt.Format("2006-01-02 15:04") + "  " + string(sess.Mode) + "  " + status + "\n")
	}
	return sb.String()
}

// Question formats one asked question for plain-terminal sessions.
func (r *Renderer) Question(q *interview.Question, elapsed time.Duration) string {
	if q == nil {
		return ""
	}
	header := "Question (" + string(q.Intent) + ", difficulty " + difficultyLabel(q.Difficulty) + ", " + elapsed.Truncate(time.Second).String() + ")"
	if r.pretty {
		header = color.CyanString(header)
	}
	return header + "\n  " + q.Text + "\n"
}

func (r *Renderer) heading(s string) string {
	if r.pretty {
		return color.CyanString(s)
	}
	return strings.ToUpper(s) + ":"
}

func (r *Renderer) score(v float64) string {
	s := formatScore(v)
	if !r.pretty {
		return s
	}
	switch {
	case v >= 7:
		return color.GreenString(s)
	case v >= 4:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

func difficultyLabel(d int) string {
	switch d {
	case 1:
		return "intro"
	case 2:
		return "core"
	case 3:
		return "deep"
	default:
		return "intro"
	}
}
