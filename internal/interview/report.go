package interview

import (
	"fmt"
	"strconv"

	"github.com/joss/viva/internal/backend"
)

const (
	maxStrengths    = 8
	maxImprovements = 8
	maxEvidence     = 16
)

// NormalizeReport converts a raw backend evaluation into a well-formed
// Report. Backend output is never trusted verbatim: scores are coerced
// to numbers and clamped to [0,10], lists are truncated, evidence
// entries missing any field are dropped and invalid sources default to
// transcript.
func NormalizeReport(eval *backend.Evaluation) *Report {
	report := EmptyReport()
	if eval == nil {
		return report
	}

	report.Scores = Scores{
		TechnicalDepth:              clampScore(toNumber(eval.Scores["technicalDepth"])),
		Clarity:                     clampScore(toNumber(eval.Scores["clarity"])),
		Originality:                 clampScore(toNumber(eval.Scores["originality"])),
		ImplementationUnderstanding: clampScore(toNumber(eval.Scores["implementationUnderstanding"])),
	}
	report.Overall = clampScore(toNumber(eval.Overall))
	report.Strengths = toStrings(eval.Strengths, maxStrengths)
	report.Improvements = toStrings(eval.Improvements, maxImprovements)

	for _, entry := range eval.Evidence {
		if len(report.Evidence) >= maxEvidence {
			break
		}
		claim := toText(entry["claim"])
		quote := toText(entry["quote"])
		source := toText(entry["source"])
		if claim == "" || quote == "" || source == "" {
			continue
		}
		report.Evidence = append(report.Evidence, EvidenceItem{
			Claim:  claim,
			Quote:  quote,
			Source: validSource(source),
		})
	}

	return report
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func toText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func toStrings(items []any, limit int) []string {
	out := []string{}
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		if text := toText(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func validSource(s string) EvidenceSource {
	switch EvidenceSource(s) {
	case EvidenceTranscript, EvidenceOCR, EvidenceAnswer:
		return EvidenceSource(s)
	default:
		return EvidenceTranscript
	}
}
