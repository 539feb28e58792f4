package evidence

import (
	"math"
	"regexp"
	"strings"
)

// ScreenType labels what kind of content an OCR sample represents.
type ScreenType string

const (
	ScreenCode     ScreenType = "code"
	ScreenSlides   ScreenType = "slides"
	ScreenDiagram  ScreenType = "diagram"
	ScreenBrowser  ScreenType = "browser"
	ScreenTerminal ScreenType = "terminal"
	ScreenUnknown  ScreenType = "unknown"
)

// ScreenHint is the classifier's best guess with a confidence score.
type ScreenHint struct {
	Type       ScreenType `json:"type"`
	Confidence float64    `json:"confidence"`
}

var (
	codeTokens     = []string{"import ", "class ", "def ", "function ", "=>", "{}", "const ", "let ", "var ", ";"}
	diagramTokens  = []string{"api", "db", "database", "service", "queue", "cache", "pipeline", "->", "=>", "diagram", "flow"}
	browserTokens  = []string{"address bar", "new tab", "bookmark", "history", "search"}
	terminalTokens = []string{"$ ", "npm ", "pnpm ", "yarn ", "error:", "warning:", "stack trace", "bash", "zsh"}

	punctRe  = regexp.MustCompile(`[{};]`)
	bulletRe = regexp.MustCompile(`^[-*\d.)]`)
	blankRe  = regexp.MustCompile(`\n+`)
)

func countMatches(text string, tokens []string) float64 {
	lower := strings.ToLower(text)
	n := 0.0
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			n++
		}
	}
	return n
}

// Classify heuristically labels an OCR text blob. Empty input yields
// {unknown, 0}. A winning score below 1.0 yields {unknown, 0.25}
// regardless of relative ranking, guarding against false-positive wins
// on sparse noisy text. Otherwise confidence is the winning score over
// the score total, clamped to [0.35, 0.95] and rounded to 2 decimals.
func Classify(text string) ScreenHint {
	if strings.TrimSpace(text) == "" {
		return ScreenHint{Type: ScreenUnknown, Confidence: 0}
	}

	var lines []string
	for _, line := range blankRe.Split(text, -1) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	shortLineRatio := 0.0
	bulletCount := 0
	if len(lines) > 0 {
		short := 0
		for _, line := range lines {
			if len(line) < 60 {
				short++
			}
			if bulletRe.MatchString(line) {
				bulletCount++
			}
		}
		shortLineRatio = float64(short) / float64(len(lines))
	}

	codeScore := countMatches(text, codeTokens) + float64(len(punctRe.FindAllString(text, -1)))/10
	slideScore := shortLineRatio * 2
	if bulletCount > 2 {
		slideScore += 1.5
	}
	diagramScore := countMatches(text, diagramTokens)
	browserScore := countMatches(text, browserTokens)
	terminalScore := countMatches(text, terminalTokens)

	scored := []struct {
		kind  ScreenType
		score float64
	}{
		{ScreenCode, codeScore},
		{ScreenSlides, slideScore},
		{ScreenDiagram, diagramScore},
		{ScreenBrowser, browserScore},
		{ScreenTerminal, terminalScore},
	}

	best := scored[0]
	total := 0.0
	for _, s := range scored {
		total += s.score
		if s.score > best.score {
			best = s
		}
	}

	if best.score < 1 {
		return ScreenHint{Type: ScreenUnknown, Confidence: 0.25}
	}

	confidence := 0.4
	if total > 0 {
		confidence = best.score / total
	}
	confidence = math.Min(0.95, math.Max(0.35, confidence))
	confidence = math.Round(confidence*100) / 100

	return ScreenHint{Type: best.kind, Confidence: confidence}
}

// MeaningfulOCR reports whether an OCR delta carries enough signal to
// count as screen evidence: at least 20 characters, at least 12 of them
// alphabetic.
func MeaningfulOCR(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 20 {
		return false
	}
	alpha := 0
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alpha++
		}
	}
	return alpha >= 12
}
