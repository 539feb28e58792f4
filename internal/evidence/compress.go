package evidence

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CompressMarker prefixes every compressed OCR payload.
const CompressMarker = "COMPRESSED_OCR"

const (
	compressThreshold = 1200
	compressMaxLen    = 2400

	maxFilenameLines = 8
	maxSymbolLines   = 12
	maxIssueLines    = 10
	headLines        = 8
	tailLines        = 8
)

// sourcePattern matches filename-like tokens for known source extensions.
var sourcePattern = "**/*.{js,jsx,ts,tsx,py,java,go,rs,md,json,yaml,yml}"

var (
	symbolRe = regexp.MustCompile(`(?i)(class|function|def|const|let|interface|type)\s+`)
	issueRe  = regexp.MustCompile(`(?i)(todo|bug|error|fail|warning)`)
)

func looksLikeFilename(line string) bool {
	for _, field := range strings.Fields(line) {
		token := strings.ToLower(strings.Trim(field, `:;,()[]"'`))
		if token == "" {
			continue
		}
		if ok, err := doublestar.Match(sourcePattern, token); err == nil && ok {
			return true
		}
	}
	return false
}

// Compress bounds a large OCR blob by extracting its highest-signal
// lines: filenames, symbol definitions, flagged issues, head and tail.
// Input at or under 1200 characters passes through untouched (trimmed).
// Output is prefixed with the compression marker and hard-truncated to
// 2400 characters.
func Compress(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if len(text) <= compressThreshold {
		return text
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	var filenames, symbols, flagged []string
	for _, line := range lines {
		if len(filenames) < maxFilenameLines && looksLikeFilename(line) {
			filenames = append(filenames, line)
		}
		if len(symbols) < maxSymbolLines && symbolRe.MatchString(line) {
			symbols = append(symbols, line)
		}
		if len(flagged) < maxIssueLines && issueRe.MatchString(line) {
			flagged = append(flagged, line)
		}
	}

	head := lines
	if len(head) > headLines {
		head = head[:headLines]
	}
	tail := lines
	if len(tail) > tailLines {
		tail = tail[len(tail)-tailLines:]
	}

	// Priority-ordered union, deduplicated by insertion order.
	picked := []string{CompressMarker}
	seen := make(map[string]struct{})
	for _, group := range [][]string{filenames, symbols, flagged, head, tail} {
		for _, line := range group {
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			picked = append(picked, line)
		}
	}

	out := strings.Join(picked, "\n")
	if len(out) > compressMaxLen {
		out = out[:compressMaxLen]
	}
	return out
}
