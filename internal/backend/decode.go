package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// responsesPayload is the envelope of the OpenAI responses API.
type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// extractOutputText pulls the model text out of a responses payload,
// preferring the convenience field over the content parts.
func extractOutputText(payload *responsesPayload) string {
	if strings.TrimSpace(payload.OutputText) != "" {
		return payload.OutputText
	}

	var chunks []string
	for _, out := range payload.Output {
		for _, content := range out.Content {
			if content.Text != "" {
				chunks = append(chunks, content.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}

var (
	fenceOpenRe  = regexp.MustCompile(`(?i)^\x60\x60\x60(json)?\s*`)
	fenceCloseRe = regexp.MustCompile("\x60\x60\x60$")
)

// decodeModelJSON strips markdown code fences the model sometimes
// wraps around its output and unmarshals the remainder into v. This is
// the single validation boundary for model-produced JSON.
func decodeModelJSON(text string, v any) error {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return fmt.Errorf("empty model output")
	}
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = fenceCloseRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
