package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOutputText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"prefers convenience field",
			`{"output_text":"direct","output":[{"content":[{"text":"ignored"}]}]}`,
			"direct",
		},
		{
			"joins content parts",
			`{"output":[{"content":[{"text":"part one"},{"text":"part two"}]}]}`,
			"part one\npart two",
		},
		{"empty payload", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload responsesPayload
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &payload))
			assert.Equal(t, tt.want, extractOutputText(&payload))
		})
	}
}

func TestDecodeModelJSON(t *testing.T) {
	type out struct {
		Question string `json:"question"`
	}

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain object", `{"question":"why?"}`, "why?", false},
		{"fenced", "```json\n{\"question\":\"why?\"}\n```", "why?", false},
		{"fenced without language", "```\n{\"question\":\"why?\"}\n```", "why?", false},
		{"surrounding whitespace", "  {\"question\":\"why?\"}  ", "why?", false},
		{"empty output", "", "", true},
		{"prose instead of JSON", "I think the answer is clear.", "", true},
		{"truncated object", `{"question":"why?`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v out
			err := decodeModelJSON(tt.text, &v)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Question)
		})
	}
}
