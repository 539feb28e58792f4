package evidence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeSuppressesRepeats(t *testing.T) {
	d := NewDeduper()

	first := d.Dedupe("  we use a worker pool here  ")
	assert.Equal(t, "we use a worker pool here", first)

	second := d.Dedupe("we use a worker pool here")
	assert.Empty(t, second)
}

func TestDedupeEmptyInput(t *testing.T) {
	d := NewDeduper()
	assert.Empty(t, d.Dedupe(""))
	assert.Empty(t, d.Dedupe("   \n\t"))
}

func TestDedupeChannelsAreIndependent(t *testing.T) {
	transcript := NewDeduper()
	ocr := NewDeduper()

	assert.NotEmpty(t, transcript.Dedupe("func main()"))
	assert.NotEmpty(t, ocr.Dedupe("func main()"))
}

func TestDedupeReset(t *testing.T) {
	d := NewDeduper()
	d.Dedupe("hello world")
	d.Reset()
	assert.Equal(t, "hello world", d.Dedupe("hello world"))
}

func TestClassifyEmpty(t *testing.T) {
	hint := Classify("")
	assert.Equal(t, ScreenUnknown, hint.Type)
	assert.Zero(t, hint.Confidence)

	hint = Classify("   \n ")
	assert.Equal(t, ScreenUnknown, hint.Type)
	assert.Zero(t, hint.Confidence)
}

func TestClassifyTerminal(t *testing.T) {
	hint := Classify("$ npm run build\nerror: module not found")
	assert.Equal(t, ScreenTerminal, hint.Type)
	assert.GreaterOrEqual(t, hint.Confidence, 0.35)
	assert.LessOrEqual(t, hint.Confidence, 0.95)
}

func TestClassifyCode(t *testing.T) {
	text := `import { useState } from 'react';
function App() {
  const [count, setCount] = useState(0);
  return count;
}`
	hint := Classify(text)
	assert.Equal(t, ScreenCode, hint.Type)
	assert.GreaterOrEqual(t, hint.Confidence, 0.35)
}

func TestClassifySparseNoiseIsUnknown(t *testing.T) {
	// Long enough to have lines, no category reaches the 1.0 floor.
	hint := Classify("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	assert.Equal(t, ScreenUnknown, hint.Type)
	assert.Equal(t, 0.25, hint.Confidence)
}

func TestClassifySlides(t *testing.T) {
	text := "- Scaling strategy\n- Sharding plan\n- Cost model\n- Rollout steps"
	hint := Classify(text)
	assert.Equal(t, ScreenSlides, hint.Type)
}

func TestClassifyConfidenceBounds(t *testing.T) {
	// A blob dominated by one category should still be capped at 0.95.
	text := strings.Repeat("$ npm install\nerror: fail\nbash zsh stack trace\n", 4)
	hint := Classify(text)
	assert.LessOrEqual(t, hint.Confidence, 0.95)
	assert.GreaterOrEqual(t, hint.Confidence, 0.35)
}

func TestCompressIdentityUnderThreshold(t *testing.T) {
	short := strings.Repeat("x", 1200)
	assert.Equal(t, short, Compress(short))
	assert.Equal(t, "hello", Compress("  hello  "))
	assert.Empty(t, Compress(""))
}

func TestCompressBoundsLargeInput(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("controller.go\n")
	sb.WriteString("func handleRequest(w http.ResponseWriter) {\n")
	sb.WriteString("TODO: fix retry logic\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "line %d with some padding text to exceed the threshold\n", i)
	}

	out := Compress(sb.String())
	assert.True(t, strings.HasPrefix(out, CompressMarker))
	assert.LessOrEqual(t, len(out), 2400)
	assert.Contains(t, out, "controller.go")
	assert.Contains(t, out, "TODO: fix retry logic")
}

func TestCompressDeduplicatesLines(t *testing.T) {
	// Head overlaps the filename extraction; the line must appear once.
	var sb strings.Builder
	sb.WriteString("main.go\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "padding line %d aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n", i)
	}

	out := Compress(sb.String())
	assert.Equal(t, 1, strings.Count(out, "main.go"))
}

func TestLooksLikeFilename(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"main.go", true},
		{"src/services/contextBuilder.js:", true},
		{"open scheduler.py in the editor", true},
		{"config.yaml", true},
		{"just some prose", false},
		{"version 1.2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeFilename(tt.line))
		})
	}
}

func TestMeaningfulOCR(t *testing.T) {
	assert.False(t, MeaningfulOCR(""))
	assert.False(t, MeaningfulOCR("short text"))
	assert.False(t, MeaningfulOCR("123456789012345678901234"))
	assert.True(t, MeaningfulOCR("the scheduler selects the next intent"))
}
