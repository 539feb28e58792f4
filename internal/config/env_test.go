package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	e := Load()
	assert.Equal(t, "gpt-4o", e.ReasoningModel)
	assert.Equal(t, "whisper-1", e.STTModel)
	assert.Equal(t, 60, e.SummaryIntervalSec)
	assert.Equal(t, 10, e.MaxQuestions)
	assert.NotEmpty(t, e.DataDir)
}

func TestLoadOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("VIVA_SUMMARY_INTERVAL", "90")
	t.Setenv("VIVA_MAX_QUESTIONS", "4")
	t.Setenv("VIVA_REASONING_MODEL", "gpt-4o-mini")

	e := Load()
	assert.Equal(t, 90, e.SummaryIntervalSec)
	assert.Equal(t, 4, e.MaxQuestions)
	assert.Equal(t, "gpt-4o-mini", e.ReasoningModel)
}

func TestLoadIgnoresInvalidInt(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("VIVA_MAX_QUESTIONS", "not-a-number")

	e := Load()
	assert.Equal(t, 10, e.MaxQuestions)
}

func TestLoadCachesOnce(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first := Load()
	t.Setenv("VIVA_MAX_QUESTIONS", "3")
	second := Load()
	assert.Same(t, first, second)
}
