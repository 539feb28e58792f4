package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("interview").WithSession("sess-1").WithOutput(&buf)

	log.Info("question_pushed", map[string]interface{}{"intent": "architecture"})

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "interview", e.Component)
	assert.Equal(t, "question_pushed", e.Event)
	assert.Equal(t, "sess-1", e.Session)
	assert.Equal(t, "architecture", e.Extra["intent"])
	assert.Empty(t, e.Error)
}

func TestLoggerErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New("backend").WithOutput(&buf)

	log.Warn("retry", map[string]interface{}{"attempt": 1}, assert.AnError)

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelWarn, e.Level)
	assert.Equal(t, assert.AnError.Error(), e.Error)
}

func TestTimedEvent(t *testing.T) {
	var buf bytes.Buffer
	log := New("backend").WithOutput(&buf)

	log.TimedEvent("evaluation_done", time.Now().Add(-50*time.Millisecond), nil)

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.GreaterOrEqual(t, e.Duration, int64(50))
}
