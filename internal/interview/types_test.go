package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/viva/internal/evidence"
)

func TestNewSession(t *testing.T) {
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	sess := NewSession(ModeLive, Settings{MaxQuestions: 10}, started)

	require.NotEmpty(t, sess.ID)
	assert.Equal(t, StatusIdle, sess.Status)
	assert.Equal(t, started, sess.StartedAt)
	assert.True(t, sess.EndedAt.IsZero())

	other := NewSession(ModeLive, Settings{}, started)
	assert.NotEqual(t, sess.ID, other.ID)
}

func TestBuildPacketClassifiesOCRDelta(t *testing.T) {
	at := time.Now()
	packet := BuildPacket("", "func main() { run(); }\nreturn nil; import x;", "q-1", "", at)

	require.NotEmpty(t, packet.ID)
	assert.Equal(t, evidence.ScreenCode, packet.ScreenHint.Type)
	assert.Equal(t, "q-1", packet.ActiveQuestionID)
	assert.Equal(t, at, packet.Timestamp)
}

func TestBuildPacketEmptyDeltas(t *testing.T) {
	packet := BuildPacket("", "", "", "the answer", time.Now())

	// Answer-only events still produce a packet; empty OCR classifies
	// to unknown with zero confidence.
	assert.Equal(t, evidence.ScreenUnknown, packet.ScreenHint.Type)
	assert.Equal(t, 0.0, packet.ScreenHint.Confidence)
	assert.Equal(t, "the answer", packet.LastAnswerDelta)
}

func TestValidIntent(t *testing.T) {
	for _, intent := range Intents {
		assert.True(t, ValidIntent(string(intent)))
	}
	assert.False(t, ValidIntent("vibes"))
	assert.False(t, ValidIntent(""))
}
