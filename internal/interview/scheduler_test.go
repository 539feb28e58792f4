package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldAskFirstQuestion(t *testing.T) {
	tests := []struct {
		name            string
		elapsedSec      int
		transcriptChars int
		meaningfulOCR   bool
		want            bool
	}{
		{"before time floor", 9, 5000, true, false},
		{"at floor with transcript volume", 10, 180, false, true},
		{"at floor below transcript threshold", 10, 179, false, false},
		{"below threshold but meaningful ocr", 10, 0, true, true},
		{"no evidence at all", 120, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(60)
			got := s.ShouldAskFirstQuestion(tt.elapsedSec, tt.transcriptChars, tt.meaningfulOCR)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldRefreshSummary(t *testing.T) {
	s := NewScheduler(60)

	assert.False(t, s.ShouldRefreshSummary(0), "zero elapsed never refreshes")
	assert.False(t, s.ShouldRefreshSummary(59))
	assert.True(t, s.ShouldRefreshSummary(60))

	// The gate advanced; the next window starts at 60.
	assert.False(t, s.ShouldRefreshSummary(100))
	assert.True(t, s.ShouldRefreshSummary(120))
}

func TestNextIntentDeficitOrder(t *testing.T) {
	s := NewScheduler(60)

	// All tallies zero: declaration order wins.
	assert.Equal(t, IntentArchitecture, s.NextIntent())

	s.RegisterAskedIntent(IntentArchitecture)
	assert.Equal(t, IntentImplementation, s.NextIntent())

	// Asking out of order leaves the earliest zero-tally intent next.
	s.RegisterAskedIntent(IntentPerformance)
	assert.Equal(t, IntentImplementation, s.NextIntent())

	for _, intent := range []Intent{IntentImplementation, IntentTradeoff, IntentDebugging, IntentTesting, IntentSecurity} {
		s.RegisterAskedIntent(intent)
	}
	// Full cycle complete: back to declaration order.
	assert.Equal(t, IntentArchitecture, s.NextIntent())
	assert.Equal(t, 7, s.QuestionCount())
}

func TestFollowupQueueFIFO(t *testing.T) {
	s := NewScheduler(60)

	_, ok := s.DequeueFollowup()
	assert.False(t, ok)

	s.EnqueueFollowups([]string{"first", "second"})
	s.EnqueueFollowups([]string{"third"})
	require.Equal(t, 3, s.FollowupDepth())

	got, ok := s.DequeueFollowup()
	require.True(t, ok)
	assert.Equal(t, "first", got)

	got, ok = s.DequeueFollowup()
	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, s.FollowupDepth())
}

func TestDifficultyHint(t *testing.T) {
	s := NewScheduler(60)

	assert.Equal(t, 1, s.DifficultyHint())

	for i := 0; i < 4; i++ {
		s.RegisterAskedIntent(IntentArchitecture)
	}
	assert.Equal(t, 2, s.DifficultyHint())

	for i := 0; i < 4; i++ {
		s.RegisterAskedIntent(IntentTesting)
	}
	assert.Equal(t, 3, s.DifficultyHint())

	// Clamped at 3 no matter how long the session runs.
	for i := 0; i < 20; i++ {
		s.RegisterAskedIntent(IntentDebugging)
	}
	assert.Equal(t, 3, s.DifficultyHint())
}

func TestSchedulerReset(t *testing.T) {
	s := NewScheduler(60)
	s.RegisterAskedIntent(IntentSecurity)
	s.EnqueueFollowups([]string{"pending"})
	s.ShouldRefreshSummary(60)

	s.Reset()

	assert.Equal(t, 0, s.QuestionCount())
	assert.Equal(t, 0, s.FollowupDepth())
	assert.Equal(t, IntentArchitecture, s.NextIntent())
	assert.True(t, s.ShouldRefreshSummary(60), "summary gate re-arms after reset")
}
