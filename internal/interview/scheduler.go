package interview

// Scheduler is the interview scheduling engine: a small state machine
// deciding when the first question is due, when the rolling summary
// needs a refresh, and which intent is most under-asked. The Controller
// owns one Scheduler per session and serializes access to it.
type Scheduler struct {
	questionCount      int
	intentCounts       map[Intent]int
	followups          []string
	lastSummarySec     int
	summaryIntervalSec int
}

// NewScheduler creates a Scheduler with all tallies zeroed.
func NewScheduler(summaryIntervalSec int) *Scheduler {
	s := &Scheduler{summaryIntervalSec: summaryIntervalSec}
	s.Reset()
	return s
}

// Reset zeroes all scheduling state. Called at session start.
func (s *Scheduler) Reset() {
	s.questionCount = 0
	s.intentCounts = make(map[Intent]int, len(Intents))
	for _, intent := range Intents {
		s.intentCounts[intent] = 0
	}
	s.followups = nil
	s.lastSummarySec = 0
}

// QuestionCount returns how many questions have been asked.
func (s *Scheduler) QuestionCount() int {
	return s.questionCount
}

// IntentCount returns the ask tally for one intent.
func (s *Scheduler) IntentCount(intent Intent) int {
	return s.intentCounts[intent]
}

// ShouldAskFirstQuestion decides whether enough evidence has accrued.
// The ordering is deliberate: time floor first, then transcript volume,
// then OCR meaningfulness. Spoken explanation is the primary signal and
// screen content a secondary trigger.
func (s *Scheduler) ShouldAskFirstQuestion(elapsedSec, transcriptChars int, hasMeaningfulOCR bool) bool {
	if elapsedSec < 10 {
		return false
	}
	if transcriptChars >= 180 {
		return true
	}
	return hasMeaningfulOCR
}

// ShouldRefreshSummary reports whether the summary interval has elapsed
// since the last refresh. Returning true advances the last-refresh
// marker, so the check is a one-shot gate the caller must honor.
func (s *Scheduler) ShouldRefreshSummary(elapsedSec int) bool {
	if elapsedSec == 0 {
		return false
	}
	if elapsedSec-s.lastSummarySec >= s.summaryIntervalSec {
		s.lastSummarySec = elapsedSec
		return true
	}
	return false
}

// NextIntent returns the intent with the minimum ask tally, ties broken
// by declaration order. This round-robin-by-deficit policy spreads
// coverage evenly across topics.
func (s *Scheduler) NextIntent() Intent {
	best := Intents[0]
	for _, intent := range Intents[1:] {
		if s.intentCounts[intent] < s.intentCounts[best] {
			best = intent
		}
	}
	return best
}

// RegisterAskedIntent increments the question count and the intent's
// tally. Called exactly once per question actually pushed.
func (s *Scheduler) RegisterAskedIntent(intent Intent) {
	s.questionCount++
	s.intentCounts[intent]++
}

// EnqueueFollowups appends follow-up triggers to the FIFO queue.
func (s *Scheduler) EnqueueFollowups(items []string) {
	s.followups = append(s.followups, items...)
}

// DequeueFollowup pops the oldest follow-up trigger, if any.
func (s *Scheduler) DequeueFollowup() (string, bool) {
	if len(s.followups) == 0 {
		return "", false
	}
	first := s.followups[0]
	s.followups = s.followups[1:]
	return first, true
}

// FollowupDepth returns the number of queued follow-up triggers.
func (s *Scheduler) FollowupDepth() int {
	return len(s.followups)
}

// DifficultyHint ratchets difficulty up one step every 4 questions,
// clamped to [1,3].
func (s *Scheduler) DifficultyHint() int {
	d := 1 + s.questionCount/4
	if d > 3 {
		d = 3
	}
	return d
}
