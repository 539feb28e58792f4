package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joss/viva/internal/backend"
	"github.com/joss/viva/internal/capture"
	"github.com/joss/viva/internal/evidence"
	"github.com/joss/viva/internal/logging"
)

// Answers shorter than this many tokens force a follow-up probe.
const shortAnswerTokens = 18

// How much recent evidence is sent per backend call.
const (
	questionEvidenceItems   = 5
	evaluationEvidenceItems = 12
)

// Store is the persistence collaborator: a write-through cache, not a
// dependency of record. The controller functions with it absent, and
// write failures never abort in-memory orchestration.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	SaveSegment(ctx context.Context, sessionID string, seg TranscriptSegment) error
	SaveOCR(ctx context.Context, sessionID string, o OCRResult) error
	SaveQuestion(ctx context.Context, sessionID string, q Question) error
	SaveAnswer(ctx context.Context, sessionID string, a Answer) error
	SaveBundle(ctx context.Context, b *Bundle) error
}

// GroundingSink receives asked questions and their evidence references,
// e.g. for projection into a graph store. Optional; failures are
// logged and ignored.
type GroundingSink interface {
	ProjectQuestion(ctx context.Context, sessionID string, q Question) error
}

// Recognizer is the local OCR collaborator. Shutdown must be safely
// callable even if Recognize was never invoked.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (text string, confidence float64, err error)
	Shutdown() error
}

// Option configures a Controller.
type Option func(*Controller)

// WithBackend sets the intelligence backend. Without one the
// controller runs entirely on deterministic fallbacks.
func WithBackend(b backend.Intelligence) Option {
	return func(c *Controller) { c.backend = b }
}

// WithStore sets the persistence collaborator.
func WithStore(s Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithGrounding sets the grounding sink.
func WithGrounding(g GroundingSink) Option {
	return func(c *Controller) { c.grounding = g }
}

// WithRecognizer sets the local OCR engine, used for frames instead of
// the backend vision model.
func WithRecognizer(r Recognizer) Option {
	return func(c *Controller) { c.recognizer = r }
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the session lifecycle: it wires evidence producers to
// the deduplicators and classifier, consults the scheduler, calls the
// intelligence backend (or its deterministic fallbacks) and assembles
// the final bundle. All session state lives on one Controller instance
// and is mutated only under its mutex.
type Controller struct {
	backend    backend.Intelligence
	store      Store
	grounding  GroundingSink
	recognizer Recognizer
	now        func() time.Time
	log        *logging.Logger

	settings Settings

	mu             sync.Mutex
	sched          *Scheduler
	transcriptSeen *evidence.Deduper
	ocrSeen        *evidence.Deduper
	session        *Session
	segments       []TranscriptSegment
	ocr            []OCRResult
	questions      []Question
	answers        []Answer
	packets        []ContextPacket
	summaryMeta    SummaryMeta
	currentQID     string
	awaitingAnswer bool
	report         *Report
	warning        string

	// Single-flight guard for question generation. Re-entrant calls
	// while one attempt is outstanding are dropped, not queued.
	inFlight atomic.Bool
}

// NewController creates a Controller with the given immutable settings.
func NewController(settings Settings, opts ...Option) *Controller {
	c := &Controller{
		settings:       settings,
		now:            time.Now,
		log:            logging.New("interview"),
		sched:          NewScheduler(settings.SummaryIntervalSec),
		transcriptSeen: evidence.NewDeduper(),
		ocrSeen:        evidence.NewDeduper(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resets all session-scoped state and creates a fresh session in
// the idle state.
func (c *Controller) Start(ctx context.Context, mode Mode) *Session {
	c.mu.Lock()
	c.sched.Reset()
	c.transcriptSeen.Reset()
	c.ocrSeen.Reset()
	c.segments = nil
	c.ocr = nil
	c.questions = nil
	c.answers = nil
	c.packets = nil
	c.summaryMeta = SummaryMeta{}
	c.currentQID = ""
	c.awaitingAnswer = false
	c.report = nil
	c.warning = ""
	c.session = NewSession(mode, c.settings, c.now())
	sess := *c.session
	c.mu.Unlock()

	c.log = c.log.WithSession(sess.ID)
	c.persistSession(ctx, &sess)
	c.log.Info("session_started", map[string]interface{}{"mode": string(mode)})
	return &sess
}

// BeginCapture transitions the session into the capturing state.
func (c *Controller) BeginCapture(ctx context.Context) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Status = StatusCapturing
	c.warning = ""
	sess := *c.session
	c.mu.Unlock()

	c.persistSession(ctx, &sess)
}

// Run consumes capture events until the context is canceled or the
// channel closes. Producers only enqueue; every state mutation happens
// on this consumer, serialized with the controller's direct methods.
func (c *Controller) Run(ctx context.Context, events <-chan capture.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case capture.AudioChunk:
				c.ProcessAudioChunk(ctx, e.Data)
			case capture.Frame:
				c.ProcessFrame(ctx, e.Image)
			case capture.Tick:
				// UI clock only; no orchestration state to touch.
			}
		}
	}
}

// ProcessAudioChunk transcribes an audio chunk through the backend and
// folds the resulting text into the session.
func (c *Controller) ProcessAudioChunk(ctx context.Context, chunk []byte) {
	if c.backend == nil || !c.captureActive() {
		return
	}
	text, err := c.backend.TranscribeAudio(ctx, chunk)
	if err != nil {
		c.Warnf("STT warning: %v", err)
		return
	}
	c.IngestTranscript(ctx, text)
}

// ProcessFrame runs OCR on a captured frame, preferring the local
// recognizer over the backend vision model, and folds the text in.
func (c *Controller) ProcessFrame(ctx context.Context, image []byte) {
	if !c.captureActive() {
		return
	}

	var (
		text       string
		confidence float64
		err        error
	)
	switch {
	case c.recognizer != nil:
		text, confidence, err = c.recognizer.Recognize(ctx, image)
	case c.backend != nil:
		var ocr *backend.OCRText
		ocr, err = c.backend.OCRFromImage(ctx, image)
		if ocr != nil {
			text, confidence = ocr.Text, ocr.Confidence
		}
	default:
		return
	}
	if err != nil {
		c.Warnf("OCR warning: %v", err)
		return
	}
	c.IngestOCR(ctx, text, confidence, image)
}

// IngestTranscript deduplicates a transcription read and appends the
// delta as a transcript segment plus a context packet. The segment
// covers [elapsed-chunkSec, elapsed]; its source is "answer" while a
// question is awaiting a response, else "presenter".
func (c *Controller) IngestTranscript(ctx context.Context, text string) {
	c.mu.Lock()
	if !c.captureActiveLocked() {
		c.mu.Unlock()
		return
	}
	delta := c.transcriptSeen.Dedupe(text)
	if delta == "" {
		c.mu.Unlock()
		return
	}

	t1 := c.elapsedSecLocked()
	t0 := t1 - c.settings.ChunkSec
	if t0 < 0 {
		t0 = 0
	}
	source := SourcePresenter
	if c.awaitingAnswer {
		source = SourceAnswer
	}
	seg := TranscriptSegment{
		ID:     uuid.NewString(),
		T0:     t0,
		T1:     t1,
		Text:   delta,
		Source: source,
	}
	c.segments = append(c.segments, seg)
	c.packets = append(c.packets, BuildPacket(delta, "", c.currentQID, "", c.now()))
	ask := c.firstQuestionDueLocked()
	sessionID := c.session.ID
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveSegment(ctx, sessionID, seg); err != nil {
			c.log.Warn("persist_segment", nil, err)
		}
	}
	if ask {
		c.askNextQuestion(ctx, false)
	}
}

// IngestOCR compresses and deduplicates a screen-text read and appends
// the delta as an OCR result plus a context packet. The frame is
// retained only when the session keeps screenshots.
func (c *Controller) IngestOCR(ctx context.Context, text string, confidence float64, frame []byte) {
	compressed := evidence.Compress(text)

	c.mu.Lock()
	if !c.captureActiveLocked() {
		c.mu.Unlock()
		return
	}
	delta := c.ocrSeen.Dedupe(compressed)
	if delta == "" {
		c.mu.Unlock()
		return
	}

	if confidence <= 0 {
		confidence = 0.5
	}
	result := OCRResult{
		ID:         uuid.NewString(),
		Timestamp:  c.now(),
		Text:       delta,
		Confidence: confidence,
	}
	if c.settings.KeepFrames {
		result.Frame = frame
	}
	c.ocr = append(c.ocr, result)
	c.packets = append(c.packets, BuildPacket("", delta, c.currentQID, "", c.now()))
	ask := c.firstQuestionDueLocked()
	sessionID := c.session.ID
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveOCR(ctx, sessionID, result); err != nil {
			c.log.Warn("persist_ocr", nil, err)
		}
	}
	if ask {
		c.askNextQuestion(ctx, false)
	}
}

// SubmitAnswer records an answer to the current question, then
// immediately requests the next question. Short answers (under 18
// tokens) force a follow-up: brevity is a probe-worthy signal.
// Submitting with no current question is a silent no-op.
func (c *Controller) SubmitAnswer(ctx context.Context, text string, source AnswerSource) {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if c.session == nil || c.currentQID == "" || trimmed == "" {
		c.mu.Unlock()
		return
	}
	answer := Answer{
		ID:         uuid.NewString(),
		QuestionID: c.currentQID,
		Timestamp:  c.now(),
		Text:       trimmed,
		Source:     source,
	}
	c.answers = append(c.answers, answer)
	c.packets = append(c.packets, BuildPacket("", "", c.currentQID, answer.Text, c.now()))
	c.awaitingAnswer = false
	c.currentQID = ""
	sessionID := c.session.ID
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveAnswer(ctx, sessionID, answer); err != nil {
			c.log.Warn("persist_answer", nil, err)
		}
	}

	forceFollowup := len(strings.Fields(trimmed)) < shortAnswerTokens
	c.askNextQuestion(ctx, forceFollowup)
}

// SkipQuestion clears the current question without an answer and moves
// on.
func (c *Controller) SkipQuestion(ctx context.Context) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.awaitingAnswer = false
	c.currentQID = ""
	c.mu.Unlock()

	c.askNextQuestion(ctx, false)
}

// AskFollowupNow forces a follow-up attempt for the last Q/A pair.
func (c *Controller) AskFollowupNow(ctx context.Context) {
	c.askNextQuestion(ctx, true)
}

// AskNextQuestion runs the question pipeline without forcing a
// follow-up.
func (c *Controller) AskNextQuestion(ctx context.Context) {
	c.askNextQuestion(ctx, false)
}

// askNextQuestion is the question decision pipeline. Overlapping
// invocations are dropped by the single-flight guard. It always either
// pushes some question or returns having changed nothing; backend
// failures downgrade to the fixed fallback template and never surface.
func (c *Controller) askNextQuestion(ctx context.Context, forceFollowup bool) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	if !forceFollowup && c.awaitingAnswer {
		c.mu.Unlock()
		return
	}
	if c.sched.QuestionCount() >= c.settings.MaxQuestions {
		c.mu.Unlock()
		return
	}
	transcriptSnippets := recentTexts(c.segments, questionEvidenceItems, func(s TranscriptSegment) string { return s.Text })
	ocrSnippets := recentTexts(c.ocr, questionEvidenceItems, func(o OCRResult) string { return o.Text })
	var lastQuestion *Question
	if len(c.questions) > 0 {
		q := c.questions[len(c.questions)-1]
		lastQuestion = &q
	}
	var lastAnswer *Answer
	if len(c.answers) > 0 {
		a := c.answers[len(c.answers)-1]
		lastAnswer = &a
	}
	desired := c.sched.NextIntent()
	difficultyHint := c.sched.DifficultyHint()
	rollingSummary := c.session.RollingSummary
	wantFollowup := forceFollowup
	if !wantFollowup && lastQuestion != nil && lastAnswer != nil {
		// A queued trigger promotes this slot to a follow-up attempt.
		if _, ok := c.sched.DequeueFollowup(); ok {
			wantFollowup = true
		}
	}
	c.mu.Unlock()

	c.maybeRefreshSummary(ctx, false)

	var candidate *Candidate

	if c.backend != nil && wantFollowup && lastQuestion != nil && lastAnswer != nil {
		followup, err := c.backend.GenerateFollowup(ctx, backend.FollowupInput{
			CurrentQuestion: lastQuestion.Text,
			Answer:          lastAnswer.Text,
			EvidenceDeltas: backend.EvidenceLists{
				Transcript: transcriptSnippets,
				OCR:        ocrSnippets,
			},
		})
		switch {
		case err != nil:
			c.log.Warn("followup_generation", nil, err)
		case followup != nil && strings.TrimSpace(followup.Followup) != "":
			difficulty := lastQuestion.Difficulty + 1
			if difficulty > 3 {
				difficulty = 3
			}
			grounding := Grounding{
				FromTranscript: firstN(transcriptSnippets, 2),
				FromOCR:        firstN(ocrSnippets, 2),
			}
			if followup.Grounding != nil {
				grounding = Grounding{
					FromTranscript: followup.Grounding.FromTranscript,
					FromOCR:        followup.Grounding.FromOCR,
				}
			}
			candidate = &Candidate{
				Question:   followup.Followup,
				Intent:     desired,
				Difficulty: difficulty,
				Grounding:  grounding,
			}
		}
	}

	if c.backend != nil && candidate == nil {
		input := backend.QuestionInput{
			RollingSummary: rollingSummary,
			TopEvidence: backend.EvidenceLists{
				Transcript: transcriptSnippets,
				OCR:        ocrSnippets,
			},
			DesiredIntent:  string(desired),
			DifficultyHint: difficultyHint,
		}
		if lastQuestion != nil {
			input.LastQuestion = lastQuestion.Text
		}
		if lastAnswer != nil {
			input.LastAnswer = lastAnswer.Text
		}

		generated, err := c.backend.GenerateNextQuestion(ctx, input)
		switch {
		case err != nil:
			c.log.Warn("question_generation", nil, err)
		case generated != nil && strings.TrimSpace(generated.Question) != "":
			candidate = &Candidate{
				Question:   generated.Question,
				Intent:     Intent(generated.Intent),
				Difficulty: generated.Difficulty,
				Grounding: Grounding{
					FromTranscript: generated.Grounding.FromTranscript,
					FromOCR:        generated.Grounding.FromOCR,
				},
			}
			if len(generated.FollowupTriggers) > 0 {
				c.mu.Lock()
				c.sched.EnqueueFollowups(generated.FollowupTriggers)
				c.mu.Unlock()
			}
		}
	}

	if candidate == nil {
		c.mu.Lock()
		fallback := c.sched.FallbackQuestion(desired, transcriptSnippets, ocrSnippets)
		c.mu.Unlock()
		candidate = &fallback
	}

	c.pushQuestion(ctx, *candidate)
}

// pushQuestion normalizes and records a candidate as the current
// question.
func (c *Controller) pushQuestion(ctx context.Context, cand Candidate) {
	intent := cand.Intent
	if !ValidIntent(string(intent)) {
		intent = IntentImplementation
	}
	difficulty := cand.Difficulty
	if difficulty < 1 || difficulty > 3 {
		difficulty = 1
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	question := Question{
		ID:         uuid.NewString(),
		Timestamp:  c.now(),
		Text:       cand.Question,
		Intent:     intent,
		Difficulty: difficulty,
		Grounding:  cand.Grounding,
	}
	c.questions = append(c.questions, question)
	c.currentQID = question.ID
	c.awaitingAnswer = true
	c.sched.RegisterAskedIntent(intent)
	c.session.Status = StatusInterviewing
	sess := *c.session
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveQuestion(ctx, sess.ID, question); err != nil {
			c.log.Warn("persist_question", nil, err)
		}
	}
	c.persistSession(ctx, &sess)
	if c.grounding != nil {
		if err := c.grounding.ProjectQuestion(ctx, sess.ID, question); err != nil {
			c.log.Warn("grounding_projection", nil, err)
		}
	}
	c.log.Info("question_pushed", map[string]interface{}{
		"intent":     string(intent),
		"difficulty": difficulty,
	})
}

// maybeRefreshSummary refreshes the rolling summary when the interval
// gate opens (or unconditionally when forced). Backend failures leave
// the previous summary in place.
func (c *Controller) maybeRefreshSummary(ctx context.Context, force bool) {
	if c.backend == nil {
		return
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	if !force && !c.sched.ShouldRefreshSummary(c.elapsedSecLocked()) {
		c.mu.Unlock()
		return
	}
	input := backend.SummaryInput{
		RollingSummary:     c.session.RollingSummary,
		TranscriptSnippets: recentTexts(c.segments, questionEvidenceItems, func(s TranscriptSegment) string { return s.Text }),
		OCRSnippets:        recentTexts(c.ocr, questionEvidenceItems, func(o OCRResult) string { return o.Text }),
		QASnippets:         c.qaSnippetsLocked(),
	}
	c.mu.Unlock()

	resp, err := c.backend.UpdateRollingSummary(ctx, input)
	if err != nil {
		c.log.Warn("summary_refresh", nil, err)
		return
	}
	if resp == nil || strings.TrimSpace(resp.Summary) == "" {
		return
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.RollingSummary = resp.Summary
	c.summaryMeta = SummaryMeta{
		KeyPoints:   nonNil(resp.KeyPoints),
		OpenThreads: nonNil(resp.OpenThreads),
		Terminology: nonNil(resp.Terminology),
	}
	sess := *c.session
	c.mu.Unlock()

	c.persistSession(ctx, &sess)
}

// Stop ends the session: capture producers must already be stopped by
// the caller. It forces a final summary refresh, attempts the backend
// evaluation over the most recent evidence, falls back to the
// deterministic synthesizer on absence or any failure, persists the
// bundle and returns it.
func (c *Controller) Stop(ctx context.Context) (*Bundle, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no active session")
	}
	c.session.Status = StatusGeneratingReport
	sess := *c.session
	c.mu.Unlock()

	c.persistSession(ctx, &sess)
	c.maybeRefreshSummary(ctx, true)

	var final *Report
	if c.backend != nil {
		c.mu.Lock()
		input := backend.EvaluationInput{
			RollingSummary: c.session.RollingSummary,
			Transcript:     recentTexts(c.segments, evaluationEvidenceItems, func(s TranscriptSegment) string { return s.Text }),
			OCR:            recentTexts(c.ocr, evaluationEvidenceItems, func(o OCRResult) string { return o.Text }),
			QA: backend.QAPair{
				Questions: allTexts(c.questions, func(q Question) string { return q.Text }),
				Answers:   allTexts(c.answers, func(a Answer) string { return a.Text }),
			},
		}
		c.mu.Unlock()

		eval, err := c.backend.GenerateFinalEvaluation(ctx, input)
		if err != nil {
			c.log.Warn("final_evaluation", nil, err)
		} else {
			final = NormalizeReport(eval)
		}
	}

	c.mu.Lock()
	if final == nil {
		final = FallbackReport(c.segments, c.ocr, c.answers)
	}
	c.report = final
	c.session.EndedAt = c.now()
	c.session.Status = StatusDone
	bundle := c.bundleLocked()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveBundle(ctx, bundle); err != nil {
			c.log.Warn("persist_bundle", nil, err)
		}
	}
	if c.recognizer != nil {
		if err := c.recognizer.Shutdown(); err != nil {
			c.log.Warn("recognizer_shutdown", nil, err)
		}
	}

	c.log.Info("session_done", map[string]interface{}{
		"questions": len(bundle.Questions),
		"answers":   len(bundle.Answers),
		"overall":   final.Overall,
	})
	return bundle, nil
}

// Warnf records a user-visible warning without interrupting the
// session.
func (c *Controller) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.mu.Lock()
	c.warning = msg
	c.mu.Unlock()
	c.log.Warn("session_warning", map[string]interface{}{"message": msg}, nil)
}

// Warning returns the most recent warning, if any.
func (c *Controller) Warning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}

// Session returns a copy of the current session record, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	sess := *c.session
	return &sess
}

// Status returns the session lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StatusIdle
	}
	return c.session.Status
}

// CurrentQuestion returns a copy of the question awaiting an answer,
// or nil.
func (c *Controller) CurrentQuestion() *Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentQID == "" {
		return nil
	}
	for i := range c.questions {
		if c.questions[i].ID == c.currentQID {
			q := c.questions[i]
			return &q
		}
	}
	return nil
}

// AwaitingAnswer reports whether a question is pending a response.
func (c *Controller) AwaitingAnswer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaitingAnswer
}

// QuestionCount returns how many questions have been asked.
func (c *Controller) QuestionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.QuestionCount()
}

// FollowupDepth returns the follow-up queue length.
func (c *Controller) FollowupDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.FollowupDepth()
}

// RollingSummary returns the current condensed session context.
func (c *Controller) RollingSummary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.RollingSummary
}

// EvidenceCounts returns how many transcript and OCR deltas accrued.
func (c *Controller) EvidenceCounts() (transcript, ocr int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.segments), len(c.ocr)
}

// Elapsed returns time since session start.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.now().Sub(c.session.StartedAt)
}

// Bundle returns a snapshot of all session records.
func (c *Controller) Bundle() *Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.bundleLocked()
}

func (c *Controller) bundleLocked() *Bundle {
	sess := *c.session
	return &Bundle{
		Session:        &sess,
		Transcript:     append([]TranscriptSegment(nil), c.segments...),
		OCR:            append([]OCRResult(nil), c.ocr...),
		Questions:      append([]Question(nil), c.questions...),
		Answers:        append([]Answer(nil), c.answers...),
		Packets:        append([]ContextPacket(nil), c.packets...),
		Report:         c.report,
		RollingSummary: sess.RollingSummary,
		SummaryMeta:    c.summaryMeta,
	}
}

func (c *Controller) captureActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captureActiveLocked()
}

func (c *Controller) captureActiveLocked() bool {
	if c.session == nil {
		return false
	}
	return c.session.Status == StatusCapturing || c.session.Status == StatusInterviewing
}

func (c *Controller) elapsedSecLocked() int {
	sec := int(c.now().Sub(c.session.StartedAt).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}

// firstQuestionDueLocked gates the automatic first-question trigger:
// capture active, nothing in flight, no question pending, none asked
// yet, and the scheduler judges the evidence sufficient.
func (c *Controller) firstQuestionDueLocked() bool {
	if c.inFlight.Load() || c.currentQID != "" || c.awaitingAnswer {
		return false
	}
	if c.sched.QuestionCount() != 0 {
		return false
	}

	transcriptChars := 0
	for _, seg := range c.segments {
		transcriptChars += len(seg.Text)
	}
	meaningful := false
	for _, item := range c.ocr {
		if evidence.MeaningfulOCR(item.Text) {
			meaningful = true
			break
		}
	}
	return c.sched.ShouldAskFirstQuestion(c.elapsedSecLocked(), transcriptChars, meaningful)
}

// qaSnippetsLocked formats the last two questions and answers for the
// summary input.
func (c *Controller) qaSnippetsLocked() []string {
	var out []string
	questions := c.questions
	if len(questions) > 2 {
		questions = questions[len(questions)-2:]
	}
	for _, q := range questions {
		out = append(out, "question: "+q.Text)
	}
	answers := c.answers
	if len(answers) > 2 {
		answers = answers[len(answers)-2:]
	}
	for _, a := range answers {
		out = append(out, "answer: "+a.Text)
	}
	return out
}

func (c *Controller) persistSession(ctx context.Context, sess *Session) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveSession(ctx, sess); err != nil {
		c.log.Warn("persist_session", nil, err)
	}
}

// recentTexts returns the non-empty texts of the last limit items.
func recentTexts[T any](items []T, limit int, text func(T) string) []string {
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := text(item); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func allTexts[T any](items []T, text func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, text(item))
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
