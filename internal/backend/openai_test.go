package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned responses in order, repeating the last
// one once the script runs out.
type scriptedClient struct {
	responses []scriptedResponse
	requests  []*http.Request
	bodies    []string
}

type scriptedResponse struct {
	status int
	body   string
	err    error
}

func (c *scriptedClient) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	c.requests = append(c.requests, req)
	c.bodies = append(c.bodies, body)

	idx := len(c.requests) - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	r := c.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(r.body))),
	}, nil
}

func responsesBody(t *testing.T, outputText string) string {
	t.Helper()
	payload := map[string]any{"output_text": outputText}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func testClient(responses ...scriptedResponse) (*OpenAI, *scriptedClient) {
	client := &scriptedClient{responses: responses}
	o := NewOpenAIWithClient("test-key", "", Models{Reasoning: "r-model", Vision: "v-model", STT: "s-model"}, client)
	o.retryDelay = time.Millisecond
	return o, client
}

func TestNewOpenAIBaseURL(t *testing.T) {
	o := NewOpenAIWithClient("k", "", Models{}, &scriptedClient{})
	assert.Equal(t, "https://api.openai.com/v1", o.baseURL)

	o = NewOpenAIWithClient("k", "https://proxy.example/v1/", Models{}, &scriptedClient{})
	assert.Equal(t, "https://proxy.example/v1", o.baseURL)
}

func TestGenerateNextQuestionSuccess(t *testing.T) {
	o, client := testClient(scriptedResponse{
		status: 200,
		body: responsesBody(t, `{"question":"How does retry work?","intent":"implementation","difficulty":2,"grounding":{"from_transcript":["we retry twice"],"from_ocr":[]},"followup_triggers":["mentions backoff"]}`),
	})

	got, err := o.GenerateNextQuestion(context.Background(), QuestionInput{
		RollingSummary: "summary",
		DesiredIntent:  "implementation",
		DifficultyHint: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "How does retry work?", got.Question)
	assert.Equal(t, "implementation", got.Intent)
	assert.Equal(t, 2, got.Difficulty)
	assert.Equal(t, []string{"we retry twice"}, got.Grounding.FromTranscript)
	assert.Equal(t, []string{"mentions backoff"}, got.FollowupTriggers)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "https://api.openai.com/v1/responses", req.URL.String())
	assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
	assert.Contains(t, client.bodies[0], `"model":"r-model"`)
	assert.Contains(t, client.bodies[0], `"desired_intent":"implementation"`)
}

func TestRetryThenSuccess(t *testing.T) {
	o, client := testClient(
		scriptedResponse{status: 500, body: `{"error":"overloaded"}`},
		scriptedResponse{status: 200, body: responsesBody(t, `{"summary":"ok","key_points":[],"open_threads":[],"terminology":[]}`)},
	)

	got, err := o.UpdateRollingSummary(context.Background(), SummaryInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Summary)
	assert.Len(t, client.requests, 2)
}

func TestRetriesExhausted(t *testing.T) {
	o, client := testClient(scriptedResponse{status: 500, body: `{"error":"down"}`})

	_, err := o.UpdateRollingSummary(context.Background(), SummaryInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_rolling_summary")
	// Initial attempt plus two retries.
	assert.Len(t, client.requests, 3)
}

func TestMalformedJSONRetried(t *testing.T) {
	o, client := testClient(
		scriptedResponse{status: 200, body: responsesBody(t, `not json at all`)},
		scriptedResponse{status: 200, body: responsesBody(t, `{"followup":"and then?","reason":"short answer"}`)},
	)

	got, err := o.GenerateFollowup(context.Background(), FollowupInput{})
	require.NoError(t, err)
	assert.Equal(t, "and then?", got.Followup)
	assert.Len(t, client.requests, 2)
}

func TestFencedJSONAccepted(t *testing.T) {
	o, _ := testClient(scriptedResponse{
		status: 200,
		body:   responsesBody(t, "```json\n{\"question\":\"why?\",\"intent\":\"tradeoff\",\"difficulty\":1,\"grounding\":{\"from_transcript\":[],\"from_ocr\":[]}}\n```"),
	})

	got, err := o.GenerateNextQuestion(context.Background(), QuestionInput{})
	require.NoError(t, err)
	assert.Equal(t, "why?", got.Question)
}

func TestTransportErrorRetried(t *testing.T) {
	o, client := testClient(
		scriptedResponse{err: fmt.Errorf("connection refused")},
		scriptedResponse{status: 200, body: responsesBody(t, `{"text":"on screen","confidence":0.8}`)},
	)

	got, err := o.OCRFromImage(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "on screen", got.Text)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Len(t, client.requests, 2)
}

func TestOCRConfidenceDefault(t *testing.T) {
	o, client := testClient(scriptedResponse{
		status: 200,
		body:   responsesBody(t, `{"text":"on screen"}`),
	})

	got, err := o.OCRFromImage(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Confidence)

	// The frame travels as a base64 PNG data URL.
	assert.Contains(t, client.bodies[0], "data:image/png;base64,")
	assert.Contains(t, client.bodies[0], `"model":"v-model"`)
}

func TestTranscribeAudio(t *testing.T) {
	o, client := testClient(scriptedResponse{status: 200, body: `{"text":"  hello world  "}`})

	got, err := o.TranscribeAudio(context.Background(), []byte("webm-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "https://api.openai.com/v1/audio/transcriptions", req.URL.String())
	assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))
	assert.Contains(t, client.bodies[0], "s-model")
	assert.Contains(t, client.bodies[0], "webm-bytes")
}

func TestMissingAPIKey(t *testing.T) {
	o := NewOpenAIWithClient("", "", Models{}, &scriptedClient{})

	_, err := o.TranscribeAudio(context.Background(), nil)
	assert.Error(t, err)

	_, err = o.GenerateFinalEvaluation(context.Background(), EvaluationInput{})
	assert.Error(t, err)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptedClient{responses: []scriptedResponse{{status: 500, body: `{}`}}}
	o := NewOpenAIWithClient("k", "", Models{Reasoning: "r"}, client)
	o.retryDelay = time.Hour
	cancel()

	_, err := o.UpdateRollingSummary(ctx, SummaryInput{})
	require.Error(t, err)
	// One attempt, then the canceled context wins over the backoff.
	assert.Len(t, client.requests, 1)
}

func TestEvaluationLooseDecoding(t *testing.T) {
	o, _ := testClient(scriptedResponse{
		status: 200,
		body:   responsesBody(t, `{"scores":{"technicalDepth":"8"},"overall":"7","strengths":["a",2],"evidence":[{"claim":"c","quote":"q","source":"ocr"}]}`),
	})

	got, err := o.GenerateFinalEvaluation(context.Background(), EvaluationInput{})
	require.NoError(t, err)
	assert.Equal(t, "8", got.Scores["technicalDepth"])
	assert.Equal(t, "7", got.Overall)
	assert.Len(t, got.Strengths, 2)
	assert.Len(t, got.Evidence, 1)
}
