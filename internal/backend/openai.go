package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/joss/viva/internal/logging"
)

const defaultBaseURL = "https://api.openai.com/v1"

const (
	jsonCallTimeout = 45 * time.Second
	sttCallTimeout  = 60 * time.Second
	retryBaseDelay  = 800 * time.Millisecond
	maxRetries      = 2
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)

// Models names the model used per capability.
type Models struct {
	Reasoning string
	Vision    string
	STT       string
}

// OpenAI implements Intelligence against the OpenAI responses and
// transcription APIs.
type OpenAI struct {
	apiKey     string
	baseURL    string
	models     Models
	client     HTTPClient
	log        *logging.Logger
	retryDelay time.Duration
}

// NewOpenAI creates a client with the default HTTP transport.
func NewOpenAI(apiKey, baseURLOverride string, models Models) *OpenAI {
	return NewOpenAIWithClient(apiKey, baseURLOverride, models, &http.Client{})
}

// NewOpenAIWithClient creates a client with a custom transport.
func NewOpenAIWithClient(apiKey, baseURLOverride string, models Models, client HTTPClient) *OpenAI {
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    baseURL,
		models:     models,
		client:     client,
		log:        logging.New("backend"),
		retryDelay: retryBaseDelay,
	}
}

var _ Intelligence = (*OpenAI)(nil)

type responsesRequest struct {
	Model           string             `json:"model"`
	Input           []responsesMessage `json:"input"`
	MaxOutputTokens int                `json:"max_output_tokens,omitempty"`
	Temperature     float64            `json:"temperature,omitempty"`
	Text            *responsesFormat   `json:"text,omitempty"`
}

type responsesMessage struct {
	Role    string          `json:"role"`
	Content []responsesPart `json:"content"`
}

type responsesPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type responsesFormat struct {
	Format struct {
		Type string `json:"type"`
	} `json:"format"`
}

func jsonObjectFormat() *responsesFormat {
	f := &responsesFormat{}
	f.Format.Type = "json_object"
	return f
}

// withRetry runs fn up to maxRetries+1 times with linearly increasing
// backoff (attempt index times the base delay). Any failure counts:
// network, timeout, non-2xx, malformed JSON.
func (o *OpenAI) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if attempt < maxRetries {
				o.log.Warn("backend_retry", map[string]interface{}{"op": op, "attempt": attempt + 1}, err)
				select {
				case <-time.After(o.retryDelay * time.Duration(attempt+1)):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

// responsesJSON posts a system+user prompt expecting a JSON object
// back, decoding it into out.
func (o *OpenAI) responsesJSON(ctx context.Context, op, model, system, user string, maxTokens int, temperature float64, out any) error {
	if o.apiKey == "" {
		return fmt.Errorf("missing API key")
	}

	req := responsesRequest{
		Model: model,
		Input: []responsesMessage{
			{Role: "system", Content: []responsesPart{{Type: "input_text", Text: system}}},
			{Role: "user", Content: []responsesPart{{Type: "input_text", Text: user}}},
		},
		MaxOutputTokens: maxTokens,
		Temperature:     temperature,
		Text:            jsonObjectFormat(),
	}

	return o.withRetry(ctx, op, func() error {
		text, err := o.postResponses(ctx, req)
		if err != nil {
			return err
		}
		return decodeModelJSON(text, out)
	})
}

func (o *OpenAI) postResponses(ctx context.Context, req responsesRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, jsonCallTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, o.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("responses API error %d: %s", resp.StatusCode, string(detail))
	}

	var payload responsesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return extractOutputText(&payload), nil
}

// TranscribeAudio sends an audio chunk to the transcription endpoint.
func (o *OpenAI) TranscribeAudio(ctx context.Context, chunk []byte) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("missing API key")
	}

	var text string
	err := o.withRetry(ctx, "transcribe_audio", func() error {
		callCtx, cancel := context.WithTimeout(ctx, sttCallTimeout)
		defer cancel()

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		if err := form.WriteField("model", o.models.STT); err != nil {
			return err
		}
		part, err := form.CreateFormFile("file", fmt.Sprintf("chunk-%d.webm", time.Now().UnixMilli()))
		if err != nil {
			return err
		}
		if _, err := part.Write(chunk); err != nil {
			return err
		}
		if err := form.Close(); err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, o.baseURL+"/audio/transcriptions", &body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", form.FormDataContentType())
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

		resp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(detail))
		}

		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		text = strings.TrimSpace(payload.Text)
		return nil
	})
	return text, err
}

// OCRFromImage asks the vision model to extract on-screen text from a
// PNG frame.
func (o *OpenAI) OCRFromImage(ctx context.Context, image []byte) (*OCRText, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("missing API key")
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	req := responsesRequest{
		Model: o.models.Vision,
		Input: []responsesMessage{
			{
				Role: "user",
				Content: []responsesPart{
					{
						Type: "input_text",
						Text: `Extract visible on-screen text. Return strict JSON: {"text":"...","confidence":0..1}. Keep it concise and useful for interview grounding.`,
					},
					{Type: "input_image", ImageURL: dataURL},
				},
			},
		},
		MaxOutputTokens: 500,
		Text:            jsonObjectFormat(),
	}

	var result struct {
		Text       string   `json:"text"`
		Confidence *float64 `json:"confidence"`
	}
	err := o.withRetry(ctx, "ocr_from_image", func() error {
		text, err := o.postResponses(ctx, req)
		if err != nil {
			return err
		}
		return decodeModelJSON(text, &result)
	})
	if err != nil {
		return nil, err
	}

	confidence := 0.5
	if result.Confidence != nil {
		confidence = *result.Confidence
	}
	return &OCRText{Text: result.Text, Confidence: confidence}, nil
}

// UpdateRollingSummary refreshes the condensed session context.
func (o *OpenAI) UpdateRollingSummary(ctx context.Context, input SummaryInput) (*Summary, error) {
	system := "You are an interview context summarizer. Output strict JSON with keys summary, key_points, open_threads, terminology."
	user, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	var out Summary
	if err := o.responsesJSON(ctx, "update_rolling_summary", o.models.Reasoning, system, string(user), 700, 0.1, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateNextQuestion asks for one grounded interview question.
func (o *OpenAI) GenerateNextQuestion(ctx context.Context, input QuestionInput) (*GeneratedQuestion, error) {
	system := "Generate one grounded interview question. Output strict JSON with keys question, intent, difficulty, grounding{from_transcript,from_ocr}, followup_triggers."
	user, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	var out GeneratedQuestion
	if err := o.responsesJSON(ctx, "generate_next_question", o.models.Reasoning, system, string(user), 500, 0.3, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateFollowup asks for a follow-up grounded in the last Q/A pair.
func (o *OpenAI) GenerateFollowup(ctx context.Context, input FollowupInput) (*Followup, error) {
	system := "Generate one concise follow-up question grounded in evidence. Output strict JSON with keys followup, reason, grounding{from_transcript,from_ocr}."
	user, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	var out Followup
	if err := o.responsesJSON(ctx, "generate_followup", o.models.Reasoning, system, string(user), 350, 0.2, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateFinalEvaluation asks for the raw final evaluation JSON.
func (o *OpenAI) GenerateFinalEvaluation(ctx context.Context, input EvaluationInput) (*Evaluation, error) {
	system := "Evaluate an interview. Output strict JSON with keys scores{technicalDepth,clarity,originality,implementationUnderstanding}, overall, strengths[], improvements[], evidence[{claim,quote,source}]. Keep scores 0-10."
	user, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	var out Evaluation
	if err := o.responsesJSON(ctx, "generate_final_evaluation", o.models.Reasoning, system, string(user), 900, 0.2, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
