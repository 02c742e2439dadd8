package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"privilog-backend/models"
)

const (
	defaultModelName = "gemini-2.5-flash"
	maxRetries       = 2
	initialBackoff   = time.Second
	callTimeout      = 60 * time.Second
)

const classifyPromptFormat = `You are a senior litigation attorney. Your task is to analyze email content and determine if it is privileged.

RULES:
1. Identify if the document is Attorney-Client Privileged (ACP) or Attorney Work Product (AWP).
2. ACP requires communication between client and counsel for the purpose of legal advice.
3. AWP requires a document prepared in anticipation of litigation.
4. If NOT privileged, is_privileged must be false and privilege_type must be empty.
5. Provide clear reasoning.

Respond with a JSON object containing:
- is_privileged: boolean
- privilege_type: "Attorney-Client", "Work Product", or "" if not privileged
- reasoning: string (brief legal reasoning for the classification)

Sender: %s
Recipient: %s
Subject: %s

Email Body:
%s

Respond only with the JSON object and nothing else.`

const describePromptFormat = `You are a senior litigation attorney. Your task is to generate a privilege log entry for a privileged email.

RULES:
1. The description must be neutral and professional.
2. DO NOT reveal the confidential advice given or specific sensitive details (dollar amounts, strategy).
3. Use the format: "[Type of communication] regarding [General Topic]."
4. Example: "Confidential communication between Client and Counsel requesting legal advice regarding contractual liability."

Respond with a JSON object containing:
- log_description: string

Privilege Reason: %s

Email Body:
%s

Respond only with the JSON object and nothing else.`

const redactPromptFormat = `You are a senior litigation attorney. Your task is to identify specific sentences in an email that contain legal advice or privileged information for redaction.
Return the EXACT text strings of the sensitive sentences or clauses from the provided email body.
If there is no sensitive text, return an empty list.

Respond with a JSON object containing:
- items: array of strings (exact substrings of the email body)

Email Body:
%s

Respond only with the JSON object and nothing else.`

// GeminiClient implements Client against the Google Gemini API
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiClient creates a Gemini-backed oracle client. An empty
// modelName selects the default model.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = defaultModelName
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the underlying Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify determines whether the email is privileged
func (c *GeminiClient) Classify(ctx context.Context, sender, recipient, subject, body string) (*Classification, error) {
	prompt := fmt.Sprintf(classifyPromptFormat, sender, recipient, subject, body)

	text, err := c.generate(ctx, OpClassify, prompt)
	if err != nil {
		return nil, &Error{Op: OpClassify, Err: err}
	}

	result, err := parseClassification(text)
	if err != nil {
		return nil, &Error{Op: OpClassify, Err: err}
	}

	return result, nil
}

// Describe produces the safe log description for a privileged email
func (c *GeminiClient) Describe(ctx context.Context, reasoning, body string) (*Description, error) {
	prompt := fmt.Sprintf(describePromptFormat, reasoning, body)

	text, err := c.generate(ctx, OpDescribe, prompt)
	if err != nil {
		return nil, &Error{Op: OpDescribe, Err: err}
	}

	result, err := parseDescription(text)
	if err != nil {
		return nil, &Error{Op: OpDescribe, Err: err}
	}

	return result, nil
}

// Redact lists the exact substrings of body believed privileged
func (c *GeminiClient) Redact(ctx context.Context, body string) (*Redaction, error) {
	prompt := fmt.Sprintf(redactPromptFormat, body)

	text, err := c.generate(ctx, OpRedact, prompt)
	if err != nil {
		return nil, &Error{Op: OpRedact, Err: err}
	}

	result, err := parseRedaction(text)
	if err != nil {
		return nil, &Error{Op: OpRedact, Err: err}
	}

	return result, nil
}

// generate performs one round trip with bounded retry on transport
// failure. Each attempt gets its own timeout so a stalled call fails
// rather than hanging the request.
func (c *GeminiClient) generate(ctx context.Context, op, prompt string) (string, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
		cancel()
		if err != nil {
			lastErr = err
			c.logger.Warn("Gemini call failed",
				zap.String("operation", op),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		// A reply with no usable candidate is malformed model output,
		// not a transport failure, so it is not retried.
		text, err := responseText(resp)
		if err != nil {
			c.logger.Warn("Gemini returned empty response",
				zap.String("operation", op),
				zap.Int("attempt", attempt+1))
			return "", err
		}

		return text, nil
	}

	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("response has no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(fmt.Sprintf("%v", part))
	}

	text := sb.String()
	if text == "" {
		return "", errors.New("response candidate is empty")
	}

	return text, nil
}

// extractJSON returns the first top-level JSON object embedded in
// text, tolerating markdown fences or prose around it
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// normalizePrivilegeType maps the null-ish spellings models emit for
// "no privilege" onto the empty string
func normalizePrivilegeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "none", "null", "n/a":
		return ""
	}
	return strings.TrimSpace(t)
}

func parseClassification(text string) (*Classification, error) {
	jsonStr, ok := extractJSON(text)
	if !ok {
		return nil, errors.New("no JSON object in response")
	}

	var raw struct {
		IsPrivileged  *bool  `json:"is_privileged"`
		PrivilegeType string `json:"privilege_type"`
		Reasoning     string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}

	if raw.IsPrivileged == nil {
		return nil, errors.New("classification response missing is_privileged")
	}
	if strings.TrimSpace(raw.Reasoning) == "" {
		return nil, errors.New("classification response missing reasoning")
	}

	privilegeType := normalizePrivilegeType(raw.PrivilegeType)
	if *raw.IsPrivileged {
		if !models.ValidPrivilegeType(privilegeType) {
			return nil, fmt.Errorf("unrecognized privilege_type %q", raw.PrivilegeType)
		}
	} else if privilegeType != "" {
		return nil, fmt.Errorf("privilege_type %q set on non-privileged result", raw.PrivilegeType)
	}

	return &Classification{
		IsPrivileged:  *raw.IsPrivileged,
		PrivilegeType: privilegeType,
		Reasoning:     strings.TrimSpace(raw.Reasoning),
	}, nil
}

func parseDescription(text string) (*Description, error) {
	jsonStr, ok := extractJSON(text)
	if !ok {
		return nil, errors.New("no JSON object in response")
	}

	var raw struct {
		LogDescription *string `json:"log_description"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("malformed description response: %w", err)
	}

	if raw.LogDescription == nil {
		return nil, errors.New("description response missing log_description")
	}

	return &Description{LogDescription: strings.TrimSpace(*raw.LogDescription)}, nil
}

func parseRedaction(text string) (*Redaction, error) {
	jsonStr, ok := extractJSON(text)
	if !ok {
		return nil, errors.New("no JSON object in response")
	}

	var raw struct {
		Items *[]string `json:"items"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("malformed redaction response: %w", err)
	}

	if raw.Items == nil {
		return nil, errors.New("redaction response missing items")
	}

	return &Redaction{Items: *raw.Items}, nil
}
