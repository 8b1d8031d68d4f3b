package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cvscreen-backend/internal/llm"
	"cvscreen-backend/internal/rubric"
	"cvscreen-backend/internal/shared/telemetry"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Profile describes per-model request quirks. Newer reasoning models reject
// the max_tokens field and a custom temperature, so both the token-limit
// field name and the temperature are configuration rather than call-site
// constants.
type Profile struct {
	Model           string
	TokenLimitField string
	MaxTokens       int
	Temperature     *float32
}

// DefaultProfile returns the request profile for a model name.
func DefaultProfile(model string) Profile {
	name := strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(name, "gpt-5") || strings.HasPrefix(name, "o1") || strings.HasPrefix(name, "o3") {
		return Profile{
			Model:           model,
			TokenLimitField: "max_completion_tokens",
			MaxTokens:       2000,
		}
	}
	temp := float32(0.3)
	return Profile{
		Model:           model,
		TokenLimitField: "max_tokens",
		MaxTokens:       1500,
		Temperature:     &temp,
	}
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	profile    Profile
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey string, profile Profile, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(profile.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		profile: profile,
		apiURL:  defaultAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ScoreCV sends the prompt and returns the single completion verbatim. JSON
// validity is the caller's concern; this client only enforces the transport
// contract.
func (c *Client) ScoreCV(ctx context.Context, input llm.ScoreInput) (json.RawMessage, error) {
	// Built as a map so the token-limit field name can vary by profile.
	reqBody := map[string]any{
		"model": c.profile.Model,
		"messages": []chatMessage{
			{Role: "system", Content: rubric.SystemPrompt},
			{Role: "user", Content: input.Prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	if c.profile.MaxTokens > 0 {
		field := c.profile.TokenLimitField
		if field == "" {
			field = "max_tokens"
		}
		reqBody[field] = c.profile.MaxTokens
	}
	if c.profile.Temperature != nil {
		reqBody["temperature"] = *c.profile.Temperature
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}
	fields := map[string]any{
		"model":          c.profile.Model,
		"rubric_version": input.RubricVersion,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return json.RawMessage(content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
