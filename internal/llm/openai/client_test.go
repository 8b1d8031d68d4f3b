package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cvscreen-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("test-key", DefaultProfile("gpt-4.1-2025-04-14"), 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.apiURL = srv.URL
	return c, srv
}

func TestScoreCVSendsProfileFields(t *testing.T) {
	var captured map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"feedback\":\"ok\"}"}}]}`)
	})

	raw, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "evalúa", RubricVersion: "v3"})
	if err != nil {
		t.Fatalf("ScoreCV: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("content not valid JSON: %s", raw)
	}

	if _, ok := captured["max_tokens"]; !ok {
		t.Error("request missing max_tokens for legacy profile")
	}
	if _, ok := captured["temperature"]; !ok {
		t.Error("request missing temperature for legacy profile")
	}
	rf, ok := captured["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", captured["response_format"])
	}
	msgs, ok := captured["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v, want system+user pair", captured["messages"])
	}
}

func TestScoreCVReasoningProfileOmitsTemperature(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"choices":[{"message":{"content":"{}"}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient("test-key", DefaultProfile("gpt-5-mini"), 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.apiURL = srv.URL
	if _, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "p"}); err != nil {
		t.Fatalf("ScoreCV: %v", err)
	}

	if _, ok := captured["temperature"]; ok {
		t.Error("reasoning profile must not send temperature")
	}
	if _, ok := captured["max_tokens"]; ok {
		t.Error("reasoning profile must not send max_tokens")
	}
	if _, ok := captured["max_completion_tokens"]; !ok {
		t.Error("reasoning profile must send max_completion_tokens")
	}
}

func TestScoreCVReturnsContentVerbatim(t *testing.T) {
	// A syntactically broken completion must still come back untouched so the
	// caller can preserve it for diagnosis.
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":"not json at all"}}]}`)
	})
	raw, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "p"})
	if err != nil {
		t.Fatalf("ScoreCV: %v", err)
	}
	if string(raw) != "not json at all" {
		t.Errorf("content = %q, want verbatim completion", raw)
	}
}

func TestScoreCVHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})
	_, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestScoreCVAPIErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":{"message":"model overloaded","type":"server_error"}}`)
	})
	_, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected api error surfaced, got %v", err)
	}
}

func TestScoreCVEmptyChoices(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	})
	if _, err := c.ScoreCV(context.Background(), llm.ScoreInput{Prompt: "p"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestScoreCVTimeoutClassified(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"choices":[{"message":{"content":"{}"}}]}`)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ScoreCV(ctx, llm.ScoreInput{Prompt: "p"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") && !strings.Contains(err.Error(), "deadline") {
		t.Errorf("timeout not classified: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", DefaultProfile("gpt-4o"), 0); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := NewClient("key", Profile{}, 0); err == nil {
		t.Error("expected error for missing model")
	}
}
