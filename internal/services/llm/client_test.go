package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"redub/internal/services"
)

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"ok":true}`,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": "```json\n{\"ok\":true}\n```",
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func completionServer(t *testing.T, handler func(req translationRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		var req translationRequest
		if err := json.Unmarshal([]byte(body.Messages[1].Content), &req); err != nil {
			t.Fatalf("decode user prompt: %v", err)
		}
		content := handler(req)
		text, ok := content.(string)
		if !ok {
			encoded, _ := json.Marshal(content)
			text = string(encoded)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": text}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func echoUpper(req translationRequest) any {
	out := translationResponse{}
	// Reverse to prove results are mapped back by id.
	for i := len(req.Lines) - 1; i >= 0; i-- {
		line := req.Lines[i]
		out.Translations = append(out.Translations, translationLine{ID: line.ID, Text: strings.ToUpper(line.Text)})
	}
	return out
}

func TestClientTranslateKeepsOrderAndSkipsEmpty(t *testing.T) {
	var requests int
	var languages []string
	server := completionServer(t, func(req translationRequest) any {
		requests++
		languages = append(languages, req.SourceLanguage, req.TargetLanguage)
		return echoUpper(req)
	})
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), "en", "es", []string{"hello", "  ", "good night"})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if len(out) != 3 || out[0] != "HELLO" || out[1] != "" || out[2] != "GOOD NIGHT" {
		t.Fatalf("unexpected translations: %q", out)
	}
	if requests != 1 {
		t.Fatalf("expected a single request, got %d", requests)
	}
	if languages[0] != "English (en)" || languages[1] != "Spanish (es)" {
		t.Fatalf("unexpected language descriptions: %v", languages)
	}
}

func TestClientTranslateBatches(t *testing.T) {
	var sizes []int
	server := completionServer(t, func(req translationRequest) any {
		sizes = append(sizes, len(req.Lines))
		return echoUpper(req)
	})
	defer server.Close()

	texts := make([]string, translateBatchSize+5)
	for i := range texts {
		texts[i] = "line"
	}
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), "", "fr", texts)
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != translateBatchSize || sizes[1] != 5 {
		t.Fatalf("unexpected batch sizes: %v", sizes)
	}
	if out[len(out)-1] != "LINE" {
		t.Fatalf("unexpected last translation %q", out[len(out)-1])
	}
}

func TestClientTranslateRepairsMalformedJSON(t *testing.T) {
	server := completionServer(t, func(translationRequest) any {
		return "Here you go:\n```json\n{\"translations\": [{\"id\": 0, \"text\": 'bonjour',},]}\n```"
	})
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), "en", "fr", []string{"hello"})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out[0] != "bonjour" {
		t.Fatalf("unexpected translation %q", out[0])
	}
}

func TestClientTranslateRejectsMissingLines(t *testing.T) {
	server := completionServer(t, func(translationRequest) any {
		return translationResponse{Translations: []translationLine{{ID: 0, Text: "uno"}}}
	})
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), "en", "es", []string{"one", "two"})
	if err == nil || !strings.Contains(err.Error(), "omitted 1 of 2") {
		t.Fatalf("expected omitted line error, got %v", err)
	}
}

func TestClientToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		choice := map[string]any{
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"content": "",
				"tool_calls": []any{
					map[string]any{
						"type": "function",
						"function": map[string]any{
							"name":      "translate",
							"arguments": `{"translations":[{"id":0,"text":"hola"}]}`,
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), "en", "es", []string{"hello"})
	if err != nil || out[0] != "hola" {
		t.Fatalf("tool call translation: %q, %v", out, err)
	}
}

func TestClientEmptyReplyIsTransient(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": ""},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryMaxAttempts(3),
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Translate(context.Background(), "en", "es", []string{"hello"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty reply") || !strings.Contains(err.Error(), "body=") {
		t.Fatalf("expected empty reply error to include the body, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "demo"})
	_, err := client.Translate(context.Background(), "en", "es", []string{"hello"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRetryBackoffDoublesAndCaps(t *testing.T) {
	policy := retryPolicy{attempts: 6, base: time.Second, max: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := policy.backoff(i + 1); got != expected {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, expected)
		}
	}
	if _, ok := policy.next(context.Background(), &statusError{StatusCode: http.StatusBadRequest}, 1); ok {
		t.Fatal("400 must not be retried")
	}
	if delay, ok := policy.next(context.Background(), &statusError{StatusCode: http.StatusServiceUnavailable, RetryAfter: 3 * time.Second}, 1); !ok || delay != 3*time.Second {
		t.Fatalf("expected Retry-After delay, got %s %v", delay, ok)
	}
	if _, ok := policy.next(context.Background(), &emptyReplyError{}, 6); ok {
		t.Fatal("last attempt must not be retried")
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"translations":[{"id":0,"text":"ciao"}]}`,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	out, err := client.Translate(context.Background(), "en", "it", []string{"hi"})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out[0] != "ciao" {
		t.Fatalf("unexpected translation %q", out[0])
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestDecodeJSONFallbacks(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	for _, content := range []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		`Sure! {"ok": true} Hope that helps.`,
		`{"ok": true,}`,
		`{'ok': true`,
	} {
		target.OK = false
		if err := DecodeJSON(content, &target); err != nil {
			t.Fatalf("DecodeJSON(%q) returned error: %v", content, err)
		}
		if !target.OK {
			t.Fatalf("DecodeJSON(%q) did not decode", content)
		}
	}
	if err := DecodeJSON("   ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
