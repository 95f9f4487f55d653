package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fundfinder-backend/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{OpenAIKey: "sk-test", OpenAIModel: "gpt-4o-mini", OpenAIBaseURL: srv.URL + "/v1"})
}

func TestGenerateLeadsReturnsContent(t *testing.T) {
	var gotPrompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) == 2 {
			gotPrompt = body.Messages[1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"name\":\"X\"}]"},"finish_reason":"stop"}]}`))
	})

	out, err := c.GenerateLeads(context.Background(), LeadRequest{BusinessType: "Bakery", Location: "Austin, TX", Purpose: "new oven"})
	if err != nil {
		t.Fatalf("GenerateLeads: %v", err)
	}
	if out != `[{"name":"X"}]` {
		t.Fatalf("content = %q", out)
	}
	for _, want := range []string{"Bakery", "Austin, TX", "new oven"} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("prompt missing %q: %s", want, gotPrompt)
		}
	}
}

func TestGenerateLeadsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	})

	_, err := c.GenerateLeads(context.Background(), LeadRequest{BusinessType: "a", Location: "b"})
	var ce *CallError
	if !errors.As(err, &ce) {
		t.Fatalf("want CallError, got %T %v", err, err)
	}
	if ce.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d", ce.Status)
	}
	if ce.Diagnostic["message"] != "Rate limit reached" {
		t.Errorf("diagnostic = %#v", ce.Diagnostic)
	}
}

func TestGenerateLeadsNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-2","choices":[]}`))
	})
	_, err := c.GenerateLeads(context.Background(), LeadRequest{BusinessType: "a", Location: "b"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("want ErrEmptyCompletion, got %v", err)
	}
}
