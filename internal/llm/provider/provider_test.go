package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIProvider_Validate(t *testing.T) {
	p, err := NewOpenAIProvider()
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.Validate() == nil {
		t.Fatalf("expected error without api key")
	}
	if p.Model() != DefaultModel {
		t.Fatalf("Model = %q", p.Model())
	}
	p, _ = NewOpenAIProvider(WithAPIKey("k"), WithModel("gpt-4o-mini"))
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Model() != "gpt-4o-mini" {
		t.Fatalf("Model = %q", p.Model())
	}
}

func TestOpenAIProvider_CompleteSendsStrictSchema(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(b, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" {\"ok\":true} ","refusal":""}}]}`))
	}))
	defer ts.Close()

	p, err := NewOpenAIProvider(WithAPIKey("k"), WithBaseURL(ts.URL+"/"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Complete(context.Background(), ProviderResponseFormat{
		Name:         ResponseFormatPrinciples,
		Description:  ResponseFormatPrinciplesDescription,
		Schema:       `{"type":"object","properties":{"ok":{"type":"boolean"}},"required":["ok"],"additionalProperties":false}`,
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("out = %q", out)
	}
	if got["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", got["model"])
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Fatalf("response_format = %v", got["response_format"])
	}
	js, _ := rf["json_schema"].(map[string]any)
	if js["name"] != ResponseFormatPrinciples || js["strict"] != true {
		t.Fatalf("json_schema = %v", js)
	}
}

func TestOpenAIProvider_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer ts.Close()

	p, _ := NewOpenAIProvider(WithAPIKey("k"), WithBaseURL(ts.URL+"/"))
	if _, err := p.Complete(context.Background(), ProviderResponseFormat{UserPrompt: "x"}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestGeminiProvider_WithoutKey(t *testing.T) {
	p, err := NewGeminiProvider(context.Background(), WithGeminiModel("gemini-2.0-flash"))
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	if p.Validate() == nil {
		t.Fatalf("expected error without api key")
	}
	if p.Model() != "gemini-2.0-flash" {
		t.Fatalf("Model = %q", p.Model())
	}
	if _, err := p.Complete(context.Background(), ProviderResponseFormat{}); err == nil {
		t.Fatalf("Complete without key must fail")
	}
}
