package e2e

import (
	"net/http"
	"strings"
	"testing"
)

func TestGenerate_Success(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"title": "Getting Started With Sourdough",
		"keywords": ["sourdough", "baking"],
		"tone": "friendly",
		"targetWordCount": 600,
		"template": "how-to"
	}`

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generate", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["success"] != true {
		t.Fatalf("success = %v, body: %v", result["success"], result)
	}
	if result["finalProvider"] != "mock" {
		t.Errorf("finalProvider = %v, want mock", result["finalProvider"])
	}
	if result["fallbackUsed"] != false {
		t.Errorf("fallbackUsed = %v, want false", result["fallbackUsed"])
	}

	attempts, ok := result["attempts"].([]interface{})
	if !ok || len(attempts) != 1 {
		t.Fatalf("attempts = %v, want exactly 1", result["attempts"])
	}

	parsed, ok := result["parsed"].(map[string]interface{})
	if !ok {
		t.Fatal("expected parsed content")
	}
	title, _ := parsed["title"].(string)
	if !strings.Contains(title, "Sourdough") {
		t.Errorf("parsed title = %q, want topic-derived title", title)
	}

	metrics, ok := result["metrics"].(map[string]interface{})
	if !ok {
		t.Fatal("expected metrics")
	}
	if wc, _ := metrics["wordCount"].(float64); wc == 0 {
		t.Error("expected non-zero word count")
	}
}

func TestGenerate_CreateArticleMockStore(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"title": "Persisted Draft",
		"createArticle": true
	}`

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generate", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	articleID, _ := result["articleId"].(string)
	if !strings.HasPrefix(articleID, "mock-") {
		t.Errorf("articleId = %q, want mock- prefix for unconfigured store", articleID)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	ta := setupApp(t)

	body := `{"title": "Stable Output"}`

	first, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generate", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	second, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generate", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	a := parseJSON(t, first)
	b := parseJSON(t, second)
	if a["content"] != b["content"] {
		t.Error("identical requests against the mock provider produced different content")
	}
}

func TestGenerate_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/generate", `{"title": "Nope"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
	assertErrorCode(t, parseJSON(t, resp), "UNAUTHORIZED")
}

func TestGenerate_ValidationErrors(t *testing.T) {
	ta := setupApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{}`},
		{"title too short", `{"title": "ab"}`},
		{"bad tone", `{"title": "Valid Title", "tone": "sarcastic"}`},
		{"word count too low", `{"title": "Valid Title", "targetWordCount": 50}`},
		{"bad template", `{"title": "Valid Title", "template": "novel"}`},
		{"bad provider", `{"title": "Valid Title", "preferredProvider": "llama"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/generate", tt.body)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assertStatus(t, resp, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
		})
	}
}
