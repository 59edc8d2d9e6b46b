package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chatdesk-team/chatdesk/pkg/config"
)

func completionResponse(content string, promptTokens, completionTokens int) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

func TestAnalyzeSentiment_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if len(payload.Messages) != 1 {
			t.Fatalf("expected 1 message got %d", len(payload.Messages))
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(completionResponse(
			`{"sentiment":"negative","confidence":0.85,"emotions":{"anger":0.7,"sadness":0.3},"keywords":["kecewa","lambat"]}`,
			1000, 500,
		))
	}))
	defer ts.Close()

	client := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL}, nil)

	classification, err := client.AnalyzeSentiment(context.Background(), "pengiriman sangat lambat, saya kecewa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification == nil {
		t.Fatal("expected classification, got nil")
	}
	if classification.Result.Sentiment != "negative" {
		t.Fatalf("unexpected sentiment %s", classification.Result.Sentiment)
	}
	if classification.Result.Confidence != 0.85 {
		t.Fatalf("unexpected confidence %f", classification.Result.Confidence)
	}
	if len(classification.Result.Keywords) != 2 {
		t.Fatalf("unexpected keywords %v", classification.Result.Keywords)
	}
	// 1000 prompt at $0.0010/1K plus 500 completion at $0.0020/1K
	if classification.Usage.EstimatedCostUSD != 0.00200 {
		t.Fatalf("unexpected cost %.5f", classification.Usage.EstimatedCostUSD)
	}
	if classification.Usage.TotalTokens != 1500 {
		t.Fatalf("unexpected total tokens %d", classification.Usage.TotalTokens)
	}
}

func TestAnalyzeSentiment_MarkdownFences(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"sentiment\":\"positive\",\"confidence\":0.9}\n```"
		json.NewEncoder(w).Encode(completionResponse(content, 100, 50))
	}))
	defer ts.Close()

	client := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL}, nil)

	classification, err := client.AnalyzeSentiment(context.Background(), "barang bagus sekali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification == nil {
		t.Fatal("expected classification, got nil")
	}
	if classification.Result.Sentiment != "positive" {
		t.Fatalf("unexpected sentiment %s", classification.Result.Sentiment)
	}
}

func TestAnalyzeSentiment_SoftSkips(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		client := NewClient(&config.OpenAIConfig{}, nil)
		classification, err := client.AnalyzeSentiment(context.Background(), "a perfectly fine message")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if classification != nil {
			t.Fatal("expected nil classification without credential")
		}
	})

	t.Run("message too short", func(t *testing.T) {
		client := NewClient(&config.OpenAIConfig{APIKey: "test-key"}, nil)
		classification, err := client.AnalyzeSentiment(context.Background(), "ok")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if classification != nil {
			t.Fatal("expected nil classification for short message")
		}
	})

	t.Run("server error status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer ts.Close()

		client := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL}, nil)
		classification, err := client.AnalyzeSentiment(context.Background(), "rate limited message")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if classification != nil {
			t.Fatal("expected nil classification on error status")
		}
	})

	t.Run("invalid sentiment label", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(completionResponse(
				`{"sentiment":"very happy","confidence":0.9}`, 100, 50,
			))
		}))
		defer ts.Close()

		client := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL}, nil)
		classification, err := client.AnalyzeSentiment(context.Background(), "the label is wrong")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if classification != nil {
			t.Fatal("expected nil classification for unknown label")
		}
	})

	t.Run("non json content", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(completionResponse("I cannot classify this.", 100, 50))
		}))
		defer ts.Close()

		client := NewClient(&config.OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL}, nil)
		classification, err := client.AnalyzeSentiment(context.Background(), "free text reply")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if classification != nil {
			t.Fatal("expected nil classification for non-JSON content")
		}
	})
}

func TestParseSentimentContent_Hardening(t *testing.T) {
	// Confidence above 1 is clamped, keywords truncated to 5, unknown
	// emotions dropped and the rest normalized
	result := parseSentimentContent(`{
		"sentiment": "positive",
		"confidence": 1.7,
		"emotions": {"joy": 0.6, "bliss": 0.9, "trust": 0.2},
		"keywords": ["a","b","c","d","e","f","g"]
	}`)
	if result == nil {
		t.Fatal("expected result")
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence not clamped: %f", result.Confidence)
	}
	if len(result.Keywords) != 5 {
		t.Fatalf("keywords not truncated: %v", result.Keywords)
	}
	if _, ok := result.Emotions["bliss"]; ok {
		t.Fatal("unknown emotion kept")
	}
	var sum float64
	for _, v := range result.Emotions {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("emotions not normalized, sum=%f", sum)
	}

	if r := parseSentimentContent(`{"confidence":0.9}`); r != nil {
		t.Fatal("expected nil for missing sentiment")
	}
	if r := parseSentimentContent(`{"sentiment":"positive","confidence":-0.4}`); r == nil || r.Confidence != 0 {
		t.Fatal("negative confidence not clamped to 0")
	}
}
