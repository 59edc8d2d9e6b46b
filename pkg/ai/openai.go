package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/pkg/config"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-3.5-turbo"

	// Messages below this rune count are not worth a remote call
	minAnalyzableChars = 3

	maxKeywords = 5
)

// Client is a minimal client for OpenAI-compatible chat completions used
// for sentiment classification. Every outcome that only means "the remote
// path cannot serve this message" (missing credential, too-short message,
// transport failure, bad status, undecodable reply) yields (nil, nil) so
// the caller can fall back to the local classifier.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	inputRatePer1K  float64
	outputRatePer1K float64
	logger          *zap.Logger
	client          *http.Client
}

// NewClient creates a sentiment classification client using values from the
// provided config. Pass a nil config to fall back to environment variables.
func NewClient(cfg *config.OpenAIConfig, logger *zap.Logger) *Client {
	var apiKey, base, model string
	inputRate, outputRate := 0.0010, 0.0020

	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
		model = cfg.Model
		if cfg.InputRatePer1K > 0 {
			inputRate = cfg.InputRatePer1K
		}
		if cfg.OutputRatePer1K > 0 {
			outputRate = cfg.OutputRatePer1K
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if base == "" {
		base = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:          apiKey,
		baseURL:         base,
		model:           model,
		inputRatePer1K:  inputRate,
		outputRatePer1K: outputRate,
		logger:          logger,
		client:          &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Classification is the outcome of one remote sentiment call
type Classification struct {
	Result *entities.SentimentResult
	Usage  *entities.TokenUsage
	Model  string
	Raw    string
}

// sentimentPayload is the JSON object the model is instructed to return
type sentimentPayload struct {
	Sentiment  string             `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions"`
	Keywords   []string           `json:"keywords"`
	Reasoning  string             `json:"reasoning"`
}

const sentimentPromptTemplate = `Analyze the sentiment of this customer support message. The message may be in Indonesian or English.

Message: "%s"

Respond with ONLY a JSON object, no other text:
{"sentiment": "positive|negative|neutral", "confidence": 0.0-1.0, "emotions": {"emotion": intensity}, "keywords": ["word"], "reasoning": "one short sentence"}

Rules:
- sentiment must be exactly one of: positive, negative, neutral
- emotions: only entries scoring above 0.1, chosen from joy, anger, fear, sadness, surprise, disgust, trust, anticipation, at most 5
- keywords: at most 5 words or short phrases copied from the message`

// AnalyzeSentiment classifies one message remotely. A (nil, nil) return
// means the remote path declined or failed and the caller should use the
// local classifier; an error is returned only when the request itself
// could not be constructed.
func (c *Client) AnalyzeSentiment(ctx context.Context, message string) (*Classification, error) {
	if c.apiKey == "" {
		c.logger.Debug("remote sentiment skipped: no API key configured")
		return nil, nil
	}
	if utf8.RuneCountInString(message) < minAnalyzableChars {
		c.logger.Debug("remote sentiment skipped: message too short",
			zap.Int("length", utf8.RuneCountInString(message)))
		return nil, nil
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: fmt.Sprintf(sentimentPromptTemplate, message)},
		},
		Temperature: 0.1,
		MaxTokens:   500,
		TopP:        1,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("remote sentiment request failed", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Warn("remote sentiment returned error status",
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		c.logger.Warn("remote sentiment response undecodable", zap.Error(err))
		return nil, nil
	}
	if len(cr.Choices) == 0 {
		c.logger.Warn("remote sentiment response has no choices")
		return nil, nil
	}

	raw := cr.Choices[0].Message.Content
	result := parseSentimentContent(raw)
	if result == nil {
		c.logger.Warn("remote sentiment content invalid", zap.String("content", raw))
		return nil, nil
	}

	usage := entities.NewTokenUsage(
		cr.Usage.PromptTokens,
		cr.Usage.CompletionTokens,
		c.inputRatePer1K,
		c.outputRatePer1K,
	)

	return &Classification{
		Result: result,
		Usage:  usage,
		Model:  c.model,
		Raw:    raw,
	}, nil
}

// parseSentimentContent turns the assistant reply into a SentimentResult.
// Returns nil when the content cannot be trusted: not JSON, or the
// sentiment field is missing or not a known label.
func parseSentimentContent(content string) *entities.SentimentResult {
	content = extractJSON(content)

	var p sentimentPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil
	}

	sentiment := entities.Sentiment(p.Sentiment)
	if !sentiment.IsValid() {
		return nil
	}

	confidence := p.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	keywords := p.Keywords
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	// Keep only emotions from the fixed vocabulary, then normalize the
	// surviving intensities to sum to 1
	var emotions map[entities.Emotion]float64
	if len(p.Emotions) > 0 {
		var sum float64
		kept := make(map[entities.Emotion]float64)
		for name, intensity := range p.Emotions {
			emotion := entities.Emotion(name)
			if !emotion.IsValid() || intensity <= 0 {
				continue
			}
			kept[emotion] = intensity
			sum += intensity
		}
		if sum > 0 {
			for emotion, intensity := range kept {
				kept[emotion] = intensity / sum
			}
			emotions = kept
		}
	}

	return &entities.SentimentResult{
		Sentiment:  sentiment,
		Confidence: confidence,
		Emotions:   emotions,
		Keywords:   keywords,
	}
}
