package classify

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/httputil"
	"github.com/hpungsan/eventrank/internal/logging"
)

const serviceName = "classification service"

// placeholderKey is the unfilled value shipped in sample configs.
const placeholderKey = "YOUR_API_KEY_HERE"

// Model produces raw classification text for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	Endpoint         string
	APIKey           string
	Temperature      float64
	MaxOutputTokens  int
	Timeout          time.Duration
	MaxResponseBytes int64
	HTTPClient       *http.Client
	Logger           *zap.Logger
}

// GeminiClient calls a generateContent-style endpoint.
type GeminiClient struct {
	endpoint    string
	apiKey      string
	temperature float64
	maxTokens   int
	maxBytes    int64
	client      *http.Client
	logger      *zap.Logger
}

// NewGeminiClient builds a client from cfg.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	client := cfg.HTTPClient
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}
	return &GeminiClient{
		endpoint:    cfg.Endpoint,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		maxBytes:    cfg.MaxResponseBytes,
		client:      client,
		logger:      logging.OrNop(cfg.Logger),
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Configured reports whether an API key is available.
func (c *GeminiClient) Configured() bool {
	return c.apiKey != "" && c.apiKey != placeholderKey
}

// Generate posts prompt and returns candidates[0].content.parts[0].text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", errors.NewConfig("classification API key")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", errors.NewConfig("classification endpoint")
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: c.temperature, MaxOutputTokens: c.maxTokens},
	})
	if err != nil {
		return "", errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error embeds the full URL, key included.
		return "", errors.NewUpstreamFetch(serviceName, 0, fmt.Errorf("POST %s: %w", httputil.RedactURL(u.String()), unwrapURLError(err)))
	}
	defer resp.Body.Close()

	data, err := httputil.ReadAllWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return "", errors.NewUpstreamFetch(serviceName, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("classification request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", httputil.Snippet(data, 200)),
		)
		return "", errors.NewUpstreamFetch(serviceName, resp.StatusCode, nil)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.NewParse("classification API response", err)
	}
	if len(parsed.Candidates) == 0 ||
		parsed.Candidates[0].Content == nil ||
		len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == nil ||
		*parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.NewParse("classification API response", nil)
	}
	return *parsed.Candidates[0].Content.Parts[0].Text, nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if stderrors.As(err, &ue) {
		return ue.Err
	}
	return err
}
