package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/genai"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultMaxTokens   = 1024
)

// DrafterConfig configures a text generation provider.
type DrafterConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Transport http.RoundTripper // underlying transport, defaults to [http.DefaultTransport]
}

// NewDrafter returns the drafter for the configured provider.
func NewDrafter(ctx context.Context, cfg shared.GenerationConfig, timeout time.Duration) (Drafter, error) {
	dc := DrafterConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   timeout,
	}
	switch cfg.Provider {
	case shared.ProviderGemini:
		return NewGeminiDrafter(ctx, dc)
	case shared.ProviderOpenAI, "":
		return NewOpenAIDrafter(dc)
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", shared.ErrInvalidConfig, cfg.Provider)
	}
}

// OpenAIDrafter drafts sections with an OpenAI-compatible chat completions endpoint.
type OpenAIDrafter struct {
	client    *http.Client
	baseURL   string
	model     string
	maxTokens int
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIDrafter creates a chat completions drafter. The API key is sent as an OAuth2 bearer token.
func NewOpenAIDrafter(cfg DrafterConfig) (*OpenAIDrafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: generation api key", shared.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" || strings.Contains(cfg.BaseURL, "generativelanguage") {
		cfg.BaseURL = DefaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}),
			Base:   cfg.Transport,
		},
	}

	return &OpenAIDrafter{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Draft writes one section. Every failure wraps [shared.ErrGeneration].
func (d *OpenAIDrafter) Draft(ctx context.Context, section models.Section, dc models.DraftContext) (string, error) {
	prompt, err := SectionPrompt(section, dc)
	if err != nil {
		return "", err
	}

	text, err := d.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", shared.ErrGeneration, section, err)
	}
	return text, nil
}

func (d *OpenAIDrafter) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: d.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: d.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrAPIRequest, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", shared.ErrAPIRequest)
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", shared.ErrAPIRequest)
	}
	return text, nil
}

// GeminiDrafter drafts sections with the Gemini API.
type GeminiDrafter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiDrafter creates a Gemini drafter.
func NewGeminiDrafter(ctx context.Context, cfg DrafterConfig) (*GeminiDrafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: generation api key", shared.ErrMissingCredentials)
	}
	if cfg.Model == "" || strings.HasPrefix(cfg.Model, "gpt-") {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.Timeout > 0 || cfg.Transport != nil {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	}
	if cfg.BaseURL != "" && !strings.Contains(cfg.BaseURL, "openai.com") {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiDrafter{client: client, model: cfg.Model, maxTokens: int32(cfg.MaxTokens)}, nil
}

// Draft writes one section. Every failure wraps [shared.ErrGeneration].
func (d *GeminiDrafter) Draft(ctx context.Context, section models.Section, dc models.DraftContext) (string, error) {
	prompt, err := SectionPrompt(section, dc)
	if err != nil {
		return "", err
	}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		MaxOutputTokens:   d.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", shared.ErrGeneration, section, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty completion", shared.ErrGeneration, section)
	}
	return text, nil
}
