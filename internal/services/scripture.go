package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/hymnal/internal/shared"
)

const DefaultScriptureURL = "https://bible-api.com"

// bookPrefix captures a leading book name such as "1 Corinthians" or "Psalm".
var bookPrefix = regexp.MustCompile(`^((?:[1-3]\s*)?[A-Za-z][A-Za-z .]*?)\s+\d`)

// ScriptureService implements [PassageFetcher] against bible-api.com.
type ScriptureService struct {
	baseURL     string
	translation string
	httpClient  *http.Client
}

type passageResponse struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Error     string `json:"error"`
}

// NewScriptureService creates a passage client. Empty arguments select bible-api.com and the World English Bible.
func NewScriptureService(baseURL, translation string, client *http.Client) *ScriptureService {
	if baseURL == "" {
		baseURL = DefaultScriptureURL
	}
	if translation == "" {
		translation = "web"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ScriptureService{baseURL: strings.TrimRight(baseURL, "/"), translation: translation, httpClient: client}
}

// Passage fetches the text of reference. Compound references ("Isaiah 9:1-4; 11:1") are fetched part by part
// and joined with blank lines. Failures wrap [shared.ErrLookup].
func (s *ScriptureService) Passage(ctx context.Context, reference string) (string, error) {
	parts := SplitReference(reference)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty scripture reference", shared.ErrInvalidInput)
	}

	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		text, err := s.fetch(ctx, part)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", shared.ErrLookup, part, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n\n"), nil
}

func (s *ScriptureService) fetch(ctx context.Context, ref string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?translation=%s", s.baseURL, url.PathEscape(ref), url.QueryEscape(s.translation))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var body passageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if body.Error != "" {
		return "", fmt.Errorf("%w: %s", shared.ErrAPIRequest, body.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return strings.TrimSpace(body.Text), nil
}

// SplitReference splits a compound reference on semicolons. A part without a book name
// takes the book of the part before it, so "Isaiah 9:1-4; 11:1" yields "Isaiah 9:1-4" and "Isaiah 11:1".
func SplitReference(reference string) []string {
	var parts []string
	book := ""
	for _, raw := range strings.Split(reference, ";") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		if m := bookPrefix.FindStringSubmatch(part); m != nil {
			book = strings.TrimSpace(m[1])
		} else if book != "" && startsWithDigit(part) {
			part = book + " " + part
		}
		parts = append(parts, part)
	}
	return parts
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
