package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hymnal/internal/shared"
	"golang.org/x/net/html"
)

const (
	DefaultHymnaryURL = "https://hymnary.org"
	DefaultHymnal     = "GG2013"
	DefaultAudioCDN   = "148542"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// HymnaryService builds hymnary.org links for a hymnal and resolves recorded accompaniment.
type HymnaryService struct {
	baseURL    string
	hymnal     string
	cdn        string
	httpClient *http.Client
	logger     *log.Logger
	audio      map[int]string
}

// NewHymnaryService creates a resolver from the hymnary config section.
func NewHymnaryService(cfg shared.HymnaryConfig, client *http.Client, logger *log.Logger) *HymnaryService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHymnaryURL
	}
	if cfg.Hymnal == "" {
		cfg.Hymnal = DefaultHymnal
	}
	if cfg.AudioCDNID == "" {
		cfg.AudioCDNID = DefaultAudioCDN
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &HymnaryService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		hymnal:     cfg.Hymnal,
		cdn:        cfg.AudioCDNID,
		httpClient: client,
		logger:     logger,
		audio:      map[int]string{},
	}
}

// LinkFor returns the hymn page for number in the configured hymnal.
func (h *HymnaryService) LinkFor(number int) string {
	return fmt.Sprintf("%s/hymn/%s/%d", h.baseURL, h.hymnal, number)
}

// AudioURL guesses the accompaniment MP3 location from the number and title.
//
// The slug is the lowercased title with punctuation removed and spaces as %20, cut to 30 bytes.
// Not every hymn has audio and some live under a different CDN id; [HymnaryService.ResolveAudio] checks the page.
func (h *HymnaryService) AudioURL(number int, title string) string {
	slug := nonWord.ReplaceAllString(strings.ToLower(title), "")
	slug = whitespace.ReplaceAllString(strings.TrimSpace(slug), "%20")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	if slug == "" {
		slug = fmt.Sprint(number)
	}
	return fmt.Sprintf("%s/media/fetch/%s/hymnary/audio/%s/%03d-%s.mp3", h.baseURL, h.cdn, h.hymnal, number, slug)
}

// ResolveAudio reads the hymn page and returns the first accompaniment MP3 it links to.
//
// It never fails: any fetch or parse problem yields the [HymnaryService.AudioURL] guess. Results are cached by number.
func (h *HymnaryService) ResolveAudio(ctx context.Context, number int, title string) string {
	if u, ok := h.audio[number]; ok {
		return u
	}

	fallback := h.AudioURL(number, title)
	found, err := h.findAudio(ctx, number)
	switch {
	case err != nil:
		h.logger.Debug("audio lookup failed, using constructed url", "number", number, "error", err)
		found = fallback
	case found == "":
		found = fallback
	}

	h.audio[number] = found
	return found
}

func (h *HymnaryService) findAudio(ctx context.Context, number int) (string, error) {
	page := h.LinkFor(number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	base, err := url.Parse(page)
	if err != nil {
		return "", err
	}
	marker := "hymnary/audio/" + h.hymnal

	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "a" {
			continue
		}
		for _, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			href := strings.TrimSpace(attr.Val)
			if !strings.Contains(href, marker) {
				continue
			}
			href, _, _ = strings.Cut(href, "?")
			if !strings.HasSuffix(href, ".mp3") {
				continue
			}
			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			return base.ResolveReference(ref).String(), nil
		}
	}
	return "", nil
}
