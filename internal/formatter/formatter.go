// package formatter renders an assembled service as an order of service (Markdown, plain text)
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat accepts the format names and their long forms.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (use md or txt)", shared.ErrInvalidFlag, s)
}

const (
	AssuranceResponse = "People: Thanks be to God! Amen."
	AffirmationText   = "Apostles' Creed (or as printed)"
	SermonPlaceholder = "[Sermon title]"
)

// Options trims the order of service. The zero value is the full pastor's copy.
type Options struct {
	OmitSermon             bool
	OmitPrayersOfThePeople bool
}

// SecretaryCopy leaves out the sermon title and the prayers of the people.
var SecretaryCopy = Options{OmitSermon: true, OmitPrayersOfThePeople: true}

type paragraph struct {
	prefix string // printed before text, never bold
	text   string
	bold   bool
}

type block struct {
	heading string
	sub     bool // heading nested under the previous top-level block
	paras   []paragraph
}

var rolePattern = regexp.MustCompile(`(?i)\b(leader|people):\s*`)

// ExportToMarkdown renders svc as Markdown. People responses are bold.
func ExportToMarkdown(svc *models.Service, opts Options) ([]byte, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: no service to export", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	buf.WriteString("# Worship Service\n\n")
	if svc.Occasion != "" {
		buf.WriteString(fmt.Sprintf("**%s**\n\n", svc.Occasion))
	}
	if !svc.Date.IsZero() {
		buf.WriteString(fmt.Sprintf("%s\n\n", shared.DisplayDate(svc.Date)))
	}

	for _, b := range orderOfService(svc, opts) {
		level := "##"
		if b.sub {
			level = "###"
		}
		buf.WriteString(fmt.Sprintf("%s %s\n\n", level, b.heading))

		for _, p := range b.paras {
			text := p.text
			if p.bold {
				text = boldLines(text)
			}
			buf.WriteString(p.prefix + hardBreaks(text) + "\n\n")
		}
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExportToText renders svc as plain text with underlined headings.
func ExportToText(svc *models.Service, opts Options) ([]byte, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: no service to export", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	buf.WriteString("Worship Service\n")
	if svc.Occasion != "" {
		buf.WriteString(svc.Occasion + "\n")
	}
	if !svc.Date.IsZero() {
		buf.WriteString(shared.DisplayDate(svc.Date) + "\n")
	}

	for _, b := range orderOfService(svc, opts) {
		rule := "="
		if b.sub {
			rule = "-"
		}
		buf.WriteString(fmt.Sprintf("\n%s\n%s\n", b.heading, strings.Repeat(rule, utf8.RuneCountInString(b.heading))))
		for _, p := range b.paras {
			buf.WriteString(p.prefix + p.text + "\n")
		}
	}

	return buf.Bytes(), nil
}

// Export renders svc in format.
func Export(svc *models.Service, format Format, opts Options) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return ExportToMarkdown(svc, opts)
	case FormatText:
		return ExportToText(svc, opts)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
}

// DefaultFilename is order_of_service_{date}.{format}.
func DefaultFilename(svc *models.Service, format Format) string {
	date := "undated"
	if !svc.Date.IsZero() {
		date = shared.FormatDate(svc.Date)
	}
	return fmt.Sprintf("order_of_service_%s.%s", date, format)
}

// WriteExport renders svc and writes it to path, returning the path written.
//
// An empty path uses [DefaultFilename] in the working directory; a directory path gets the default name inside it.
func WriteExport(svc *models.Service, path string, format Format, opts Options) (string, error) {
	data, err := Export(svc, format, opts)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = DefaultFilename(svc, format)
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFilename(svc, format))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// orderOfService lays out the fixed sequence of a service. Sections with no text are skipped,
// except the affirmation and the sermon title, which always print.
func orderOfService(svc *models.Service, opts Options) []block {
	var blocks []block
	add := func(heading string, paras ...paragraph) {
		blocks = append(blocks, block{heading: heading, paras: paras})
	}
	section := func(s models.Section) (string, bool) {
		text := strings.TrimSpace(svc.Section(s))
		return text, text != ""
	}

	if text, ok := section(models.CallToWorship); ok {
		add(models.CallToWorship.Title(), leaderPeople(text)...)
	}
	if text, ok := section(models.OpeningPrayer); ok {
		add(models.OpeningPrayer.Title(), paragraph{text: text})
	}
	if h := svc.Hymns.Opening; h != nil {
		add("First Hymn", hymnLine(h))
	}
	if text, ok := section(models.PrayerOfConfession); ok {
		add(models.PrayerOfConfession.Title(), paragraph{text: text, bold: true})
	}
	if text, ok := section(models.Assurance); ok {
		add(models.Assurance.Title(), assurance(text)...)
	}
	if text, ok := section(models.PrayerForIllumination); ok {
		add(models.PrayerForIllumination.Title(), paragraph{text: text})
	}

	if ref := oldTestamentRef(svc); ref != "" {
		add("Old Testament Reading", paragraph{text: ref})
	}
	if ref := newTestamentRef(svc); ref != "" {
		add("New Testament Reading", paragraph{text: ref})
	}

	if !opts.OmitSermon {
		title := strings.TrimSpace(svc.SermonTitle)
		if title == "" {
			title = SermonPlaceholder
		}
		add("Sermon Title", paragraph{text: title})
	}
	add("Affirmation of Faith", paragraph{text: AffirmationText})

	if h := svc.Hymns.Response; h != nil {
		add("Second Hymn", hymnLine(h))
	}
	if svc.IncludeCommunion {
		blocks = append(blocks, communionLiturgy()...)
	}

	if text, ok := section(models.PrayersOfThePeople); ok && !opts.OmitPrayersOfThePeople {
		add(models.PrayersOfThePeople.Title(), paragraph{text: text})
	}
	if text, ok := section(models.OffertoryPrayer); ok {
		add(models.OffertoryPrayer.Title(), paragraph{text: text})
	}
	if h := svc.Hymns.Closing; h != nil {
		add("Third Hymn", hymnLine(h))
	}
	if text, ok := section(models.Benediction); ok {
		add(models.Benediction.Title(), paragraph{text: text})
	}

	return blocks
}

// leaderPeople splits responsive text on "Leader:" and "People:" markers.
// Text before the first marker is kept as is; text without markers is a single paragraph.
func leaderPeople(text string) []paragraph {
	matches := rolePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []paragraph{{text: text}}
	}

	var out []paragraph
	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		out = append(out, paragraph{text: pre})
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])
		if content == "" {
			continue
		}
		if strings.EqualFold(text[m[2]:m[3]], "people") {
			out = append(out, paragraph{prefix: "People: ", text: content, bold: true})
		} else {
			out = append(out, paragraph{text: "Leader: " + content})
		}
	}
	return out
}

// assurance prints the leader's words followed by the fixed congregational response.
func assurance(text string) []paragraph {
	var out []paragraph
	leader := strings.TrimSpace(text)
	if len(leader) >= len("Leader:") && strings.EqualFold(leader[:len("Leader:")], "Leader:") {
		leader = strings.TrimSpace(leader[len("Leader:"):])
	}
	if leader != "" {
		out = append(out, paragraph{text: "Leader: " + leader})
	}
	return append(out, paragraph{text: AssuranceResponse, bold: true})
}

func hymnLine(h *models.Hymn) paragraph {
	return paragraph{text: h.Label()}
}

// oldTestamentRef is the chosen OT text, falling back to the first reading.
func oldTestamentRef(svc *models.Service) string {
	if ref := strings.TrimSpace(svc.SelectedOT); ref != "" {
		return ref
	}
	for _, r := range svc.Readings {
		if r.Label == models.FirstReading {
			return r.Reference
		}
	}
	return ""
}

// newTestamentRef is the chosen NT text, falling back to the gospel and then the second reading.
func newTestamentRef(svc *models.Service) string {
	if ref := strings.TrimSpace(svc.SelectedNT); ref != "" {
		return ref
	}
	for _, label := range []models.ReadingLabel{models.Gospel, models.SecondReading} {
		for _, r := range svc.Readings {
			if r.Label == label {
				return r.Reference
			}
		}
	}
	return ""
}

func boldLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			lines[i] = "**" + l + "**"
		}
	}
	return strings.Join(lines, "\n")
}

// hardBreaks keeps single newlines inside a Markdown paragraph.
func hardBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "  \n")
}
