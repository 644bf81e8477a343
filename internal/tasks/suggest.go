package tasks

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/desertthunder/hymnal/internal/models"
	"golang.org/x/text/cases"
)

// stopwords are dropped from reading text before matching. Book names and verse numbers are kept.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an and are as at be been but by did do does for from had has have he her him his how
		i if in into is it its me my no not of on or our out shall she so that the their them
		then there these they this those thus to unto up upon us was we were what when where
		which who whom why will with ye yet you your thee thou thy thine hath doth saith
		o oh lo say said all also am any can could may might must one than too very would`) {
		stopwords[w] = struct{}{}
	}
}

// ScoredHymn is a suggestion candidate with its keyword overlap count.
type ScoredHymn struct {
	Hymn  models.Hymn
	Score int
}

// Keywords extracts the distinct matching keywords of text in order of first appearance.
//
// Text is case folded and split on every rune that is neither a letter nor a digit.
// Stopwords and single-rune tokens are dropped.
func Keywords(text string) []string {
	folded := cases.Fold().String(text)
	tokens := strings.FieldsFunc(folded, notWordRune)

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// ScoreHymns scores every hymn not in excluded against keywords and returns them in suggestion order.
func ScoreHymns(keywords []string, hymns []models.Hymn, excluded map[int]struct{}) []ScoredHymn {
	scored := make([]ScoredHymn, 0, len(hymns))
	for _, h := range hymns {
		if isExcluded(h, excluded) {
			continue
		}
		scored = append(scored, ScoredHymn{Hymn: h, Score: score(keywords, h.ScriptureTags)})
	}

	slices.SortStableFunc(scored, func(a, b ScoredHymn) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		switch {
		case a.Hymn.HasNumber() && b.Hymn.HasNumber():
			return cmp.Compare(*a.Hymn.Number, *b.Hymn.Number)
		case a.Hymn.HasNumber():
			return -1
		case b.Hymn.HasNumber():
			return 1
		default:
			return 0
		}
	})
	return scored
}

// Suggest returns up to limit hymns for readingText, skipping any whose number is in excluded.
//
// Text without keywords yields eligible hymns in catalog order. The result is never padded.
// A negative limit panics.
func Suggest(readingText string, hymns []models.Hymn, excluded map[int]struct{}, limit int) []models.Hymn {
	if limit < 0 {
		panic("tasks: negative suggestion limit")
	}

	out := make([]models.Hymn, 0, min(limit, len(hymns)))
	keywords := Keywords(readingText)

	if len(keywords) == 0 {
		for _, h := range hymns {
			if len(out) == limit {
				break
			}
			if !isExcluded(h, excluded) {
				out = append(out, h)
			}
		}
		return out
	}

	for _, s := range ScoreHymns(keywords, hymns, excluded) {
		if len(out) == limit {
			break
		}
		out = append(out, s.Hymn)
	}
	return out
}

func score(keywords, tags []string) int {
	total := 0
	for _, tag := range tags {
		folded := cases.Fold().String(strings.TrimSpace(tag))
		parts := strings.FieldsFunc(folded, notWordRune)
		for _, kw := range keywords {
			if kw == folded || slices.Contains(parts, kw) {
				total++
			}
		}
	}
	return total
}

func isExcluded(h models.Hymn, excluded map[int]struct{}) bool {
	if !h.HasNumber() {
		return false
	}
	_, ok := excluded[*h.Number]
	return ok
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
