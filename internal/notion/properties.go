package notion

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/jomei/notionapi"
)

// MaxTextLength is the per-object limit Notion places on rich text content.
const MaxTextLength = 2000

// Title builds a title property value.
func Title(s string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: RichText(s)}
}

// Text builds a rich text property value, split into chunks Notion accepts.
func Text(s string) *notionapi.RichTextProperty {
	return &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: RichText(s)}
}

// Number builds a number property value.
func Number(n float64) *notionapi.NumberProperty {
	return &notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: n}
}

// URL builds a url property value.
func URL(u string) *notionapi.URLProperty {
	return &notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: u}
}

// Checkbox builds a checkbox property value.
func Checkbox(b bool) *notionapi.CheckboxProperty {
	return &notionapi.CheckboxProperty{Type: notionapi.PropertyTypeCheckbox, Checkbox: b}
}

// Date builds a date property value for the calendar date of t.
func Date(t time.Time) *notionapi.DateProperty {
	d := notionapi.Date(shared.DateOf(t))
	return &notionapi.DateProperty{Type: notionapi.PropertyTypeDate, Date: &notionapi.DateObject{Start: &d}}
}

// Timestamp builds a date property value keeping the clock time of t.
func Timestamp(t time.Time) *notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return &notionapi.DateProperty{Type: notionapi.PropertyTypeDate, Date: &notionapi.DateObject{Start: &d}}
}

// MultiSelect builds a multi-select property value from option names.
func MultiSelect(names ...string) *notionapi.MultiSelectProperty {
	opts := make([]notionapi.Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, notionapi.Option{Name: n})
	}
	return &notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: opts}
}

// RichText splits s into text objects of at most [MaxTextLength] runes each.
func RichText(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}

	var out []notionapi.RichText
	for len(s) > 0 {
		chunk := s
		if utf8.RuneCountInString(s) > MaxTextLength {
			cut := 0
			for i := 0; i < MaxTextLength; i++ {
				_, size := utf8.DecodeRuneInString(s[cut:])
				cut += size
			}
			chunk = s[:cut]
		}
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: chunk},
		})
		s = s[len(chunk):]
	}
	return out
}

// PlainText concatenates the plain text of rich text objects.
//
// Objects built locally carry only Text.Content, so that is used when PlainText is empty.
func PlainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// String returns the plain-text rendering of any supported property value.
//
// Unsupported property types render as "".
func String(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return PlainText(v.Title)
	case *notionapi.RichTextProperty:
		return PlainText(v.RichText)
	case *notionapi.NumberProperty:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case *notionapi.URLProperty:
		return v.URL
	case *notionapi.CheckboxProperty:
		return strconv.FormatBool(v.Checkbox)
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.MultiSelectProperty:
		names := make([]string, 0, len(v.MultiSelect))
		for _, o := range v.MultiSelect {
			names = append(names, o.Name)
		}
		return strings.Join(names, ", ")
	case *notionapi.DateProperty:
		if t, ok := dateStart(v); ok {
			return shared.FormatDate(t)
		}
	}
	return ""
}

// GetString returns the plain text of props[name], or "" when absent.
func GetString(props notionapi.Properties, name string) string {
	p, ok := props[name]
	if !ok || p == nil {
		return ""
	}
	return String(p)
}

// GetNumber returns the number held in props[name].
//
// Notion represents an empty number as 0 and no hymnal numbers hymns 0, so zero reports false.
// A number written as text is also accepted.
func GetNumber(props notionapi.Properties, name string) (int, bool) {
	switch v := props[name].(type) {
	case *notionapi.NumberProperty:
		if v.Number == 0 {
			return 0, false
		}
		return int(v.Number), true
	case *notionapi.RichTextProperty, *notionapi.TitleProperty:
		n, err := strconv.Atoi(strings.TrimSpace(String(v)))
		if err != nil || n == 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// GetDate returns the start of the date held in props[name].
func GetDate(props notionapi.Properties, name string) (time.Time, bool) {
	v, ok := props[name].(*notionapi.DateProperty)
	if !ok {
		return time.Time{}, false
	}
	return dateStart(v)
}

// GetCheckbox returns the value of the checkbox props[name].
func GetCheckbox(props notionapi.Properties, name string) bool {
	v, ok := props[name].(*notionapi.CheckboxProperty)
	return ok && v.Checkbox
}

// GetList returns the entries of props[name]: multi-select option names, a select name,
// or rich text split on semicolons, commas and newlines. Entries are trimmed and empty ones dropped.
func GetList(props notionapi.Properties, name string) []string {
	var raw []string
	switch v := props[name].(type) {
	case *notionapi.MultiSelectProperty:
		for _, o := range v.MultiSelect {
			raw = append(raw, o.Name)
		}
	case *notionapi.SelectProperty:
		raw = []string{v.Select.Name}
	case *notionapi.RichTextProperty, *notionapi.TitleProperty:
		raw = strings.FieldsFunc(String(v), func(r rune) bool {
			return r == ';' || r == ',' || r == '\n'
		})
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Flatten renders every property of a page as plain text.
func Flatten(props notionapi.Properties) map[string]string {
	out := make(map[string]string, len(props))
	for name, p := range props {
		if p == nil {
			continue
		}
		out[name] = String(p)
	}
	return out
}

func dateStart(v *notionapi.DateProperty) (time.Time, bool) {
	if v == nil || v.Date == nil || v.Date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*v.Date.Start), true
}
