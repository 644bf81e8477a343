package models

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// ReadingLabel identifies a lectionary reading slot.
type ReadingLabel int

const (
	FirstReading ReadingLabel = iota
	Psalm
	SecondReading
	Gospel
)

// ReadingLabels lists every label in canonical order.
func ReadingLabels() []ReadingLabel {
	return []ReadingLabel{FirstReading, Psalm, SecondReading, Gospel}
}

func (l ReadingLabel) String() string {
	switch l {
	case FirstReading:
		return "first_reading"
	case Psalm:
		return "psalm"
	case SecondReading:
		return "second_reading"
	case Gospel:
		return "gospel"
	default:
		return ""
	}
}

// Title is the label as printed in an order of service.
func (l ReadingLabel) Title() string {
	switch l {
	case FirstReading:
		return "First Reading"
	case Psalm:
		return "Psalm"
	case SecondReading:
		return "Second Reading"
	case Gospel:
		return "Gospel"
	default:
		return ""
	}
}

// ParseReadingLabel is the inverse of [ReadingLabel.String].
func ParseReadingLabel(s string) (ReadingLabel, error) {
	for _, l := range ReadingLabels() {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown reading label %q", s)
}

func (l ReadingLabel) MarshalText() ([]byte, error) {
	if l.String() == "" {
		return nil, fmt.Errorf("unknown reading label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *ReadingLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseReadingLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ScriptureReading is one lectionary reading. Text is empty until the passage is fetched.
type ScriptureReading struct {
	Label     ReadingLabel `json:"label"`
	Reference string       `json:"reference"`
	Text      string       `json:"text,omitempty"`
}

// LectionaryDay is the result of a lectionary lookup.
type LectionaryDay struct {
	Occasion string             `json:"occasion"`
	Date     time.Time          `json:"date"`
	Readings []ScriptureReading `json:"readings"`
}

// Reading returns the reading with label l, if the day has one.
func (d LectionaryDay) Reading(l ReadingLabel) (ScriptureReading, bool) {
	for _, r := range d.Readings {
		if r.Label == l {
			return r, true
		}
	}
	return ScriptureReading{}, false
}

// SelectedHymns are the three hymn slots of a service.
type SelectedHymns struct {
	Opening  *Hymn `json:"opening"`
	Response *Hymn `json:"response"`
	Closing  *Hymn `json:"closing"`
}

// Hymns returns the filled slots in service order.
func (s SelectedHymns) Hymns() []Hymn {
	var out []Hymn
	for _, h := range []*Hymn{s.Opening, s.Response, s.Closing} {
		if h != nil {
			out = append(out, *h)
		}
	}
	return out
}

// Service is an assembled worship service.
type Service struct {
	Occasion         string             `json:"occasion"`
	Date             time.Time          `json:"service_date"`
	Readings         []ScriptureReading `json:"readings"`
	Hymns            SelectedHymns      `json:"hymns"`
	Liturgy          map[string]string  `json:"liturgy"`
	IncludeCommunion bool               `json:"include_communion"`
	SermonTitle      string             `json:"sermon_title"`
	SelectedOT       string             `json:"selected_ot_ref"`
	SelectedNT       string             `json:"selected_nt_ref"`
}

// Clone returns a deep copy of s.
func (s Service) Clone() Service {
	out := s
	out.Readings = slices.Clone(s.Readings)
	out.Liturgy = maps.Clone(s.Liturgy)
	out.Hymns = SelectedHymns{
		Opening:  cloneHymn(s.Hymns.Opening),
		Response: cloneHymn(s.Hymns.Response),
		Closing:  cloneHymn(s.Hymns.Closing),
	}
	return out
}

// Section returns the drafted text for section, or "".
func (s Service) Section(section Section) string {
	return s.Liturgy[string(section)]
}

// DraftContext is what a drafter sees of the service being planned.
func (s Service) DraftContext() DraftContext {
	return DraftContext{
		Occasion:         s.Occasion,
		Readings:         s.Readings,
		Hymns:            s.Hymns,
		IncludeCommunion: s.IncludeCommunion,
	}
}

// Title is the archive title, e.g. "2026-03-01 Second Sunday in Lent".
func (s Service) Title() string {
	if s.Occasion == "" {
		return s.Date.Format("2006-01-02")
	}
	return s.Date.Format("2006-01-02") + " " + s.Occasion
}

// DraftContext carries the parts of a service a liturgy section is written from.
type DraftContext struct {
	Occasion         string
	Readings         []ScriptureReading
	Hymns            SelectedHymns
	IncludeCommunion bool
}

func cloneHymn(h *Hymn) *Hymn {
	if h == nil {
		return nil
	}
	c := *h
	if h.Number != nil {
		c.Number = IntPtr(*h.Number)
	}
	c.ScriptureTags = slices.Clone(h.ScriptureTags)
	c.Properties = maps.Clone(h.Properties)
	return &c
}
