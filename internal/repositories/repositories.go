package repositories

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrRepository, op, err)
}

// hymnRef is the stored shape of a hymn in older archives and the usage file.
type hymnRef struct {
	Number *int   `json:"number"`
	Title  string `json:"title"`
}

// encodeHymns stores selected hymns as a slot object.
func encodeHymns(h models.SelectedHymns) (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeHymns reads either the slot object or the older positional list of {title, number}.
func decodeHymns(raw string) (models.SelectedHymns, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return models.SelectedHymns{}, nil
	}

	if strings.HasPrefix(raw, "[") {
		var refs []hymnRef
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			return models.SelectedHymns{}, err
		}
		return hymnsFromRefs(refs), nil
	}

	var h models.SelectedHymns
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return models.SelectedHymns{}, err
	}
	return h, nil
}

func hymnsFromRefs(refs []hymnRef) models.SelectedHymns {
	var slots [3]*models.Hymn
	for i, r := range refs {
		if i == len(slots) {
			break
		}
		if r.Title == "" && r.Number == nil {
			continue
		}
		slots[i] = &models.Hymn{Title: r.Title, Number: r.Number}
	}
	return models.SelectedHymns{Opening: slots[0], Response: slots[1], Closing: slots[2]}
}

func refsFromHymns(h models.SelectedHymns) []hymnRef {
	refs := make([]hymnRef, 0, 3)
	for _, slot := range []*models.Hymn{h.Opening, h.Response, h.Closing} {
		if slot == nil {
			refs = append(refs, hymnRef{})
			continue
		}
		refs = append(refs, hymnRef{Number: slot.Number, Title: slot.Title})
	}
	return refs
}

// readingsFromLines rebuilds readings from a list of bare references, labelling them in canonical order.
func readingsFromLines(lines []string) []models.ScriptureReading {
	labels := models.ReadingLabels()
	var out []models.ScriptureReading
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label := labels[min(len(out), len(labels)-1)]
		out = append(out, models.ScriptureReading{Label: label, Reference: line})
	}
	return out
}

func referenceLines(readings []models.ScriptureReading) []string {
	out := make([]string, 0, len(readings))
	for _, r := range readings {
		out = append(out, r.Reference)
	}
	return out
}
