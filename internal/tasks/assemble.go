package tasks

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/services"
	"github.com/desertthunder/hymnal/internal/shared"
)

// PlannerOpts holds the collaborators of a [Planner]. Any of them may be nil.
type PlannerOpts struct {
	Lectionary services.Lectionary
	Passages   services.PassageFetcher
	Drafter    services.Drafter
	Logger     *log.Logger
}

// Planner assembles a service from the lectionary and the drafter.
type Planner struct {
	lectionary services.Lectionary
	passages   services.PassageFetcher
	drafter    services.Drafter
	logger     *log.Logger
}

func NewPlanner(opts PlannerOpts) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Planner{
		lectionary: opts.Lectionary,
		passages:   opts.Passages,
		drafter:    opts.Drafter,
		logger:     logger,
	}
}

// SectionFailure is a section the drafter could not write.
type SectionFailure struct {
	Section models.Section
	Err     error
}

// DraftResult reports what a drafting pass did to each requested section.
type DraftResult struct {
	Drafted    []models.Section
	Overridden []models.Section
	Failures   []SectionFailure
}

// Failed reports whether section was left blank.
func (r DraftResult) Failed(section models.Section) bool {
	for _, f := range r.Failures {
		if f.Section == section {
			return true
		}
	}
	return false
}

// Prepare starts a service for date. The occasion argument wins over the lectionary's name for the day.
//
// A failed lookup is not an error: it is logged and the readings are left blank for manual entry.
func (p *Planner) Prepare(ctx context.Context, date time.Time, occasion string, progress chan<- ProgressUpdate) (*models.Service, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: service date is required", shared.ErrInvalidInput)
	}

	svc := &models.Service{Date: shared.DateOf(date), Occasion: strings.TrimSpace(occasion), Liturgy: map[string]string{}}
	if p.lectionary == nil {
		return svc, nil
	}

	sendProgress(progress, lookupUpdate(shared.FormatDate(svc.Date)))
	day, err := p.lectionary.Lookup(ctx, svc.Date)
	if err != nil {
		p.logger.Warn("lectionary lookup failed, continuing without readings", "date", shared.FormatDate(svc.Date), "error", err)
		return svc, nil
	}

	if svc.Occasion == "" {
		svc.Occasion = day.Occasion
	}
	svc.Readings = day.Readings
	if r, ok := day.Reading(models.FirstReading); ok {
		svc.SelectedOT = r.Reference
	}
	if r, ok := day.Reading(models.Gospel); ok {
		svc.SelectedNT = r.Reference
	} else if r, ok := day.Reading(models.SecondReading); ok {
		svc.SelectedNT = r.Reference
	}
	return svc, nil
}

// FetchPassages fills in the text of each reading that has none.
// Readings that fail keep an empty text; the failures are joined into the returned error.
func (p *Planner) FetchPassages(ctx context.Context, svc *models.Service, progress chan<- ProgressUpdate) error {
	if p.passages == nil || svc == nil {
		return nil
	}

	var errs []error
	total := len(svc.Readings)
	for i := range svc.Readings {
		r := &svc.Readings[i]
		if r.Text != "" {
			continue
		}
		sendProgress(progress, passageUpdate(i+1, total, r.Reference))

		text, err := p.passages.Passage(ctx, r.Reference)
		if err != nil {
			p.logger.Warn("passage fetch failed", "reference", r.Reference, "error", err)
			errs = append(errs, err)
			continue
		}
		r.Text = text
	}
	return errors.Join(errs...)
}

// Draft fills sections of svc. An empty sections list drafts every section.
//
// Non-blank overrides are used verbatim. A section whose draft fails is set to "" and listed in
// [DraftResult.Failures]; the remaining sections are still drafted. Sections not requested keep
// their current text. svc.Liturgy is replaced once, after every section has been handled.
func (p *Planner) Draft(ctx context.Context, svc *models.Service, sections []models.Section, overrides map[models.Section]string, progress chan<- ProgressUpdate) (*DraftResult, error) {
	if svc == nil || svc.Date.IsZero() {
		return nil, fmt.Errorf("%w: service date must be set before drafting", shared.ErrInvalidInput)
	}
	if len(sections) == 0 {
		sections = models.AllSections()
	}

	liturgy := maps.Clone(svc.Liturgy)
	if liturgy == nil {
		liturgy = make(map[string]string, len(sections))
	}

	dc := svc.DraftContext()
	result := &DraftResult{}
	total := len(sections)

	for i, section := range sections {
		step := i + 1

		if text := strings.TrimSpace(overrides[section]); text != "" {
			liturgy[string(section)] = text
			result.Overridden = append(result.Overridden, section)
			sendProgress(progress, overrideUpdate(step, total, section))
			continue
		}

		sendProgress(progress, draftingUpdate(step, total, section))
		text, err := p.draft(ctx, section, dc)
		if err != nil {
			p.logger.Warn("section left blank", "section", section, "error", err)
			liturgy[string(section)] = ""
			result.Failures = append(result.Failures, SectionFailure{Section: section, Err: err})
			sendProgress(progress, draftFailedUpdate(step, total, section, err))
			continue
		}

		p.logger.Debug("drafted section", "section", section, "chars", len(text))
		liturgy[string(section)] = text
		result.Drafted = append(result.Drafted, section)
		sendProgress(progress, draftedUpdate(step, total, section))
	}

	svc.Liturgy = liturgy
	return result, nil
}

func (p *Planner) draft(ctx context.Context, section models.Section, dc models.DraftContext) (string, error) {
	if p.drafter == nil {
		return "", fmt.Errorf("%w: no drafter configured", shared.ErrGeneration)
	}
	text, err := p.drafter.Draft(ctx, section, dc)
	if err != nil {
		if !errors.Is(err, shared.ErrGeneration) {
			err = fmt.Errorf("%w: %w", shared.ErrGeneration, err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// SuggestionText joins the reading references, any fetched passage text, and extra into the text
// used to match hymns.
func SuggestionText(readings []models.ScriptureReading, extra string) string {
	var b strings.Builder
	for _, r := range readings {
		b.WriteString(r.Reference)
		b.WriteByte('\n')
		if r.Text != "" {
			b.WriteString(r.Text)
			b.WriteByte('\n')
		}
	}
	b.WriteString(extra)
	return strings.TrimSpace(b.String())
}
