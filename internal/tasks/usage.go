package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// DefaultExclusionWeeks is how long a sung hymn is held back from suggestions.
const DefaultExclusionWeeks = 12

// UsageTracker records sung hymns and answers the rolling exclusion window.
type UsageTracker struct {
	store models.UsageStore
}

func NewUsageTracker(store models.UsageStore) *UsageTracker {
	return &UsageTracker{store: store}
}

// RecordUsage appends one record per numbered hymn for the service on date.
// Hymns without a number are skipped since the window is keyed by number.
func (u *UsageTracker) RecordUsage(ctx context.Context, hymns []models.Hymn, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: usage date is required", shared.ErrInvalidInput)
	}
	day := shared.DateOf(date)

	records := make([]models.UsageRecord, 0, len(hymns))
	for _, h := range hymns {
		if !h.HasNumber() {
			continue
		}
		records = append(records, models.UsageRecord{HymnNumber: *h.Number, HymnTitle: h.Title, DateUsed: day})
	}
	if len(records) == 0 {
		return nil
	}

	if err := u.store.Append(ctx, records...); err != nil {
		return repositoryError("record usage", err)
	}
	return nil
}

// Window returns the records dated in [asOf - weeks*7 days, asOf). A negative weeks panics.
func (u *UsageTracker) Window(ctx context.Context, asOf time.Time, weeks int) ([]models.UsageRecord, error) {
	if weeks < 0 {
		panic("tasks: negative exclusion window")
	}
	end := shared.DateOf(asOf)
	start := end.AddDate(0, 0, -7*weeks)

	records, err := u.store.Records(ctx, start)
	if err != nil {
		return nil, repositoryError("read usage", err)
	}

	var out []models.UsageRecord
	for _, r := range records {
		d := shared.DateOf(r.DateUsed)
		if !d.Before(start) && d.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// UsedWithin reports whether hymn number was sung in the window ending at asOf.
func (u *UsageTracker) UsedWithin(ctx context.Context, number int, asOf time.Time, weeks int) (bool, error) {
	records, err := u.Window(ctx, asOf, weeks)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.HymnNumber == number {
			return true, nil
		}
	}
	return false, nil
}

// ExcludedSet returns every hymn number sung in the window ending at asOf.
func (u *UsageTracker) ExcludedSet(ctx context.Context, asOf time.Time, weeks int) (map[int]struct{}, error) {
	records, err := u.Window(ctx, asOf, weeks)
	if err != nil {
		return nil, err
	}
	set := make(map[int]struct{}, len(records))
	for _, r := range records {
		set[r.HymnNumber] = struct{}{}
	}
	return set, nil
}

func repositoryError(op string, err error) error {
	if errors.Is(err, shared.ErrRepository) || errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrRepository, op, err)
}
