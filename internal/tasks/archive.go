package tasks

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// Archive keeps finished services. Archived services are never updated or deleted.
type Archive struct {
	store models.ArchiveStore
	now   func() time.Time
}

// NewArchive creates an archive over store. A nil now uses the wall clock.
func NewArchive(store models.ArchiveStore, now func() time.Time) *Archive {
	if now == nil {
		now = time.Now
	}
	return &Archive{store: store, now: now}
}

// Save stores a copy of svc and returns its archive id. The service must be dated.
func (a *Archive) Save(ctx context.Context, svc *models.Service) (string, error) {
	if svc == nil || svc.Date.IsZero() {
		return "", fmt.Errorf("%w: cannot archive a service without a date", shared.ErrInvalidInput)
	}

	snapshot := svc.Clone()
	snapshot.Date = shared.DateOf(snapshot.Date)

	id, err := a.store.Save(ctx, models.ArchiveRecord{
		Service: snapshot,
		SavedAt: a.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return "", repositoryError("save service", err)
	}
	return id, nil
}

// ListEntries returns every archived service, newest service date first.
// Entries for the same date are ordered by save time, newest first, then by id.
func (a *Archive) ListEntries(ctx context.Context) ([]models.ArchiveEntry, error) {
	entries, err := a.store.List(ctx)
	if err != nil {
		return nil, repositoryError("list archive", err)
	}

	slices.SortStableFunc(entries, func(x, y models.ArchiveEntry) int {
		if c := y.Date.Compare(x.Date); c != 0 {
			return c
		}
		if c := y.SavedAt.Compare(x.SavedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return entries, nil
}

// Get returns the archived record for id, or [shared.ErrNotFound].
func (a *Archive) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, repositoryError("get archived service", err)
	}
	return rec, nil
}
