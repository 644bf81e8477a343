// package models defines the data model for the worship planning assistant
package models

import (
	"context"
	"time"
)

// ArchiveStore is the persistence capability behind the service archive.
//
// Implementations assign the id on Save and return [shared.ErrNotFound] from Get for unknown ids.
type ArchiveStore interface {
	Save(ctx context.Context, record ArchiveRecord) (string, error) // Save persists a record and returns its id
	List(ctx context.Context) ([]ArchiveEntry, error)                // List returns one entry per saved record, in any order
	Get(ctx context.Context, id string) (*ArchiveRecord, error)      // Get retrieves a record by id
}

// UsageStore is the persistence capability behind the hymn usage log.
type UsageStore interface {
	Append(ctx context.Context, records ...UsageRecord) error              // Append adds records to the log
	Records(ctx context.Context, since time.Time) ([]UsageRecord, error) // Records returns records used on or after since; zero returns all
}

// ArchiveEntry is the listing projection of an archived service.
type ArchiveEntry struct {
	ID       string    `json:"id"`
	Occasion string    `json:"occasion"`
	Date     time.Time `json:"service_date"`
	SavedAt  time.Time `json:"saved_at"`
}

// ArchiveRecord is an archived service as stored by an [ArchiveStore].
type ArchiveRecord struct {
	ID      string    `json:"id"`
	Service Service   `json:"service"`
	SavedAt time.Time `json:"saved_at"`
}

// Entry projects the record for listing.
func (r ArchiveRecord) Entry() ArchiveEntry {
	return ArchiveEntry{ID: r.ID, Occasion: r.Service.Occasion, Date: r.Service.Date, SavedAt: r.SavedAt}
}

// UsageRecord notes that a hymn was sung on a date. Records are never mutated.
type UsageRecord struct {
	HymnNumber int       `json:"hymn_number"`
	HymnTitle  string    `json:"hymn_title"`
	DateUsed   time.Time `json:"date_used"`
}
