package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// ArchiveRepository implements [models.ArchiveStore] over the archived_services table.
//
// The full service is kept as a JSON payload; date and occasion are copied into columns for listing.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new ArchiveRepository with the given database connection
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Save inserts record under a generated ID
func (r *ArchiveRepository) Save(ctx context.Context, record models.ArchiveRecord) (string, error) {
	id := shared.GenerateID()
	record.ID = id

	payload, err := json.Marshal(record.Service)
	if err != nil {
		return "", wrap("encode service", err)
	}

	query := `
		INSERT INTO archived_services (id, service_date, occasion, payload, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		shared.FormatDate(record.Service.Date),
		record.Service.Occasion,
		string(payload),
		record.SavedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", wrap("insert archived service", err)
	}

	return id, nil
}

// List returns every archived service, newest service date first
func (r *ArchiveRepository) List(ctx context.Context) ([]models.ArchiveEntry, error) {
	query := `
		SELECT id, service_date, occasion, saved_at
		FROM archived_services
		ORDER BY service_date DESC, saved_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap("list archived services", err)
	}
	defer rows.Close()

	var entries []models.ArchiveEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("iterate archived services", err)
	}

	return entries, nil
}

// Get retrieves an archived service by ID
func (r *ArchiveRepository) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	query := `
		SELECT id, payload, saved_at
		FROM archived_services
		WHERE id = ?
	`

	var (
		rec     models.ArchiveRecord
		payload string
		savedAt string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: archived service %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrap("get archived service", err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Service); err != nil {
		return nil, wrap("decode archived service "+id, err)
	}
	if rec.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return nil, wrap("parse saved_at", err)
	}

	return &rec, nil
}

func scanEntry(rows *sql.Rows) (*models.ArchiveEntry, error) {
	var (
		entry   models.ArchiveEntry
		date    string
		savedAt string
	)
	if err := rows.Scan(&entry.ID, &date, &entry.Occasion, &savedAt); err != nil {
		return nil, wrap("scan archived service", err)
	}

	var err error
	if entry.Date, err = shared.ParseDate(date); err != nil {
		return nil, wrap("parse service_date", err)
	}
	if entry.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return nil, wrap("parse saved_at", err)
	}
	return &entry, nil
}

// UsageRepository implements [models.UsageStore] over the hymn_usage table.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new UsageRepository with the given database connection
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Append inserts every record in a single transaction
func (r *UsageRepository) Append(ctx context.Context, records ...models.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO hymn_usage (hymn_number, hymn_title, date_used) VALUES (?, ?, ?)`)
	if err != nil {
		return wrap("prepare usage insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.HymnNumber, rec.HymnTitle, shared.FormatDate(rec.DateUsed)); err != nil {
			return wrap(fmt.Sprintf("insert usage of hymn %d", rec.HymnNumber), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit usage", err)
	}
	return nil
}

// Records returns usage on or after since, oldest first
func (r *UsageRepository) Records(ctx context.Context, since time.Time) ([]models.UsageRecord, error) {
	query := `
		SELECT hymn_number, hymn_title, date_used
		FROM hymn_usage
		WHERE date_used >= ?
		ORDER BY date_used, id
	`

	from := ""
	if !since.IsZero() {
		from = shared.FormatDate(since)
	}

	rows, err := r.db.QueryContext(ctx, query, from)
	if err != nil {
		return nil, wrap("query usage", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var (
			rec  models.UsageRecord
			date string
		)
		if err := rows.Scan(&rec.HymnNumber, &rec.HymnTitle, &date); err != nil {
			return nil, wrap("scan usage", err)
		}
		if rec.DateUsed, err = shared.ParseDate(date); err != nil {
			return nil, wrap("parse date_used", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("iterate usage", err)
	}
	return records, nil
}
