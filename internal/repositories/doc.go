// Package repositories implements the persistence backends for the service archive and the hymn usage log.
//
// Every backend satisfies [models.ArchiveStore] or [models.UsageStore]. Failures are wrapped in
// [shared.ErrRepository] and unknown archive ids are [shared.ErrNotFound].
//
// Key Implementations:
//   - [ArchiveRepository], [UsageRepository] : SQLite tables created by the migrations in shared/sql
//   - [ArchiveFile], [UsageFile] : saved_services.json and hymn_usage.json in the data directory
//   - [NotionArchive], [NotionUsage] : one Notion page per archived service or per hymn sung
//
// The file and Notion archives also read entries written before full readings and hymn slots were
// stored, rebuilding readings from bare references and hymn slots from a positional list.
package repositories
