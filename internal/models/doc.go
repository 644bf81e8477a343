// Package models defines the domain types and persistence capabilities of the worship planner.
//
// Catalog and lectionary types:
//   - [Hymn] : a hymn record translated from the hymn repository
//   - [ScriptureReading] : one reading, labeled by [ReadingLabel]
//   - [LectionaryDay] : the occasion and readings for a Sunday
//
// Service types:
//   - [Service] : an assembled service with hymns, readings and drafted [Section] text
//   - [SelectedHymns] : the opening, response and closing hymn slots
//   - [DraftContext] : the view of a service given to a liturgy drafter
//
// Persistence:
//   - [ArchiveStore] stores [ArchiveRecord] values and lists them as [ArchiveEntry]
//   - [UsageStore] is the append-only log of [UsageRecord] values
//
// Dates are civil dates held as UTC midnight.
package models
