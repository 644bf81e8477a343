// Package tasks holds the planning logic of the assistant: hymn suggestion, the usage log,
// the service archive, and the drafting pass that assembles a service.
//
// # Suggestion
//
// [Suggest] is a pure function. It scores each hymn by how many reading keywords match its
// scripture tags, drops hymns sung recently, and returns a deterministic ordering:
// score descending, then hymn number ascending, with unnumbered hymns last in catalog order.
//
// # Usage and Archive
//
// [UsageTracker] and [Archive] hold no backend logic. They depend on [models.UsageStore] and
// [models.ArchiveStore], and the concrete store is chosen when the command is built.
//
// The exclusion window for a service date d and w weeks is [d - 7w days, d).
//
// # Planning
//
// [Planner.Prepare] turns a date into a service skeleton. A lectionary miss is logged and leaves
// the occasion and readings blank for manual entry. [Planner.Draft] fills liturgy sections; one
// section failing never stops the others.
//
// # Progress Reporting
//
// Long operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so a slow reader never blocks planning.
package tasks
