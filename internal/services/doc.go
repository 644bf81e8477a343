// Package services defines the external collaborators of the worship planner and implements them.
//
// # Hymn Catalog
//
// [NotionHymns] implements [HymnRepository] over a Notion database. Property names come from
// [HymnSchema] so a catalog can keep its own column names. Listing follows cursors until the
// database is exhausted; a failed page aborts the whole list rather than returning a partial catalog.
//
// # Lectionary
//
// [LectionaryService] downloads the Vanderbilt Revised Common Lectionary calendar for a liturgical
// year and answers lookups from the cached rows. A date resolves to the Sunday on or before it.
// Every failure is reported as [shared.ErrLookup].
//
// # Scripture and Hymnary
//
// [ScriptureService] fetches passage text for the print-ready order of service.
// [HymnaryService] builds hymnary.org page links and resolves accompaniment audio.
//
// # Drafting
//
// [OpenAIDrafter] and [GeminiDrafter] implement [Drafter]. Prompts are built by [SectionPrompt]
// from a [models.DraftContext], never from the whole service. Errors wrap [shared.ErrGeneration].
package services
