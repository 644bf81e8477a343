// Package notion holds the Notion plumbing shared by the hymn catalog and the Notion-backed archive and usage log.
//
// [NewClient] builds a [notionapi.Client] behind a [ThrottledTransport] so every caller shares one request
// budget. [QueryAll] follows pagination cursors until a result set is exhausted.
//
// Property helpers translate between the typed notionapi property union and plain Go values:
// builders such as [Title], [Text] and [Date] for writes, and getters such as [GetString], [GetNumber]
// and [GetList] for reads. Long text is split into chunks of [MaxTextLength].
//
// Failures are classified by [WrapError] into [shared.ErrNotFound] or [shared.ErrRepository].
package notion
