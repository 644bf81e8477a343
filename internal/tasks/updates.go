package tasks

import (
	"fmt"

	"github.com/desertthunder/hymnal/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LookupReadings Phase = iota
	FetchPassages
	DraftSection
)

func (p Phase) String() string {
	switch p {
	case LookupReadings:
		return "lookup_readings"
	case FetchPassages:
		return "fetch_passages"
	case DraftSection:
		return "draft_section"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func lookupUpdate(date string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupReadings,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up readings for %s...", date),
	}
}

func passageUpdate(step, total int, ref string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPassages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, ref),
	}
}

func draftingUpdate(step, total int, section models.Section) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DraftSection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Drafting %s...", step, total, section.Title()),
		Data:    section,
	}
}

func overrideUpdate(step, total int, section models.Section) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DraftSection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (provided)", step, total, section.Title()),
		Data:    section,
	}
}

func draftFailedUpdate(step, total int, section models.Section, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DraftSection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, section.Title(), err),
		Data:    section,
	}
}

func draftedUpdate(step, total int, section models.Section) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DraftSection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, section.Title()),
		Data:    section,
	}
}
