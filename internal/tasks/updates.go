package tasks

import (
	"fmt"

	"github.com/desertthunder/replayed/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	ReadExport Phase = iota
	FetchRecent
	MergeEvents
	Enrich
	Aggregate
	WriteOutput
	Done
)

func (p Phase) String() string {
	switch p {
	case ReadExport:
		return "read_export"
	case FetchRecent:
		return "fetch_recent"
	case MergeEvents:
		return "merge_events"
	case Enrich:
		return "enrich"
	case Aggregate:
		return "aggregate"
	case WriteOutput:
		return "write_output"
	case Done:
		return "done"
	default:
		return ""
	}
}

func readingExportUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading streaming history export: %s", path),
	}
}

func exportParsedUpdate(rows, skipped, filtered int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed %d plays (%d skipped, %d filtered)", rows, skipped, filtered),
	}
}

func fetchRecentUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecent,
		Step:    1,
		Total:   1,
		Message: "Fetching recently played tracks from Spotify...",
	}
}

func recentFetchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecent,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d recent plays", count),
	}
}

func recentFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecent,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Spotify unavailable, continuing with export only: %v", err),
	}
}

func mergedUpdate(total, collapsed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeEvents,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merged into %d events (%d collapsed)", total, collapsed),
	}
}

func enrichStartUpdate(tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    0,
		Total:   tracks,
		Message: fmt.Sprintf("Resolving metadata for %d tracks...", tracks),
	}
}

func enrichBatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up track metadata...", step, total),
	}
}

func enrichFailedUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Metadata lookup failed, marking batch incomplete: %v", step, total, err),
	}
}

func aggregateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: "Computing summary tables...",
	}
}

func writeFileUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Writing %s", step, total, name),
	}
}

func runCompletedUpdate(counters models.RunCounters) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Run complete: %d events, %d skipped, %d incomplete tracks", counters.MergedRows, counters.SkippedRows, counters.IncompleteTracks),
		Data:    counters,
	}
}
