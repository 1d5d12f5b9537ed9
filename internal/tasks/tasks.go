// package tasks implements the listening-history reconciliation pipeline.
//
// The core abstraction is Engine, which orchestrates normalization, merging,
// enrichment, aggregation, and output writing for one run.
// Phases emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/replayed/internal/formatter"
	"github.com/desertthunder/replayed/internal/history"
	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/services"
	"github.com/desertthunder/replayed/internal/shared"
	"github.com/desertthunder/replayed/internal/stats"
)

// RunOpts contains per-invocation configuration for a pipeline run.
type RunOpts struct {
	ExportPath string // Streaming history export CSV
	OutputDir  string // Directory for summary tables and the combined log
	DryRun     bool   // Compute everything but write no files
}

// RunResult contains all data from a full pipeline run.
type RunResult struct {
	RunID       string                           // Ledger ID, empty when the ledger is unavailable
	Counters    models.RunCounters               // Per-row outcome tallies for the end-of-run report
	CacheHits   int                              // Tracks resolved from the metadata cache
	CacheMisses int                              // Tracks that needed an API lookup
	Plays       []models.Play                    // Merged, time-ordered event log
	Metadata    map[string]*models.TrackMetadata // Resolved metadata keyed by track ID
	Summary     *stats.Summary                   // Computed summary tables
	OutputDir   string                           // Where files were written, empty on dry runs
	Files       []string                         // Written file paths
}

// MetadataCache is the persistent track metadata store consumed by the
// enrichment phase. Implemented by repositories.MetadataCacheAdapter.
type MetadataCache interface {
	Lookup(trackIDs []string) (map[string]*models.TrackMetadata, error)
	Store(record *models.TrackMetadata) error
}

// RunRecorder persists the pipeline run ledger.
// Implemented by repositories.RunRepository.
type RunRecorder interface {
	Create(run *models.PipelineRun) error
	Update(run *models.PipelineRun) error
}

// Engine defines the pipeline operation.
type Engine interface {
	// Run performs a full reconciliation run: normalize, fetch, merge, enrich, aggregate, write.
	Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error)
}

// EngineOpts contains pipeline tuning parameters, normally sourced from the
// [pipeline] config section.
type EngineOpts struct {
	MinPlayMS      int           // Minimum play duration for an export row to count
	DedupTolerance time.Duration // Cross-source duplicate window
	BatchSize      int           // Track IDs per metadata lookup call
	RateLimit      float64       // Metadata lookups per second
	TopN           int           // Rows per ranked summary table
}

// PipelineEngine implements Engine.
// Contains dependencies on the Spotify service, metadata cache, and run ledger.
type PipelineEngine struct {
	spotify services.Service
	cache   MetadataCache
	runs    RunRecorder
	opts    EngineOpts
}

// NewPipelineEngine creates a new PipelineEngine with the provided dependencies.
// The spotify service, cache, and recorder may each be nil; the corresponding
// phase degrades rather than failing the run.
func NewPipelineEngine(spotify services.Service, cache MetadataCache, runs RunRecorder, opts EngineOpts) *PipelineEngine {
	if opts.DedupTolerance <= 0 {
		opts.DedupTolerance = 2 * time.Minute
	}
	if opts.BatchSize <= 0 || opts.BatchSize > services.MaxBatchSize {
		opts.BatchSize = services.MaxBatchSize
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.TopN <= 0 {
		opts.TopN = stats.DefaultTopN
	}

	return &PipelineEngine{
		spotify: spotify,
		cache:   cache,
		runs:    runs,
		opts:    opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PipelineEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full reconciliation run. Output files appear only when every
// phase succeeds; an aborted run leaves no partial output.
func (e *PipelineEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	if opts.ExportPath == "" {
		return nil, fmt.Errorf("%w: no export path configured", shared.ErrPipelineAborted)
	}

	run := models.NewPipelineRun()
	if e.runs != nil {
		// Ledger failures never block the run itself
		if err := e.runs.Create(run); err != nil {
			run.SetID("")
		}
	}

	counters := models.RunCounters{}

	abort := func(err error) (*RunResult, error) {
		e.recordFinish(run, counters, models.RunStatusAborted)
		return nil, err
	}

	e.sendProgress(progress, readingExportUpdate(opts.ExportPath))

	f, err := os.Open(opts.ExportPath)
	if err != nil {
		return abort(fmt.Errorf("%w: cannot read export: %v", shared.ErrPipelineAborted, err))
	}

	historical, err := history.NormalizeExport(f, history.Options{MinPlayMS: e.opts.MinPlayMS, AudioOnly: true})
	f.Close()
	if err != nil {
		return abort(err)
	}

	counters.HistoricalRows = len(historical.Plays)
	counters.SkippedRows += historical.Skipped
	counters.FilteredRows += historical.Filtered
	e.sendProgress(progress, exportParsedUpdate(len(historical.Plays), historical.Skipped, historical.Filtered))

	if err := ctx.Err(); err != nil {
		return abort(fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err))
	}

	var live []models.Play
	if e.spotify != nil {
		e.sendProgress(progress, fetchRecentUpdate())

		recent, err := e.spotify.RecentlyPlayed(ctx, 50)
		if err != nil {
			e.sendProgress(progress, recentFailedUpdate(err))
		} else {
			normalized := history.NormalizeRecent(recent)
			counters.LiveRows = len(normalized.Plays)
			counters.SkippedRows += normalized.Skipped
			live = normalized.Plays
			e.sendProgress(progress, recentFetchedUpdate(len(live)))
		}
	}

	merged := history.Merge(historical.Plays, live, e.opts.DedupTolerance)
	counters.MergedRows = len(merged.Plays)
	counters.DuplicateRows = merged.Duplicates + merged.Resolved
	e.sendProgress(progress, mergedUpdate(len(merged.Plays), counters.DuplicateRows))

	enriched, err := e.enrich(ctx, progress, merged.Plays)
	if err != nil {
		return abort(err)
	}
	counters.IncompleteTracks = enriched.Incomplete

	e.sendProgress(progress, aggregateUpdate())
	summary := stats.Compute(merged.Plays, stats.Options{TopN: e.opts.TopN})

	result := &RunResult{
		RunID:       run.ID(),
		CacheHits:   enriched.CacheHits,
		CacheMisses: enriched.CacheMisses,
		Plays:       merged.Plays,
		Metadata:    enriched.Metadata,
		Summary:     summary,
	}

	if !opts.DryRun {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err))
		}

		files, err := e.writeOutputs(progress, opts.OutputDir, result)
		if err != nil {
			return abort(err)
		}
		result.OutputDir = opts.OutputDir
		result.Files = files
	}

	result.Counters = counters
	e.recordFinish(run, counters, models.RunStatusCompleted)
	e.sendProgress(progress, runCompletedUpdate(counters))

	return result, nil
}

// writeOutputs persists the combined log and every summary table. Each file
// is written atomically so an interrupted run leaves no partial file behind.
func (e *PipelineEngine) writeOutputs(progress chan<- ProgressUpdate, outputDir string, result *RunResult) ([]string, error) {
	if outputDir == "" {
		outputDir = "."
	}

	historyData, err := formatter.HistoryToCSV(result.Plays, result.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err)
	}

	tables, err := formatter.SummaryFiles(result.Summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err)
	}

	total := len(tables) + 1
	files := make([]string, 0, total)

	path := filepath.Join(outputDir, formatter.CombinedHistoryFile)
	e.sendProgress(progress, writeFileUpdate(1, total, formatter.CombinedHistoryFile))
	if err := shared.WriteFileAtomic(path, historyData, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err)
	}
	files = append(files, path)

	for i, name := range formatter.TableNames {
		filename := name + ".csv"
		path := filepath.Join(outputDir, filename)

		e.sendProgress(progress, writeFileUpdate(i+2, total, filename))
		if err := shared.WriteFileAtomic(path, tables[filename], 0644); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err)
		}
		files = append(files, path)
	}

	return files, nil
}

// recordFinish closes out the ledger entry when one exists.
func (e *PipelineEngine) recordFinish(run *models.PipelineRun, counters models.RunCounters, status models.RunStatus) {
	if e.runs == nil || run.ID() == "" {
		return
	}
	run.SetCounters(counters)
	run.Finish(status)
	// Ledger errors ignored
	_ = e.runs.Update(run)
}
