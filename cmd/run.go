package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/repositories"
	"github.com/desertthunder/replayed/internal/shared"
	"github.com/desertthunder/replayed/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runReport is the JSON shape of the end-of-run summary.
type runReport struct {
	RunID       string             `json:"run_id,omitempty"`
	Counters    models.RunCounters `json:"counters"`
	CacheHits   int                `json:"cache_hits"`
	CacheMisses int                `json:"cache_misses"`
	OutputDir   string             `json:"output_dir,omitempty"`
	Files       []string           `json:"files,omitempty"`
}

// Run executes the full reconciliation pipeline.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	exportPath := cmd.String("export")
	if exportPath == "" {
		exportPath = r.config.Pipeline.ExportPath
	}
	if exportPath == "" {
		return fmt.Errorf("%w: --export flag or pipeline.export_path must be set", shared.ErrMissingArgument)
	}

	outputDir := cmd.String("out")
	if outputDir == "" {
		outputDir = r.config.Output.Dir
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	engine := r.buildEngine(db)

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Total > 0 {
				r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
			} else {
				r.logger.Info(update.Message, "phase", update.Phase.String())
			}
		}
	}()

	result, runErr := engine.Run(ctx, progress, tasks.RunOpts{
		ExportPath: exportPath,
		OutputDir:  outputDir,
		DryRun:     cmd.Bool("dry-run"),
	})
	close(progress)
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("pipeline run failed: %w", runErr)
	}

	report := runReport{
		RunID:       result.RunID,
		Counters:    result.Counters,
		CacheHits:   result.CacheHits,
		CacheMisses: result.CacheMisses,
		OutputDir:   result.OutputDir,
		Files:       result.Files,
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Run Report")
	r.writePlain("Historical rows:   %d\n", report.Counters.HistoricalRows)
	r.writePlain("Live rows:         %d\n", report.Counters.LiveRows)
	r.writePlain("Merged rows:       %d\n", report.Counters.MergedRows)
	r.writePlain("Skipped (bad):     %d\n", report.Counters.SkippedRows)
	r.writePlain("Filtered out:      %d\n", report.Counters.FilteredRows)
	r.writePlain("Duplicates:        %d\n", report.Counters.DuplicateRows)
	r.writePlain("Incomplete tracks: %d\n", report.Counters.IncompleteTracks)
	r.writePlain("Cache hits:        %d\n", report.CacheHits)
	r.writePlain("Cache misses:      %d\n", report.CacheMisses)

	if cmd.Bool("dry-run") {
		r.writePlainln("Dry run: no files written.")
		return nil
	}

	r.writePlainln("✓ Wrote %d files to %s", len(report.Files), report.OutputDir)
	return nil
}

// RunLast shows the most recent pipeline run recorded in the ledger.
func (r *Runner) RunLast(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs := repositories.NewRunRepository(db)
	run, err := runs.Latest()
	if err != nil {
		return fmt.Errorf("failed to read run ledger: %w", err)
	}
	if run == nil {
		r.writePlain("No pipeline runs recorded yet.\n")
		return nil
	}

	counters := run.Counters()
	r.writePlainHeader("Last Run")
	r.writePlain("ID:      %s\n", run.ID())
	r.writePlain("Status:  %s\n", run.Status())
	r.writePlain("Started: %s\n", run.StartedAt().Format("2006-01-02 15:04:05"))
	if finished := run.FinishedAt(); finished != nil {
		r.writePlain("Ended:   %s\n", finished.Format("2006-01-02 15:04:05"))
	}
	r.writePlain("Merged rows:       %d\n", counters.MergedRows)
	r.writePlain("Skipped (bad):     %d\n", counters.SkippedRows)
	r.writePlain("Incomplete tracks: %d\n", counters.IncompleteTracks)

	return nil
}
