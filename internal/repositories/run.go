package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

// RunRepository persists the pipeline run ledger.
//
// Runs are inserted when a pipeline starts and updated once with final
// counters and status; the ledger backs `run` reports and debugging.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new pipeline run with a generated ID
func (r *RunRepository) Create(run *models.PipelineRun) error {
	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO pipeline_runs (id, started_at, finished_at, historical_rows, live_rows, merged_rows, skipped_rows, filtered_rows, duplicate_rows, incomplete_tracks, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	counters := run.Counters()

	_, err := r.db.Exec(query,
		id,
		run.StartedAt(),
		run.FinishedAt(),
		counters.HistoricalRows,
		counters.LiveRows,
		counters.MergedRows,
		counters.SkippedRows,
		counters.FilteredRows,
		counters.DuplicateRows,
		counters.IncompleteTracks,
		run.Status(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline run: %w", err)
	}

	return nil
}

// Update writes the run's counters, status and finish time back to the ledger
func (r *RunRepository) Update(run *models.PipelineRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE pipeline_runs
		SET finished_at = ?, historical_rows = ?, live_rows = ?, merged_rows = ?, skipped_rows = ?, filtered_rows = ?, duplicate_rows = ?, incomplete_tracks = ?, status = ?
		WHERE id = ?
	`

	counters := run.Counters()

	result, err := r.db.Exec(query,
		run.FinishedAt(),
		counters.HistoricalRows,
		counters.LiveRows,
		counters.MergedRows,
		counters.SkippedRows,
		counters.FilteredRows,
		counters.DuplicateRows,
		counters.IncompleteTracks,
		run.Status(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pipeline run not found: %s", run.ID())
	}

	return nil
}

// Latest retrieves the most recently started run, or nil when the ledger is empty
func (r *RunRepository) Latest() (*models.PipelineRun, error) {
	query := `
		SELECT id, started_at, finished_at, historical_rows, live_rows, merged_rows, skipped_rows, filtered_rows, duplicate_rows, incomplete_tracks, status
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	run, err := r.scanOne(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.PipelineRun, error) {
	var (
		id         string
		startedAt  sql.NullTime
		finishedAt sql.NullTime
		counters   models.RunCounters
		status     string
	)

	err := row.Scan(
		&id,
		&startedAt,
		&finishedAt,
		&counters.HistoricalRows,
		&counters.LiveRows,
		&counters.MergedRows,
		&counters.SkippedRows,
		&counters.FilteredRows,
		&counters.DuplicateRows,
		&counters.IncompleteTracks,
		&status,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pipeline run: %w", err)
	}

	run := models.NewPipelineRun()
	run.SetID(id)
	if startedAt.Valid {
		run.SetStartedAt(startedAt.Time)
	}
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	run.SetCounters(counters)
	run.SetStatus(models.RunStatus(status))

	return run, nil
}
