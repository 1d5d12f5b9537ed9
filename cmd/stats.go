package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/replayed/internal/formatter"
	"github.com/desertthunder/replayed/internal/shared"
	"github.com/desertthunder/replayed/internal/stats"
	"github.com/urfave/cli/v3"
)

// loadSummary reads a combined history file and recomputes its summary tables.
func (r *Runner) loadSummary(inputPath string) (*stats.Summary, error) {
	if inputPath == "" {
		dir := r.config.Output.Dir
		if dir == "" {
			dir = "."
		}
		inputPath = filepath.Join(dir, formatter.CombinedHistoryFile)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open combined history: %w", err)
	}
	defer f.Close()

	plays, err := formatter.HistoryFromCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse combined history: %w", err)
	}

	return stats.Compute(plays, stats.Options{TopN: r.config.Pipeline.TopN}), nil
}

// Stats displays summary tables computed from a combined history file.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	summary, err := r.loadSummary(cmd.String("input"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	limit := cmd.Int("limit")
	table := cmd.String("table")

	if table != "" {
		rendered, err := formatter.RenderTable(table, summary, limit)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		return r.writePlain("%s\n", rendered)
	}

	for _, name := range formatter.TableNames {
		rendered, err := formatter.RenderTable(name, summary, limit)
		if err != nil {
			return err
		}
		r.writePlainHeader(name)
		r.writePlain("%s\n", rendered)
	}

	return nil
}
