package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/replayed/internal/shared"
	"github.com/desertthunder/replayed/internal/stats"
	"github.com/desertthunder/replayed/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI for browsing summary tables.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/replayed-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(func() (*stats.Summary, error) {
		return r.loadSummary(inputPath)
	})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
