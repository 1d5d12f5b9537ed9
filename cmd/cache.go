package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/replayed/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheStats reports the size and resolution state of the metadata cache.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewMetadataRepository(db)
	cacheStats, err := repo.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(cacheStats, true)
	}

	r.writePlainHeader("Metadata Cache")
	r.writePlain("Cached tracks: %d\n", cacheStats.Total)
	r.writePlain("Resolved:      %d\n", cacheStats.Resolved)
	r.writePlain("Incomplete:    %d\n", cacheStats.Incomplete)

	return nil
}

// CacheClear removes all cached track metadata.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		r.writePlain("Remove all cached track metadata? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewMetadataRepository(db)
	removed, err := repo.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("cache cleared", "removed", removed)
	r.writePlain("✓ Removed %d cached tracks\n", removed)

	return nil
}
