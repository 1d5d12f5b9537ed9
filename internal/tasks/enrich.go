package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
	"golang.org/x/time/rate"
)

// EnrichResult contains metadata resolution outcomes for one run.
type EnrichResult struct {
	Metadata    map[string]*models.TrackMetadata // Keyed by track ID
	Incomplete  int                              // Distinct tracks without resolved metadata
	CacheHits   int                              // Tracks served from the cache
	CacheMisses int                              // Tracks that needed an API lookup
}

// enrich resolves metadata for every distinct track in the merged log.
//
// Cache first, then batched API lookups under the rate limiter. A failed
// lookup marks the track incomplete and the run continues; the only fatal
// condition is context cancellation. Plays with no Spotify ID cannot be
// resolved and count as incomplete outright.
func (e *PipelineEngine) enrich(ctx context.Context, progress chan<- ProgressUpdate, plays []models.Play) (*EnrichResult, error) {
	result := &EnrichResult{Metadata: make(map[string]*models.TrackMetadata)}

	trackIDs := make([]string, 0, len(plays))
	seen := make(map[string]bool, len(plays))
	nameOnly := make(map[string]bool)

	for _, play := range plays {
		if play.TrackID == "" {
			nameOnly[shared.NormalizeTrackKey(play.TrackName, play.ArtistName)] = true
			continue
		}
		if !seen[play.TrackID] {
			seen[play.TrackID] = true
			trackIDs = append(trackIDs, play.TrackID)
		}
	}

	result.Incomplete = len(nameOnly)

	if len(trackIDs) == 0 {
		return result, nil
	}

	e.sendProgress(progress, enrichStartUpdate(len(trackIDs)))

	cached := make(map[string]*models.TrackMetadata)
	if e.cache != nil {
		records, err := e.cache.Lookup(trackIDs)
		if err == nil {
			cached = records
		}
	}

	// Incomplete cached records are retried; the cached placeholder stays as
	// the fallback when the retry fails too.
	var misses []string
	for _, trackID := range trackIDs {
		record, ok := cached[trackID]
		if ok && !record.Incomplete() {
			result.Metadata[trackID] = record
			result.CacheHits++
			continue
		}
		if ok {
			result.Metadata[trackID] = record
		}
		misses = append(misses, trackID)
	}
	result.CacheMisses = len(misses)

	if len(misses) > 0 {
		if e.spotify == nil {
			for _, trackID := range misses {
				e.markIncomplete(result, trackID)
			}
		} else if err := e.resolveTracks(ctx, progress, result, misses); err != nil {
			return nil, err
		}
	}

	for _, record := range result.Metadata {
		if record.Incomplete() {
			result.Incomplete++
		}
	}

	return result, nil
}

// resolveTracks fetches metadata for uncached tracks in rate-limited batches,
// then joins artist genres onto the resolved records.
func (e *PipelineEngine) resolveTracks(ctx context.Context, progress chan<- ProgressUpdate, result *EnrichResult, trackIDs []string) error {
	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1)

	batches := batchIDs(trackIDs, e.opts.BatchSize)
	resolved := make([]*models.TrackMetadata, 0, len(trackIDs))
	artistIDs := make([]string, 0, len(trackIDs))
	artistSeen := make(map[string]bool)

	for i, batch := range batches {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrPipelineAborted, err)
		}

		e.sendProgress(progress, enrichBatchUpdate(i+1, len(batches)))

		details, err := e.spotify.SeveralTracks(ctx, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("%w: %v", shared.ErrPipelineAborted, ctxErr)
			}

			e.sendProgress(progress, enrichFailedUpdate(i+1, len(batches), fmt.Errorf("%w: %v", shared.ErrEnrichmentUnavailable, err)))
			for _, trackID := range batch {
				e.markIncomplete(result, trackID)
			}
			continue
		}

		returned := make(map[string]bool, len(details))
		for _, detail := range details {
			returned[detail.ID] = true

			record := models.NewTrackMetadata(detail.ID, detail.ArtistID, detail.Title, detail.ArtistName)
			record.SetAlbum(detail.AlbumName, detail.AlbumArtURL)
			record.SetReleaseDate(detail.ReleaseDate)

			result.Metadata[detail.ID] = record
			resolved = append(resolved, record)

			if detail.ArtistID != "" && !artistSeen[detail.ArtistID] {
				artistSeen[detail.ArtistID] = true
				artistIDs = append(artistIDs, detail.ArtistID)
			}
		}

		// Unknown IDs come back as null entries
		for _, trackID := range batch {
			if !returned[trackID] {
				e.markIncomplete(result, trackID)
			}
		}
	}

	genres := e.fetchGenres(ctx, limiter, artistIDs)
	for _, record := range resolved {
		if g, ok := genres[record.ArtistID()]; ok {
			record.SetGenres(g)
		}
		e.store(record)
	}

	return nil
}

// fetchGenres resolves artist genre sets in batches. Failures leave genres
// empty rather than degrading the track records.
func (e *PipelineEngine) fetchGenres(ctx context.Context, limiter *rate.Limiter, artistIDs []string) map[string][]string {
	genres := make(map[string][]string, len(artistIDs))

	for _, batch := range batchIDs(artistIDs, e.opts.BatchSize) {
		if err := limiter.Wait(ctx); err != nil {
			return genres
		}

		details, err := e.spotify.SeveralArtists(ctx, batch)
		if err != nil {
			continue
		}
		for _, detail := range details {
			genres[detail.ID] = detail.Genres
		}
	}

	return genres
}

// markIncomplete records a placeholder for a track whose lookup failed,
// keeping any previously cached record intact.
func (e *PipelineEngine) markIncomplete(result *EnrichResult, trackID string) {
	if existing, ok := result.Metadata[trackID]; ok && existing != nil {
		return
	}
	record := models.NewIncompleteTrackMetadata(trackID)
	result.Metadata[trackID] = record
	e.store(record)
}

// store persists a record silently; cache errors never disrupt the run.
func (e *PipelineEngine) store(record *models.TrackMetadata) {
	if e.cache == nil {
		return
	}
	_ = e.cache.Store(record)
}

// batchIDs splits ids into slices of at most size.
func batchIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	return batches
}
