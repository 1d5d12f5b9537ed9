// Package history turns raw listening data into a single merged event log.
//
// The normalizer converts streaming-history export rows and recently-played
// API records into [models.Play] values. The merger collapses duplicates
// across the two sources into one time-ordered log.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/services"
	"github.com/desertthunder/replayed/internal/shared"
)

// Export column names as emitted by Spotify's extended streaming history.
const (
	colTimestamp   = "ts"
	colMsPlayed    = "ms_played"
	colContentType = "content_type"
	colTrackName   = "master_metadata_track_name"
	colArtistName  = "master_metadata_album_artist_name"
	colAlbumName   = "master_metadata_album_album_name"
	colTrackURI    = "spotify_track_uri"
)

// Options controls export normalization filters.
type Options struct {
	MinPlayMS int  // drop plays shorter than this, 0 disables
	AudioOnly bool // drop podcast/video rows when the export carries content_type
}

// NormalizeResult carries the normalized plays plus per-row drop tallies.
// Skipped counts malformed rows, Filtered counts valid rows removed by the
// play-time and content filters.
type NormalizeResult struct {
	Plays    []models.Play
	Skipped  int
	Filtered int
}

// NormalizeExport parses a streaming-history export CSV into plays. Column
// positions are resolved from the header row so provider reordering does not
// break parsing. Rows missing both a track URI and a track name, or with an
// unparseable timestamp, are dropped and counted, never fatal.
func NormalizeExport(r io.Reader, opts Options) (*NormalizeResult, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read export header: %v", shared.ErrPipelineAborted, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{colTimestamp, colMsPlayed} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: export missing %q column", shared.ErrPipelineAborted, required)
		}
	}

	result := &NormalizeResult{}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("%w: failed to read export: %v", shared.ErrPipelineAborted, err)
		}

		play, err := normalizeRow(record, columns)
		if err != nil {
			result.Skipped++
			continue
		}

		if opts.AudioOnly {
			if contentType := field(record, columns, colContentType); contentType != "" && contentType != "audio" {
				result.Filtered++
				continue
			}
		}
		if opts.MinPlayMS > 0 && play.MsPlayed < opts.MinPlayMS {
			result.Filtered++
			continue
		}

		result.Plays = append(result.Plays, play)
	}

	return result, nil
}

// normalizeRow converts one export record into a play or fails with
// [shared.ErrMalformedRecord] when the track identifier or timestamp is
// missing or unparseable.
func normalizeRow(record []string, columns map[string]int) (models.Play, error) {
	trackName := field(record, columns, colTrackName)
	trackURI := field(record, columns, colTrackURI)

	trackID := ""
	if strings.HasPrefix(trackURI, models.TrackURIPrefix) {
		trackID = models.TrackIDFromURI(trackURI)
	}

	if trackID == "" && trackName == "" {
		return models.Play{}, fmt.Errorf("%w: no track identifier", shared.ErrMalformedRecord)
	}

	playedAt, err := time.Parse(time.RFC3339, field(record, columns, colTimestamp))
	if err != nil {
		return models.Play{}, fmt.Errorf("%w: bad timestamp: %v", shared.ErrMalformedRecord, err)
	}

	msPlayed := 0
	if raw := field(record, columns, colMsPlayed); raw != "" {
		msPlayed, err = strconv.Atoi(raw)
		if err != nil {
			return models.Play{}, fmt.Errorf("%w: bad ms_played: %v", shared.ErrMalformedRecord, err)
		}
	}

	return models.Play{
		TrackID:    trackID,
		TrackName:  trackName,
		ArtistName: field(record, columns, colArtistName),
		AlbumName:  field(record, columns, colAlbumName),
		PlayedAt:   playedAt.UTC(),
		MsPlayed:   msPlayed,
		Source:     models.SourceHistorical,
	}, nil
}

// NormalizeRecent converts recently-played API records. The feed reports
// completed plays, so no play-time filter applies. Records without a track
// identifier or with an unparseable timestamp are dropped and counted.
func NormalizeRecent(recent []services.RecentPlay) *NormalizeResult {
	result := &NormalizeResult{}

	for _, item := range recent {
		if item.TrackID == "" && item.TrackName == "" {
			result.Skipped++
			continue
		}

		playedAt, err := time.Parse(time.RFC3339, item.PlayedAt)
		if err != nil {
			result.Skipped++
			continue
		}

		result.Plays = append(result.Plays, models.Play{
			TrackID:    item.TrackID,
			ArtistID:   item.ArtistID,
			TrackName:  item.TrackName,
			ArtistName: item.ArtistName,
			AlbumName:  item.AlbumName,
			PlayedAt:   playedAt.UTC(),
			MsPlayed:   item.DurationMS,
			Source:     models.SourceLive,
		})
	}

	return result
}

// field returns the named column of a record, empty when the column is absent
// or the record is short.
func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
