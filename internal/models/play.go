package models

import (
	"strings"
	"time"
)

// Source identifies which input a [Play] was normalized from.
type Source string

const (
	SourceHistorical Source = "historical" // bulk streaming-history export
	SourceLive       Source = "live"       // recently-played API fetch
)

// Play is one normalized listening event.
//
// Plays are created once during normalization and never mutated after the
// merge; corrections come from re-running the pipeline over the raw sources.
type Play struct {
	TrackID    string    `json:"track_id,omitempty"` // Spotify track ID, empty when the export row had no URI
	ArtistID   string    `json:"artist_id,omitempty"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	AlbumName  string    `json:"album_name,omitempty"`
	PlayedAt   time.Time `json:"played_at"` // always UTC
	MsPlayed   int       `json:"ms_played"`
	Source     Source    `json:"source"`
}

// TrackURIPrefix is the scheme prefix on spotify_track_uri export values.
const TrackURIPrefix = "spotify:track:"

// TrackIDFromURI extracts the bare track ID from a spotify:track: URI.
// Returns the input unchanged when it does not carry the prefix.
func TrackIDFromURI(uri string) string {
	return strings.TrimPrefix(uri, TrackURIPrefix)
}
