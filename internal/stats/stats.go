// Package stats computes summary tables from a merged listening-event log.
//
// Every aggregation is a pure function of its input: no hidden state, fully
// deterministic ordering, and an empty log yields empty tables rather than an
// error.
package stats

import "time"

// Options controls aggregation parameters.
type Options struct {
	TopN int // rows per ranked table, defaults to 10
}

// DefaultTopN is the ranked-table row limit when none is configured.
const DefaultTopN = 10

// Overview summarizes the whole event log.
// Schema: total_plays, unique_tracks, unique_artists, total_hours,
// first_played_at, last_played_at, years.
type Overview struct {
	TotalPlays    int       `json:"total_plays"`
	UniqueTracks  int       `json:"unique_tracks"`
	UniqueArtists int       `json:"unique_artists"`
	TotalHours    float64   `json:"total_hours"`
	FirstPlayedAt time.Time `json:"first_played_at"`
	LastPlayedAt  time.Time `json:"last_played_at"`
	Years         int       `json:"years"`
}

// ArtistYearCount is one row of the per-year top-artists table.
// Schema: year, rank, artist, plays.
type ArtistYearCount struct {
	Year   int    `json:"year"`
	Rank   int    `json:"rank"`
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

// TrackCount is one row of the overall top-tracks table.
// Schema: rank, track, artist, plays.
type TrackCount struct {
	Rank   int    `json:"rank"`
	Track  string `json:"track"`
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

// HourCount is one row of the hourly listening table. All 24 hours are
// present, zero-filled. Schema: hour, plays.
type HourCount struct {
	Hour  int `json:"hour"`
	Plays int `json:"plays"`
}

// WeekdayCount is one row of the weekday listening table. Average is plays
// divided by the number of times that weekday occurs in the covered date
// range. Schema: weekday, plays, average.
type WeekdayCount struct {
	Weekday string  `json:"weekday"`
	Plays   int     `json:"plays"`
	Average float64 `json:"average"`
}

// MonthCount is one row of the monthly listening timeline.
// Schema: year, month, plays.
type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Plays int `json:"plays"`
}

// SeasonCount is one row of the seasonal listening table, using
// meteorological seasons. Schema: season, plays.
type SeasonCount struct {
	Season string `json:"season"`
	Plays  int    `json:"plays"`
}

// ArtistDebut is one row of the artist discovery timeline.
// Schema: artist, first_played_at, year.
type ArtistDebut struct {
	Artist        string    `json:"artist"`
	FirstPlayedAt time.Time `json:"first_played_at"`
	Year          int       `json:"year"`
}

// YearDiscoveries is one row of the per-year new-artist counts.
// Schema: year, new_artists.
type YearDiscoveries struct {
	Year       int `json:"year"`
	NewArtists int `json:"new_artists"`
}

// Summary is the fixed set of tables computed on each pipeline run.
type Summary struct {
	Overview         Overview          `json:"overview"`
	YearlyTopArtists []ArtistYearCount `json:"yearly_top_artists"`
	TopTracks        []TrackCount      `json:"top_tracks"`
	HourlyPlays      []HourCount       `json:"hourly_plays"`
	WeekdayPlays     []WeekdayCount    `json:"weekday_plays"`
	MonthlyPlays     []MonthCount      `json:"monthly_plays"`
	SeasonalPlays    []SeasonCount     `json:"seasonal_plays"`
	ArtistFirstSeen  []ArtistDebut     `json:"artist_first_seen"`
	YearDiscoveries  []YearDiscoveries `json:"year_discoveries"`
}
