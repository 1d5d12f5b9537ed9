// package formatter serializes the merged event log and summary tables to CSV and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/stats"
)

// CombinedHistoryFile is the filename of the merged enriched event log.
const CombinedHistoryFile = "combined_history.csv"

// TableNames lists every summary table in output order. Each table is written
// to "<name>.csv" in the output directory.
var TableNames = []string{
	"overview",
	"yearly_top_artists",
	"top_tracks",
	"hourly_plays",
	"weekday_plays",
	"monthly_plays",
	"seasonal_plays",
	"artist_first_seen",
	"year_discoveries",
}

// HistoryToCSV serializes the merged event log with enrichment columns.
// Columns: played_at, track_id, track_name, artist_name, album_name,
// ms_played, source, genres, release_date, album_art_url, metadata_complete.
func HistoryToCSV(plays []models.Play, metadata map[string]*models.TrackMetadata) ([]byte, error) {
	headers := []string{"played_at", "track_id", "track_name", "artist_name", "album_name", "ms_played", "source", "genres", "release_date", "album_art_url", "metadata_complete"}

	rows := make([][]string, 0, len(plays))
	for _, play := range plays {
		genres := ""
		releaseDate := ""
		albumArtURL := ""
		complete := false

		if record, ok := metadata[play.TrackID]; ok && play.TrackID != "" {
			genres = record.GenresCSV()
			releaseDate = record.ReleaseDate()
			albumArtURL = record.AlbumArtURL()
			complete = !record.Incomplete()
		}

		rows = append(rows, []string{
			play.PlayedAt.UTC().Format(time.RFC3339),
			play.TrackID,
			play.TrackName,
			play.ArtistName,
			play.AlbumName,
			strconv.Itoa(play.MsPlayed),
			string(play.Source),
			genres,
			releaseDate,
			albumArtURL,
			strconv.FormatBool(complete),
		})
	}

	return writeCSV(headers, rows)
}

// HistoryFromCSV reads a combined history file back into plays, so summaries
// can be recomputed without refetching the raw sources. Enrichment columns
// beyond the play fields are ignored.
func HistoryFromCSV(r io.Reader) ([]models.Play, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	for _, required := range []string{"played_at", "track_name", "ms_played", "source"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("history file missing %q column", required)
		}
	}

	var plays []models.Play
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}

		playedAt, err := time.Parse(time.RFC3339, record[columns["played_at"]])
		if err != nil {
			return nil, fmt.Errorf("bad played_at in history row: %w", err)
		}

		msPlayed, err := strconv.Atoi(record[columns["ms_played"]])
		if err != nil {
			return nil, fmt.Errorf("bad ms_played in history row: %w", err)
		}

		play := models.Play{
			TrackName: record[columns["track_name"]],
			PlayedAt:  playedAt.UTC(),
			MsPlayed:  msPlayed,
			Source:    models.Source(record[columns["source"]]),
		}
		if idx, ok := columns["track_id"]; ok {
			play.TrackID = record[idx]
		}
		if idx, ok := columns["artist_name"]; ok {
			play.ArtistName = record[idx]
		}
		if idx, ok := columns["album_name"]; ok {
			play.AlbumName = record[idx]
		}

		plays = append(plays, play)
	}

	return plays, nil
}

// SummaryFiles serializes every summary table, keyed by filename.
func SummaryFiles(summary *stats.Summary) (map[string][]byte, error) {
	files := make(map[string][]byte, len(TableNames))
	for _, name := range TableNames {
		data, err := TableToCSV(name, summary)
		if err != nil {
			return nil, err
		}
		files[name+".csv"] = data
	}
	return files, nil
}

// TableToCSV serializes one summary table by name.
func TableToCSV(name string, summary *stats.Summary) ([]byte, error) {
	headers, rows, err := TableRecords(name, summary)
	if err != nil {
		return nil, err
	}
	return writeCSV(headers, rows)
}

// RenderTable renders one summary table as aligned plain text for terminal
// output. A limit above zero truncates the row count.
func RenderTable(name string, summary *stats.Summary, limit int) (string, error) {
	headers, rows, err := TableRecords(name, summary)
	if err != nil {
		return "", err
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}

	return buf.String(), nil
}

// TableRecords returns the header and display rows of one summary table by
// name. The same records back the CSV files, text rendering, and the browse UI.
func TableRecords(name string, summary *stats.Summary) ([]string, [][]string, error) {
	switch name {
	case "overview":
		return overviewRecords(summary.Overview)
	case "yearly_top_artists":
		headers := []string{"year", "rank", "artist", "plays"}
		rows := make([][]string, 0, len(summary.YearlyTopArtists))
		for _, row := range summary.YearlyTopArtists {
			rows = append(rows, []string{strconv.Itoa(row.Year), strconv.Itoa(row.Rank), row.Artist, strconv.Itoa(row.Plays)})
		}
		return headers, rows, nil
	case "top_tracks":
		headers := []string{"rank", "track", "artist", "plays"}
		rows := make([][]string, 0, len(summary.TopTracks))
		for _, row := range summary.TopTracks {
			rows = append(rows, []string{strconv.Itoa(row.Rank), row.Track, row.Artist, strconv.Itoa(row.Plays)})
		}
		return headers, rows, nil
	case "hourly_plays":
		headers := []string{"hour", "plays"}
		rows := make([][]string, 0, len(summary.HourlyPlays))
		for _, row := range summary.HourlyPlays {
			rows = append(rows, []string{strconv.Itoa(row.Hour), strconv.Itoa(row.Plays)})
		}
		return headers, rows, nil
	case "weekday_plays":
		headers := []string{"weekday", "plays", "average"}
		rows := make([][]string, 0, len(summary.WeekdayPlays))
		for _, row := range summary.WeekdayPlays {
			rows = append(rows, []string{row.Weekday, strconv.Itoa(row.Plays), strconv.FormatFloat(row.Average, 'f', 2, 64)})
		}
		return headers, rows, nil
	case "monthly_plays":
		headers := []string{"year", "month", "plays"}
		rows := make([][]string, 0, len(summary.MonthlyPlays))
		for _, row := range summary.MonthlyPlays {
			rows = append(rows, []string{strconv.Itoa(row.Year), strconv.Itoa(row.Month), strconv.Itoa(row.Plays)})
		}
		return headers, rows, nil
	case "seasonal_plays":
		headers := []string{"season", "plays"}
		rows := make([][]string, 0, len(summary.SeasonalPlays))
		for _, row := range summary.SeasonalPlays {
			rows = append(rows, []string{row.Season, strconv.Itoa(row.Plays)})
		}
		return headers, rows, nil
	case "artist_first_seen":
		headers := []string{"artist", "first_played_at", "year"}
		rows := make([][]string, 0, len(summary.ArtistFirstSeen))
		for _, row := range summary.ArtistFirstSeen {
			rows = append(rows, []string{row.Artist, row.FirstPlayedAt.UTC().Format(time.RFC3339), strconv.Itoa(row.Year)})
		}
		return headers, rows, nil
	case "year_discoveries":
		headers := []string{"year", "new_artists"}
		rows := make([][]string, 0, len(summary.YearDiscoveries))
		for _, row := range summary.YearDiscoveries {
			rows = append(rows, []string{strconv.Itoa(row.Year), strconv.Itoa(row.NewArtists)})
		}
		return headers, rows, nil
	default:
		return nil, nil, fmt.Errorf("unknown summary table: %s", name)
	}
}

func overviewRecords(overview stats.Overview) ([]string, [][]string, error) {
	headers := []string{"total_plays", "unique_tracks", "unique_artists", "total_hours", "first_played_at", "last_played_at", "years"}

	var rows [][]string
	if overview.TotalPlays > 0 {
		rows = append(rows, []string{
			strconv.Itoa(overview.TotalPlays),
			strconv.Itoa(overview.UniqueTracks),
			strconv.Itoa(overview.UniqueArtists),
			strconv.FormatFloat(overview.TotalHours, 'f', 2, 64),
			overview.FirstPlayedAt.UTC().Format(time.RFC3339),
			overview.LastPlayedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(overview.Years),
		})
	}

	return headers, rows, nil
}

// writeCSV renders a header plus rows through one csv.Writer.
func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
