package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

func play(trackID, name, artist string, playedAt time.Time, msPlayed int) models.Play {
	return models.Play{
		TrackID:    trackID,
		TrackName:  name,
		ArtistName: artist,
		PlayedAt:   playedAt,
		MsPlayed:   msPlayed,
		Source:     models.SourceHistorical,
	}
}

func sampleLog() []models.Play {
	return []models.Play{
		play("t1", "Karma Police", "Radiohead", time.Date(2022, 1, 10, 9, 0, 0, 0, time.UTC), 240000),
		play("t1", "Karma Police", "Radiohead", time.Date(2022, 3, 15, 9, 30, 0, 0, time.UTC), 240000),
		play("t2", "Creep", "Radiohead", time.Date(2022, 7, 1, 22, 0, 0, 0, time.UTC), 230000),
		play("t3", "Digital Love", "Daft Punk", time.Date(2023, 2, 5, 22, 15, 0, 0, time.UTC), 300000),
		play("t3", "Digital Love", "Daft Punk", time.Date(2023, 2, 6, 9, 0, 0, 0, time.UTC), 300000),
	}
}

func TestCompute(t *testing.T) {
	t.Run("Empty Log Yields Empty Tables", func(t *testing.T) {
		summary := Compute(nil, Options{})

		if summary.Overview.TotalPlays != 0 {
			t.Errorf("expected 0 total plays, got %d", summary.Overview.TotalPlays)
		}
		if len(summary.YearlyTopArtists) != 0 {
			t.Errorf("expected 0 top-artist rows, got %d", len(summary.YearlyTopArtists))
		}
		if len(summary.TopTracks) != 0 {
			t.Errorf("expected 0 top-track rows, got %d", len(summary.TopTracks))
		}
		if len(summary.HourlyPlays) != 0 {
			t.Errorf("expected 0 hourly rows, got %d", len(summary.HourlyPlays))
		}
	})

	t.Run("Overview", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})
		overview := summary.Overview

		if overview.TotalPlays != 5 {
			t.Errorf("expected 5 total plays, got %d", overview.TotalPlays)
		}
		if overview.UniqueTracks != 3 {
			t.Errorf("expected 3 unique tracks, got %d", overview.UniqueTracks)
		}
		if overview.UniqueArtists != 2 {
			t.Errorf("expected 2 unique artists, got %d", overview.UniqueArtists)
		}
		if overview.Years != 2 {
			t.Errorf("expected 2 years of data, got %d", overview.Years)
		}
		if overview.FirstPlayedAt.Year() != 2022 || overview.LastPlayedAt.Year() != 2023 {
			t.Errorf("unexpected date range: %v to %v", overview.FirstPlayedAt, overview.LastPlayedAt)
		}
	})

	t.Run("Yearly Top Artists", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		if len(summary.YearlyTopArtists) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(summary.YearlyTopArtists))
		}

		first := summary.YearlyTopArtists[0]
		if first.Year != 2022 || first.Artist != "Radiohead" || first.Plays != 3 || first.Rank != 1 {
			t.Errorf("unexpected first row: %+v", first)
		}

		second := summary.YearlyTopArtists[1]
		if second.Year != 2023 || second.Artist != "Daft Punk" || second.Plays != 2 {
			t.Errorf("unexpected second row: %+v", second)
		}
	})

	t.Run("Top Tracks", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{TopN: 2})

		if len(summary.TopTracks) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(summary.TopTracks))
		}

		if summary.TopTracks[0].Plays != 2 || summary.TopTracks[1].Plays != 2 {
			t.Errorf("unexpected play counts: %+v", summary.TopTracks)
		}
		if summary.TopTracks[0].Rank != 1 || summary.TopTracks[1].Rank != 2 {
			t.Errorf("unexpected ranks: %+v", summary.TopTracks)
		}
	})

	t.Run("Hourly Plays Zero Filled", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		if len(summary.HourlyPlays) != 24 {
			t.Fatalf("expected 24 rows, got %d", len(summary.HourlyPlays))
		}
		if summary.HourlyPlays[9].Plays != 3 {
			t.Errorf("expected 3 plays at hour 9, got %d", summary.HourlyPlays[9].Plays)
		}
		if summary.HourlyPlays[22].Plays != 2 {
			t.Errorf("expected 2 plays at hour 22, got %d", summary.HourlyPlays[22].Plays)
		}
		if summary.HourlyPlays[3].Plays != 0 {
			t.Errorf("expected 0 plays at hour 3, got %d", summary.HourlyPlays[3].Plays)
		}
	})

	t.Run("Weekday Plays", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		if len(summary.WeekdayPlays) != 7 {
			t.Fatalf("expected 7 rows, got %d", len(summary.WeekdayPlays))
		}

		total := 0
		for _, row := range summary.WeekdayPlays {
			total += row.Plays
			if row.Plays > 0 && row.Average <= 0 {
				t.Errorf("expected positive average for %s, got %f", row.Weekday, row.Average)
			}
		}
		if total != 5 {
			t.Errorf("expected weekday plays to sum to 5, got %d", total)
		}
	})

	t.Run("Monthly Timeline Ordered", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		expected := []MonthCount{
			{Year: 2022, Month: 1, Plays: 1},
			{Year: 2022, Month: 3, Plays: 1},
			{Year: 2022, Month: 7, Plays: 1},
			{Year: 2023, Month: 2, Plays: 2},
		}
		if !reflect.DeepEqual(summary.MonthlyPlays, expected) {
			t.Errorf("unexpected timeline: %+v", summary.MonthlyPlays)
		}
	})

	t.Run("Seasonal Plays", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		bySeason := make(map[string]int)
		for _, row := range summary.SeasonalPlays {
			bySeason[row.Season] = row.Plays
		}

		if bySeason["Winter"] != 3 {
			t.Errorf("expected 3 winter plays, got %d", bySeason["Winter"])
		}
		if bySeason["Spring"] != 1 {
			t.Errorf("expected 1 spring play, got %d", bySeason["Spring"])
		}
		if bySeason["Summer"] != 1 {
			t.Errorf("expected 1 summer play, got %d", bySeason["Summer"])
		}
		if bySeason["Fall"] != 0 {
			t.Errorf("expected 0 fall plays, got %d", bySeason["Fall"])
		}
	})

	t.Run("Artist Discovery", func(t *testing.T) {
		summary := Compute(sampleLog(), Options{})

		if len(summary.ArtistFirstSeen) != 2 {
			t.Fatalf("expected 2 debuts, got %d", len(summary.ArtistFirstSeen))
		}
		if summary.ArtistFirstSeen[0].Artist != "Radiohead" || summary.ArtistFirstSeen[0].Year != 2022 {
			t.Errorf("unexpected first debut: %+v", summary.ArtistFirstSeen[0])
		}
		if summary.ArtistFirstSeen[1].Artist != "Daft Punk" || summary.ArtistFirstSeen[1].Year != 2023 {
			t.Errorf("unexpected second debut: %+v", summary.ArtistFirstSeen[1])
		}

		expected := []YearDiscoveries{
			{Year: 2022, NewArtists: 1},
			{Year: 2023, NewArtists: 1},
		}
		if !reflect.DeepEqual(summary.YearDiscoveries, expected) {
			t.Errorf("unexpected discoveries: %+v", summary.YearDiscoveries)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := Compute(sampleLog(), Options{})
		second := Compute(sampleLog(), Options{})

		a, err := shared.MarshalJSON(first, false)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		b, err := shared.MarshalJSON(second, false)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}

		if string(a) != string(b) {
			t.Error("expected identical output for identical input")
		}
	})

	t.Run("Name Keyed Tracks Group Across Casing", func(t *testing.T) {
		plays := []models.Play{
			play("", "Karma Police", "Radiohead", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 240000),
			play("", "karma police", "radiohead", time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC), 240000),
		}

		summary := Compute(plays, Options{})
		if summary.Overview.UniqueTracks != 1 {
			t.Errorf("expected 1 unique track, got %d", summary.Overview.UniqueTracks)
		}
	})
}
