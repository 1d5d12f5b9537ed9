package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/services"
	"github.com/desertthunder/replayed/internal/shared"
)

const exportHeader = "ts,ms_played,content_type,master_metadata_track_name,master_metadata_album_artist_name,master_metadata_album_album_name,spotify_track_uri,platform,conn_country,shuffle,skipped"

func TestNormalizeExport(t *testing.T) {
	t.Run("Parses Valid Rows", func(t *testing.T) {
		input := exportHeader + "\n" +
			"2023-01-01T10:00:00Z,240000,audio,Karma Police,Radiohead,OK Computer,spotify:track:t1,ios,US,false,false\n"

		result, err := NormalizeExport(strings.NewReader(input), Options{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(result.Plays))
		}

		play := result.Plays[0]
		if play.TrackID != "t1" {
			t.Errorf("expected track ID t1, got %s", play.TrackID)
		}
		if play.ArtistName != "Radiohead" || play.AlbumName != "OK Computer" {
			t.Errorf("unexpected metadata: %+v", play)
		}
		if play.Source != models.SourceHistorical {
			t.Errorf("expected historical source, got %s", play.Source)
		}
		if !play.PlayedAt.Equal(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp: %v", play.PlayedAt)
		}
	})

	t.Run("Reordered Columns", func(t *testing.T) {
		input := "ms_played,ts,master_metadata_track_name,master_metadata_album_artist_name\n" +
			"240000,2023-01-01T10:00:00Z,Karma Police,Radiohead\n"

		result, err := NormalizeExport(strings.NewReader(input), Options{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(result.Plays))
		}
		if result.Plays[0].MsPlayed != 240000 {
			t.Errorf("expected ms_played 240000, got %d", result.Plays[0].MsPlayed)
		}
	})

	t.Run("Normalizes Timestamps To UTC", func(t *testing.T) {
		input := "ts,ms_played,master_metadata_track_name\n" +
			"2023-06-01T12:00:00+05:00,240000,Karma Police\n"

		result, err := NormalizeExport(strings.NewReader(input), Options{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		play := result.Plays[0]
		if play.PlayedAt.Location() != time.UTC {
			t.Errorf("expected UTC location, got %v", play.PlayedAt.Location())
		}
		if play.PlayedAt.Hour() != 7 {
			t.Errorf("expected hour 7 UTC, got %d", play.PlayedAt.Hour())
		}
	})

	t.Run("Counts Malformed Rows", func(t *testing.T) {
		input := exportHeader + "\n" +
			"2023-01-01T10:00:00Z,240000,audio,Karma Police,Radiohead,OK Computer,spotify:track:t1,ios,US,false,false\n" +
			"not-a-timestamp,240000,audio,Creep,Radiohead,Pablo Honey,spotify:track:t2,ios,US,false,false\n" +
			"2023-01-01T11:00:00Z,240000,audio,,,,,ios,US,false,false\n" +
			"2023-01-01T12:00:00Z,oops,audio,No Surprises,Radiohead,OK Computer,spotify:track:t3,ios,US,false,false\n"

		result, err := NormalizeExport(strings.NewReader(input), Options{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Plays) != 1 {
			t.Errorf("expected 1 play, got %d", len(result.Plays))
		}
		if result.Skipped != 3 {
			t.Errorf("expected 3 skipped rows, got %d", result.Skipped)
		}
	})

	t.Run("Filters Short And Non Audio Plays", func(t *testing.T) {
		input := exportHeader + "\n" +
			"2023-01-01T10:00:00Z,240000,audio,Karma Police,Radiohead,OK Computer,spotify:track:t1,ios,US,false,false\n" +
			"2023-01-01T10:05:00Z,5000,audio,Creep,Radiohead,Pablo Honey,spotify:track:t2,ios,US,false,true\n" +
			"2023-01-01T10:10:00Z,1800000,podcast,Some Episode,Some Show,,spotify:track:t3,ios,US,false,false\n"

		result, err := NormalizeExport(strings.NewReader(input), Options{MinPlayMS: 30000, AudioOnly: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Plays) != 1 {
			t.Errorf("expected 1 play, got %d", len(result.Plays))
		}
		if result.Filtered != 2 {
			t.Errorf("expected 2 filtered rows, got %d", result.Filtered)
		}
		if result.Skipped != 0 {
			t.Errorf("expected 0 skipped rows, got %d", result.Skipped)
		}
	})

	t.Run("Missing Required Column Is Fatal", func(t *testing.T) {
		input := "track,artist\nKarma Police,Radiohead\n"

		_, err := NormalizeExport(strings.NewReader(input), Options{})
		if !errors.Is(err, shared.ErrPipelineAborted) {
			t.Errorf("expected pipeline aborted error, got %v", err)
		}
	})

	t.Run("Empty Input Is Fatal", func(t *testing.T) {
		_, err := NormalizeExport(strings.NewReader(""), Options{})
		if !errors.Is(err, shared.ErrPipelineAborted) {
			t.Errorf("expected pipeline aborted error, got %v", err)
		}
	})
}

func TestNormalizeRecent(t *testing.T) {
	t.Run("Converts API Records", func(t *testing.T) {
		recent := []services.RecentPlay{
			{
				TrackID:    "t1",
				ArtistID:   "a1",
				TrackName:  "Karma Police",
				ArtistName: "Radiohead",
				AlbumName:  "OK Computer",
				PlayedAt:   "2023-01-01T10:01:00Z",
				DurationMS: 261000,
			},
		}

		result := NormalizeRecent(recent)
		if len(result.Plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(result.Plays))
		}

		play := result.Plays[0]
		if play.Source != models.SourceLive {
			t.Errorf("expected live source, got %s", play.Source)
		}
		if play.ArtistID != "a1" {
			t.Errorf("expected artist ID a1, got %s", play.ArtistID)
		}
		if play.MsPlayed != 261000 {
			t.Errorf("expected ms_played 261000, got %d", play.MsPlayed)
		}
	})

	t.Run("Skips Unusable Records", func(t *testing.T) {
		recent := []services.RecentPlay{
			{TrackID: "t1", TrackName: "Karma Police", PlayedAt: "bad-timestamp"},
			{PlayedAt: "2023-01-01T10:00:00Z"},
		}

		result := NormalizeRecent(recent)
		if len(result.Plays) != 0 {
			t.Errorf("expected 0 plays, got %d", len(result.Plays))
		}
		if result.Skipped != 2 {
			t.Errorf("expected 2 skipped records, got %d", result.Skipped)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		result := NormalizeRecent(nil)
		if len(result.Plays) != 0 || result.Skipped != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})
}
