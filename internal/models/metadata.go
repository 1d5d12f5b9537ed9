package models

import (
	"fmt"
	"strings"
	"time"
)

// TrackMetadata is a cached metadata record for one Spotify track.
//
// Owned by the enricher's cache: populated lazily on first encounter,
// persisted across runs, invalidated only by an explicit cache clear.
// Implements [Model].
type TrackMetadata struct {
	id          string
	sequence    int
	trackID     string
	artistID    string
	title       string
	artistName  string
	albumName   string
	albumArtURL string
	genres      []string
	releaseDate string
	incomplete  bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewTrackMetadata creates a resolved metadata record for a track.
func NewTrackMetadata(trackID, artistID, title, artistName string) *TrackMetadata {
	now := time.Now().UTC()
	return &TrackMetadata{
		trackID:    trackID,
		artistID:   artistID,
		title:      title,
		artistName: artistName,
		createdAt:  now,
		updatedAt:  now,
	}
}

// NewIncompleteTrackMetadata creates a placeholder record for a track whose
// metadata lookup failed or was impossible. The play itself is still counted
// in aggregation; the record marks it metadata-incomplete.
func NewIncompleteTrackMetadata(trackID string) *TrackMetadata {
	now := time.Now().UTC()
	return &TrackMetadata{
		trackID:    trackID,
		incomplete: true,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (t *TrackMetadata) ID() string { return t.id }

func (t *TrackMetadata) Sequence() int { return t.sequence }

func (t *TrackMetadata) TrackID() string { return t.trackID }

func (t *TrackMetadata) ArtistID() string { return t.artistID }

func (t *TrackMetadata) Title() string { return t.title }

func (t *TrackMetadata) ArtistName() string { return t.artistName }

func (t *TrackMetadata) AlbumName() string { return t.albumName }

func (t *TrackMetadata) AlbumArtURL() string { return t.albumArtURL }

func (t *TrackMetadata) Genres() []string { return t.genres }

func (t *TrackMetadata) ReleaseDate() string { return t.releaseDate }

func (t *TrackMetadata) Incomplete() bool { return t.incomplete }

func (t *TrackMetadata) CreatedAt() time.Time { return t.createdAt }

func (t *TrackMetadata) UpdatedAt() time.Time { return t.updatedAt }

func (t *TrackMetadata) DeletedAt() *time.Time { return t.deletedAt }

func (t *TrackMetadata) SetID(id string) { t.id = id }

func (t *TrackMetadata) SetSequence(seq int) { t.sequence = seq }

func (t *TrackMetadata) SetAlbum(name, artURL string) {
	t.albumName = name
	t.albumArtURL = artURL
}

func (t *TrackMetadata) SetGenres(genres []string) { t.genres = genres }

func (t *TrackMetadata) SetReleaseDate(date string) { t.releaseDate = date }

func (t *TrackMetadata) SetIncomplete(v bool) { t.incomplete = v }

func (t *TrackMetadata) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }

func (t *TrackMetadata) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

// SetTimestamps restores persisted timestamps when scanning rows from the database.
func (t *TrackMetadata) SetTimestamps(created, updated time.Time) {
	t.createdAt = created
	t.updatedAt = updated
}

// Validate checks that the record identifies a track.
func (t *TrackMetadata) Validate() error {
	if t.trackID == "" {
		return fmt.Errorf("track metadata requires a track ID")
	}
	if !t.incomplete && t.title == "" {
		return fmt.Errorf("resolved track metadata requires a title")
	}
	return nil
}

// GenresCSV serializes the genre set for storage in a single column.
func (t *TrackMetadata) GenresCSV() string {
	return strings.Join(t.genres, ",")
}

// GenresFromCSV restores the genre set from its stored form.
func (t *TrackMetadata) GenresFromCSV(s string) {
	if s == "" {
		t.genres = nil
		return
	}
	t.genres = strings.Split(s, ",")
}
