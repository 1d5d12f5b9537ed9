package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

// MetadataRepository implements models.Repository[*models.TrackMetadata] for the metadata cache.
//
// Records are keyed by Spotify track ID (UNIQUE) and populated lazily on first
// encounter during enrichment. Incomplete records mark tracks whose lookup
// failed, so later runs can retry them without refetching resolved tracks.
type MetadataRepository struct {
	db *sql.DB
}

// CacheStats summarizes the state of the metadata cache.
type CacheStats struct {
	Total      int `json:"total"`
	Resolved   int `json:"resolved"`
	Incomplete int `json:"incomplete"`
}

// NewMetadataRepository creates a new MetadataRepository with the given database connection
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Create inserts a new [models.TrackMetadata] into the database with generated ID and sequence
func (r *MetadataRepository) Create(record *models.TrackMetadata) error {
	sequence, err := NextSequence(r.db, "track_metadata")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)
	record.SetSequence(sequence)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO track_metadata (id, sequence, track_id, artist_id, title, artist_name, album_name, album_art_url, genres, release_date, incomplete, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.TrackID(),
		record.ArtistID(),
		record.Title(),
		record.ArtistName(),
		record.AlbumName(),
		record.AlbumArtURL(),
		record.GenresCSV(),
		record.ReleaseDate(),
		record.Incomplete(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track metadata: %w", err)
	}

	return nil
}

// Get retrieves a metadata record by ID, excluding soft-deleted records
func (r *MetadataRepository) Get(id string) (*models.TrackMetadata, error) {
	query := `
		SELECT id, sequence, track_id, artist_id, title, artist_name, album_name, album_art_url, genres, release_date, incomplete, created_at, updated_at, deleted_at
		FROM track_metadata
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a metadata record by Spotify track ID
func (r *MetadataRepository) GetByTrackID(trackID string) (*models.TrackMetadata, error) {
	query := `
		SELECT id, sequence, track_id, artist_id, title, artist_name, album_name, album_art_url, genres, release_date, incomplete, created_at, updated_at, deleted_at
		FROM track_metadata
		WHERE track_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, trackID))
}

// GetByTrackIDs retrieves metadata for a batch of track IDs in one query,
// keyed by track ID. Missing tracks are simply absent from the result.
func (r *MetadataRepository) GetByTrackIDs(trackIDs []string) (map[string]*models.TrackMetadata, error) {
	records := make(map[string]*models.TrackMetadata, len(trackIDs))
	if len(trackIDs) == 0 {
		return records, nil
	}

	placeholders := strings.Repeat("?,", len(trackIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, sequence, track_id, artist_id, title, artist_name, album_name, album_art_url, genres, release_date, incomplete, created_at, updated_at, deleted_at
		FROM track_metadata
		WHERE track_id IN (%s) AND deleted_at IS NULL
	`, placeholders)

	args := make([]any, len(trackIDs))
	for i, id := range trackIDs {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records[record.TrackID()] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Update modifies an existing metadata record in the database
func (r *MetadataRepository) Update(record *models.TrackMetadata) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	record.SetUpdatedAt(now)

	query := `
		UPDATE track_metadata
		SET artist_id = ?, title = ?, artist_name = ?, album_name = ?, album_art_url = ?, genres = ?, release_date = ?, incomplete = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.ArtistID(),
		record.Title(),
		record.ArtistName(),
		record.AlbumName(),
		record.AlbumArtURL(),
		record.GenresCSV(),
		record.ReleaseDate(),
		record.Incomplete(),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track metadata: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track metadata not found or already deleted: %s", record.ID())
	}

	return nil
}

// Delete soft-deletes a metadata record by ID
func (r *MetadataRepository) Delete(id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE track_metadata
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track metadata: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track metadata not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all metadata records matching the given criteria, excluding soft-deleted records
func (r *MetadataRepository) List(criteria map[string]any) ([]*models.TrackMetadata, error) {
	query := `
		SELECT id, sequence, track_id, artist_id, title, artist_name, album_name, album_art_url, genres, release_date, incomplete, created_at, updated_at, deleted_at
		FROM track_metadata
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if incomplete, ok := criteria["incomplete"].(bool); ok {
		query += " AND incomplete = ?"
		args = append(args, incomplete)
	}

	if artistID, ok := criteria["artist_id"].(string); ok && artistID != "" {
		query += " AND artist_id = ?"
		args = append(args, artistID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track metadata: %w", err)
	}
	defer rows.Close()

	var records []*models.TrackMetadata
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Clear removes every cached record outright and resets the sequence counter.
// This is the explicit cache invalidation path; soft deletes are not used here
// because a cleared cache should not retain tombstones.
func (r *MetadataRepository) Clear() (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM track_metadata")
	if err != nil {
		return 0, fmt.Errorf("failed to clear track metadata: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if _, err := tx.Exec("UPDATE track_metadata_sequence SET value = 0 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to reset sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clear transaction: %w", err)
	}

	return int(removed), nil
}

// Stats reports cache totals split by resolution state.
func (r *MetadataRepository) Stats() (*CacheStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN incomplete THEN 1 ELSE 0 END), 0)
		FROM track_metadata
		WHERE deleted_at IS NULL
	`

	stats := &CacheStats{}
	if err := r.db.QueryRow(query).Scan(&stats.Total, &stats.Incomplete); err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}
	stats.Resolved = stats.Total - stats.Incomplete

	return stats, nil
}

// scanOne scans a single [sql.Row] into a [models.TrackMetadata]
func (r *MetadataRepository) scanOne(row *sql.Row) (*models.TrackMetadata, error) {
	var (
		id          string
		sequence    int
		trackID     string
		artistID    string
		title       string
		artistName  string
		albumName   string
		albumArtURL string
		genres      string
		releaseDate string
		incomplete  bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &trackID, &artistID, &title, &artistName, &albumName, &albumArtURL, &genres, &releaseDate, &incomplete, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track metadata: %w", err)
	}

	return buildRecord(id, sequence, trackID, artistID, title, artistName, albumName, albumArtURL, genres, releaseDate, incomplete, createdAt, updatedAt, deletedAt), nil
}

// scanRow scans a row from [sql.Rows] into a [models.TrackMetadata]
func (r *MetadataRepository) scanRow(rows *sql.Rows) (*models.TrackMetadata, error) {
	var (
		id          string
		sequence    int
		trackID     string
		artistID    string
		title       string
		artistName  string
		albumName   string
		albumArtURL string
		genres      string
		releaseDate string
		incomplete  bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &trackID, &artistID, &title, &artistName, &albumName, &albumArtURL, &genres, &releaseDate, &incomplete, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track metadata: %w", err)
	}

	return buildRecord(id, sequence, trackID, artistID, title, artistName, albumName, albumArtURL, genres, releaseDate, incomplete, createdAt, updatedAt, deletedAt), nil
}

func buildRecord(id string, sequence int, trackID, artistID, title, artistName, albumName, albumArtURL, genres, releaseDate string, incomplete bool, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.TrackMetadata {
	var record *models.TrackMetadata
	if incomplete {
		record = models.NewIncompleteTrackMetadata(trackID)
	} else {
		record = models.NewTrackMetadata(trackID, artistID, title, artistName)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	record.SetAlbum(albumName, albumArtURL)
	record.GenresFromCSV(genres)
	record.SetReleaseDate(releaseDate)
	record.SetTimestamps(createdAt, updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record
}
