package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/replayed/internal/models"
)

// MetadataCacheAdapter implements tasks.MetadataCache using MetadataRepository.
//
// Lookups are batched into a single query; stores replace an existing record
// for the same track so a later resolved lookup upgrades an incomplete
// placeholder in place.
type MetadataCacheAdapter struct {
	repo *MetadataRepository
}

// NewMetadataCacheAdapter creates a new MetadataCacheAdapter with the given repository
func NewMetadataCacheAdapter(repo *MetadataRepository) *MetadataCacheAdapter {
	return &MetadataCacheAdapter{repo: repo}
}

// Lookup retrieves cached metadata for a batch of track IDs, keyed by track ID.
func (a *MetadataCacheAdapter) Lookup(trackIDs []string) (map[string]*models.TrackMetadata, error) {
	return a.repo.GetByTrackIDs(trackIDs)
}

// Store persists a metadata record, replacing any existing record for the
// same track. Concurrent-insert UNIQUE violations are treated as success.
func (a *MetadataCacheAdapter) Store(record *models.TrackMetadata) error {
	existing, err := a.repo.GetByTrackID(record.TrackID())
	if err == nil && existing != nil {
		record.SetID(existing.ID())
		record.SetSequence(existing.Sequence())
		return a.repo.Update(record)
	}

	if err := a.repo.Create(record); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track metadata: %w", err)
	}

	return nil
}
