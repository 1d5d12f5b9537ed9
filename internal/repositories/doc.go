// Package repositories implements SQLite persistence for the metadata cache.
//
// [MetadataRepository] implements models.Repository[*models.TrackMetadata],
// handling CRUD operations with atomic sequence generation for human-readable
// ordering. Records support soft deletes via deleted_at timestamps and are
// excluded from queries once deleted; an explicit cache clear removes rows
// outright.
//
// [MetadataCacheAdapter] exposes the repository as the batch lookup/store
// cache consumed by the enrichment step.
package repositories
