package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func resolvedRecord(trackID string) *models.TrackMetadata {
	record := models.NewTrackMetadata(trackID, "a1", "Karma Police", "Radiohead")
	record.SetAlbum("OK Computer", "https://img.example/640.jpg")
	record.SetGenres([]string{"art rock", "alternative"})
	record.SetReleaseDate("1997-05-21")
	return record
}

func TestMetadataRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)
		record := resolvedRecord("t1")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if record.ID() == "" {
			t.Error("record ID should be set after creation")
		}
		if record.Sequence() == 0 {
			t.Error("record sequence should be set after creation")
		}
	})

	t.Run("Create Rejects Duplicate Track", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		if err := repo.Create(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if err := repo.Create(resolvedRecord("t1")); err == nil {
			t.Error("expected UNIQUE constraint error for duplicate track ID")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)
		record := resolvedRecord("t1")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if retrieved.TrackID() != "t1" {
			t.Errorf("expected track ID t1, got %s", retrieved.TrackID())
		}
		if retrieved.Title() != "Karma Police" {
			t.Errorf("expected title Karma Police, got %s", retrieved.Title())
		}
		if len(retrieved.Genres()) != 2 {
			t.Errorf("expected 2 genres, got %v", retrieved.Genres())
		}
	})

	t.Run("GetByTrackID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		if err := repo.Create(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		retrieved, err := repo.GetByTrackID("t1")
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if retrieved.ArtistName() != "Radiohead" {
			t.Errorf("expected artist Radiohead, got %s", retrieved.ArtistName())
		}

		if _, err := repo.GetByTrackID("missing"); err == nil {
			t.Error("expected error for unknown track ID")
		}
	})

	t.Run("GetByTrackIDs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		for _, trackID := range []string{"t1", "t2"} {
			record := resolvedRecord(trackID)
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		records, err := repo.GetByTrackIDs([]string{"t1", "t2", "missing"})
		if err != nil {
			t.Fatalf("failed to get records: %v", err)
		}

		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
		if _, ok := records["missing"]; ok {
			t.Error("expected missing track to be absent from result")
		}

		empty, err := repo.GetByTrackIDs(nil)
		if err != nil {
			t.Fatalf("failed on empty batch: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty result, got %d records", len(empty))
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)
		record := resolvedRecord("t1")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		record.SetGenres([]string{"electronic"})
		record.SetAlbum("Discovery", "https://img.example/discovery.jpg")

		if err := repo.Update(record); err != nil {
			t.Fatalf("failed to update record: %v", err)
		}

		retrieved, err := repo.GetByTrackID("t1")
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if retrieved.AlbumName() != "Discovery" {
			t.Errorf("expected updated album, got %s", retrieved.AlbumName())
		}
		if len(retrieved.Genres()) != 1 || retrieved.Genres()[0] != "electronic" {
			t.Errorf("expected updated genres, got %v", retrieved.Genres())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)
		record := resolvedRecord("t1")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}

		if _, err := repo.Get(record.ID()); err == nil {
			t.Error("expected error getting deleted record")
		}

		if err := repo.Delete(record.ID()); err == nil {
			t.Error("expected error deleting already-deleted record")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		if err := repo.Create(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if err := repo.Create(models.NewIncompleteTrackMetadata("t2")); err != nil {
			t.Fatalf("failed to create incomplete record: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 records, got %d", len(all))
		}

		incomplete, err := repo.List(map[string]any{"incomplete": true})
		if err != nil {
			t.Fatalf("failed to list incomplete records: %v", err)
		}
		if len(incomplete) != 1 || incomplete[0].TrackID() != "t2" {
			t.Errorf("expected only t2 to be incomplete, got %d records", len(incomplete))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		for _, trackID := range []string{"t1", "t2", "t3"} {
			if err := repo.Create(resolvedRecord(trackID)); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		removed, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}
		if removed != 3 {
			t.Errorf("expected 3 removed records, got %d", removed)
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats.Total != 0 {
			t.Errorf("expected empty cache, got %d records", stats.Total)
		}

		// Sequence restarts after a clear
		record := resolvedRecord("t4")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record after clear: %v", err)
		}
		if record.Sequence() != 1 {
			t.Errorf("expected sequence 1 after clear, got %d", record.Sequence())
		}
	})

	t.Run("Stats", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMetadataRepository(db)

		if err := repo.Create(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		if err := repo.Create(models.NewIncompleteTrackMetadata("t2")); err != nil {
			t.Fatalf("failed to create incomplete record: %v", err)
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}

		if stats.Total != 2 || stats.Resolved != 1 || stats.Incomplete != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Create And Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewPipelineRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}

		run.SetCounters(models.RunCounters{HistoricalRows: 100, MergedRows: 95, SkippedRows: 5})
		run.Finish(models.RunStatusCompleted)

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest == nil {
			t.Fatal("expected a run in the ledger")
		}
		if latest.Status() != models.RunStatusCompleted {
			t.Errorf("expected completed status, got %s", latest.Status())
		}
		if latest.Counters().MergedRows != 95 {
			t.Errorf("expected 95 merged rows, got %d", latest.Counters().MergedRows)
		}
		if latest.FinishedAt() == nil {
			t.Error("expected finish time to be set")
		}
	})

	t.Run("Latest On Empty Ledger", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if latest != nil {
			t.Errorf("expected nil run, got %+v", latest)
		}
	})
}

func TestMetadataCacheAdapter(t *testing.T) {
	t.Run("Lookup And Store", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		adapter := NewMetadataCacheAdapter(NewMetadataRepository(db))

		if err := adapter.Store(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to store record: %v", err)
		}

		records, err := adapter.Lookup([]string{"t1", "t2"})
		if err != nil {
			t.Fatalf("failed to lookup records: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})

	t.Run("Store Upgrades Incomplete Record", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		adapter := NewMetadataCacheAdapter(NewMetadataRepository(db))

		if err := adapter.Store(models.NewIncompleteTrackMetadata("t1")); err != nil {
			t.Fatalf("failed to store placeholder: %v", err)
		}
		if err := adapter.Store(resolvedRecord("t1")); err != nil {
			t.Fatalf("failed to store resolved record: %v", err)
		}

		records, err := adapter.Lookup([]string{"t1"})
		if err != nil {
			t.Fatalf("failed to lookup records: %v", err)
		}

		record, ok := records["t1"]
		if !ok {
			t.Fatal("expected t1 in cache")
		}
		if record.Incomplete() {
			t.Error("expected record to be resolved after upgrade")
		}
		if record.Title() != "Karma Police" {
			t.Errorf("expected resolved title, got %s", record.Title())
		}
	})
}
