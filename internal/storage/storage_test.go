package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestRepository(t *testing.T) *RecordRepository {
	t.Helper()
	db, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	repo := NewRecordRepository(db)
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return repo
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "mongodb://nope"); err == nil {
		t.Fatal("expected error for unsupported database url")
	}
}

func TestRepositorySaveAndFindByHash(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	record := &AnalysisRecord{
		RequestID:  "req-1",
		SHA1Hash:   "abc123",
		Verdict:    "yes",
		FrameStyle: "yes",
		ImagePath:  "framed_photos/x.jpg",
		ImageURL:   "http://localhost:8080/photos/files/framed_photos/x.jpg",
		CreatedAt:  time.Now(),
	}
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	found, err := repo.FindByHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.RequestID != "req-1" || found.Verdict != "yes" {
		t.Fatalf("unexpected record %+v", found)
	}

	if _, err := repo.FindByHash(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}

func TestRepositoryRecentOrdersNewestFirst(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		record := &AnalysisRecord{
			RequestID: "req-" + string(rune('a'+i)),
			SHA1Hash:  "hash",
			Verdict:   "no",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	records, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RequestID != "req-c" || records[1].RequestID != "req-b" {
		t.Fatalf("expected newest first, got %s then %s", records[0].RequestID, records[1].RequestID)
	}
}

func TestRepositoryAggregateMetrics(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	verdicts := []string{"yes", "no", "yes", "maybe"}
	for i, verdict := range verdicts {
		record := &AnalysisRecord{
			RequestID: "req-" + string(rune('0'+i)),
			Verdict:   verdict,
			CreatedAt: time.Now(),
		}
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	total, positive, err := repo.AggregateMetrics(ctx)
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	if total != 4 || positive != 2 {
		t.Fatalf("expected total=4 positive=2, got total=%d positive=%d", total, positive)
	}
}

func TestSaveFramedWritesFileAndURL(t *testing.T) {
	dir := t.TempDir()
	store := NewPhotoStore(dir, "http://localhost:8080/", zap.NewNop())

	relPath, url, err := store.SaveFramed([]byte("jpeg-data"), "yes")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	namePattern := regexp.MustCompile(`^\d{8}_\d{6}_[0-9a-f]{8}_yes\.jpg$`)
	if name := filepath.Base(relPath); !namePattern.MatchString(name) {
		t.Fatalf("unexpected file name %q", name)
	}
	if filepath.Dir(relPath) != "framed_photos" {
		t.Fatalf("expected framed_photos subdir, got %q", relPath)
	}

	data, err := os.ReadFile(filepath.Join(dir, relPath))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "jpeg-data" {
		t.Fatal("stored file content mismatch")
	}

	wantPrefix := "http://localhost:8080/photos/files/framed_photos/"
	if url != wantPrefix+filepath.Base(relPath) {
		t.Fatalf("unexpected url %q", url)
	}
}
