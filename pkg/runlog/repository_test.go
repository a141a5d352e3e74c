package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestStartAndFinishRecordsStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	run, err := repo.Start(ctx, dictionary.PhaseConcepts, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if run.Status != StatusRunning {
		t.Fatalf("expected running status, got %s", run.Status)
	}

	stats := dictionary.Stats{
		Processed:       3,
		ConceptsCreated: 2,
		Errors:          map[dictionary.ErrorKind]int{dictionary.KindMalformedRecord: 1},
		Failures: []dictionary.Failure{{
			Phase:   dictionary.PhaseConcepts,
			Line:    4,
			Kind:    dictionary.KindMalformedRecord,
			Message: "malformed record: bad json",
		}},
	}
	if err := repo.Finish(ctx, run, stats, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}

	stored, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusCompleted || stored.Processed != 3 || stored.Failed != 1 {
		t.Fatalf("unexpected run %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completion time")
	}

	var failures []dictionary.Failure
	if err := json.Unmarshal(stored.Failures, &failures); err != nil {
		t.Fatalf("decode failures: %v", err)
	}
	if len(failures) != 1 || failures[0].Line != 4 {
		t.Fatalf("unexpected failures %+v", failures)
	}

	var summary dictionary.Stats
	if err := json.Unmarshal(stored.Stats, &summary); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if summary.ConceptsCreated != 2 || len(summary.Failures) != 0 {
		t.Fatalf("unexpected stats %+v", summary)
	}
}

func TestFinishWithErrorMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	run, err := repo.Start(ctx, dictionary.PhaseMappings, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Finish(ctx, run, dictionary.Stats{}, dictionary.ErrNoCorrespondenceTable); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := repo.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != StatusFailed || runs[0].ForeignID != 101 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].ErrorMessage == "" {
		t.Fatal("expected error message")
	}
}

func TestGetUnknownRun(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
