package dictionary

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/jsonl"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	logger.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
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

func newTestService(t *testing.T, opts Options, sink EventSink) (*Service, *Repository) {
	t.Helper()
	repo := newTestRepository(t)
	if opts.CreatorID == 0 {
		opts.CreatorID = 1
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewService(repo, terminology.DefaultCatalog(), opts, sink), repo
}

func seedSource(t *testing.T, repo *Repository, name string) {
	t.Helper()
	src := &ReferenceSource{Name: name, Description: name, Creator: 1, DateCreated: fixedNow, UUID: newUUID("")}
	if err := repo.InsertSource(context.Background(), src); err != nil {
		t.Fatalf("seed source %s: %v", name, err)
	}
}

func seedMapType(t *testing.T, repo *Repository, name string) {
	t.Helper()
	if _, err := repo.CreateMapType(context.Background(), name, 1, fixedNow); err != nil {
		t.Fatalf("seed map type %s: %v", name, err)
	}
}

func countRows[T any](t *testing.T, repo *Repository, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := repo.db.Model(new(T))
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func concept(id int, name, class, datatype string) *models.ConceptRecord {
	return &models.ConceptRecord{
		ID:           id,
		ConceptClass: class,
		Datatype:     datatype,
		Names: []models.ConceptNameRecord{{
			Name:            name,
			NameType:        NameTypeFullySpecified,
			Locale:          "en",
			LocalePreferred: true,
		}},
	}
}

func conceptURL(id int) string {
	return fmt.Sprintf("/orgs/CIEL/sources/CIEL/concepts/%d/", id)
}

func internalMapping(t *testing.T, from, to int, mapType string) *models.MappingRecord {
	t.Helper()
	rec := &models.MappingRecord{FromConceptURL: conceptURL(from), ToConceptURL: conceptURL(to), MapType: mapType}
	if err := rec.Prepare(); err != nil {
		t.Fatalf("prepare mapping: %v", err)
	}
	return rec
}

func externalMapping(t *testing.T, from int, sourceURL, code, mapType string) *models.MappingRecord {
	t.Helper()
	rec := &models.MappingRecord{FromConceptURL: conceptURL(from), ToSourceURL: sourceURL, ToConceptCode: code, MapType: mapType}
	if err := rec.Prepare(); err != nil {
		t.Fatalf("prepare mapping: %v", err)
	}
	return rec
}

func conceptLines(lines ...string) ConceptIterator {
	return jsonl.NewReader[models.ConceptRecord](strings.NewReader(strings.Join(lines, "\n")))
}

func mappingLines(lines ...string) MappingIterator {
	return jsonl.NewReader[models.MappingRecord](strings.NewReader(strings.Join(lines, "\n")))
}

type recordingSink struct {
	failures []Failure
	phases   []string
}

func (r *recordingSink) RecordFailed(_ context.Context, f Failure) {
	r.failures = append(r.failures, f)
}

func (r *recordingSink) PhaseCompleted(_ context.Context, phase string, _ Stats) {
	r.phases = append(r.phases, phase)
}
