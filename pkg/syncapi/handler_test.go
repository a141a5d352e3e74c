package syncapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
	"github.com/synaptica-ai/conceptsync/pkg/runlog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	conceptsBody = `{"id":101,"concept_class":"Diagnosis","datatype":"Numeric","names":[{"name":"Fever","name_type":"FULLY_SPECIFIED","locale":"en","locale_preferred":true}],"extras":{"units":"C"}}
{"id":102,"concept_class":"Misc","datatype":"N/A","names":[{"name":"Yes","name_type":"FULLY_SPECIFIED","locale":"en","locale_preferred":true}]}
`
	mappingsBody = `{"from_concept_url":"/orgs/CIEL/sources/CIEL/concepts/101/","to_concept_url":"/orgs/CIEL/sources/CIEL/concepts/102/","map_type":"Q-AND-A"}
`
)

func newTestServer(t *testing.T) (*httptest.Server, *HTTPHandler) {
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

	repo := dictionary.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	runs := runlog.NewRepository(db)
	if err := runs.AutoMigrate(); err != nil {
		t.Fatalf("migrate runs: %v", err)
	}

	svc := dictionary.NewService(repo, nil, dictionary.Options{CreatorID: 1}, nil)
	store := correspondence.NewFileStore(filepath.Join(t.TempDir(), "keys.json"))
	handler := NewHTTPHandler(pipeline.NewRunner(svc, store, runs), 1<<20)

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, handler
}

func post(t *testing.T, url, body string) (*http.Response, pipeline.Result) {
	t.Helper()
	resp, err := http.Post(url, "application/x-ndjson", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var res pipeline.Result
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp, res
}

func TestMappingsBeforeConceptsConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := post(t, srv.URL+"/api/v1/mappings", mappingsBody)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestConceptsThenMappings(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, res := post(t, srv.URL+"/api/v1/concepts", conceptsBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("concepts: status %d", resp.StatusCode)
	}
	if res.Stats.ConceptsCreated != 2 || res.Entries != 2 || res.RunID == "" {
		t.Fatalf("unexpected concept result %+v", res)
	}

	lookup, err := http.Get(srv.URL + "/api/v1/correspondence/101")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var entry map[string]int
	if err := json.NewDecoder(lookup.Body).Decode(&entry); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	lookup.Body.Close()
	if entry["foreign_id"] != 101 || entry["local_id"] <= 0 {
		t.Fatalf("unexpected lookup %+v", entry)
	}

	missing, err := http.Get(srv.URL + "/api/v1/correspondence/999")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", missing.StatusCode)
	}

	resp, res = post(t, srv.URL+"/api/v1/mappings", mappingsBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mappings: status %d", resp.StatusCode)
	}
	if res.Stats.Answers.Created != 1 {
		t.Fatalf("unexpected mapping result %+v", res.Stats)
	}

	runs, err := http.Get(srv.URL + "/api/v1/runs?limit=5")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	defer runs.Body.Close()
	var listed struct {
		Runs []runlog.Run `json:"runs"`
	}
	if err := json.NewDecoder(runs.Body).Decode(&listed); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(listed.Runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(listed.Runs))
	}
}

func TestSourcesEndpointFiltersByID(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"concept_source_id":1,"name":"SNOMED CT","description":"SNOMED"}
{"concept_source_id":2,"name":"LOINC","description":"LOINC"}
`
	resp, res := post(t, srv.URL+"/api/v1/sources?concept_source_id=2", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if res.Stats.SourcesCreated != 1 || res.Stats.Filtered != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}

	bad, _ := post(t, srv.URL+"/api/v1/sources?concept_source_id=abc", body)
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
}

func TestConcurrentImportIsRefused(t *testing.T) {
	srv, handler := newTestServer(t)
	handler.mu.Lock()
	defer handler.mu.Unlock()

	resp, _ := post(t, srv.URL+"/api/v1/concepts", conceptsBody)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while another import runs, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	post(t, srv.URL+"/api/v1/concepts", conceptsBody)

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", health.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "conceptsync_records_processed_total") {
		t.Fatalf("metrics output missing counters: %s", body)
	}
}
