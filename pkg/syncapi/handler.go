// Package syncapi exposes the import phases over HTTP. Request bodies are
// JSONL streams in the same interchange format the CLI reads from files.
package syncapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/conceptsync/pkg/common/jsonl"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
	"github.com/synaptica-ai/conceptsync/pkg/runlog"
)

type HTTPHandler struct {
	runner  *pipeline.Runner
	maxBody int64

	// The store assumes a single writer; a second import is refused rather
	// than queued.
	mu sync.Mutex
}

func NewHTTPHandler(runner *pipeline.Runner, maxBody int64) *HTTPHandler {
	return &HTTPHandler{runner: runner, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/sources", h.handleSources).Methods(http.MethodPost)
	router.HandleFunc("/concepts", h.handleConcepts).Methods(http.MethodPost)
	router.HandleFunc("/mappings", h.handleMappings).Methods(http.MethodPost)
	router.HandleFunc("/correspondence/{foreignID:[0-9]+}", h.handleCorrespondence).Methods(http.MethodGet)
	router.HandleFunc("/runs", h.handleRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}", h.handleRun).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleSources(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r, "concept_source_id")
	if !ok || !h.acquire(w) {
		return
	}
	defer h.mu.Unlock()

	res, err := h.runner.Sources(r.Context(), jsonl.NewReader[models.SourceRecord](h.body(w, r)), id)
	h.respond(w, res, err)
}

func (h *HTTPHandler) handleConcepts(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r, "concept_id")
	if !ok || !h.acquire(w) {
		return
	}
	defer h.mu.Unlock()

	res, err := h.runner.Concepts(r.Context(), jsonl.NewReader[models.ConceptRecord](h.body(w, r)), id)
	h.respond(w, res, err)
}

func (h *HTTPHandler) handleMappings(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r, "concept_id")
	if !ok || !h.acquire(w) {
		return
	}
	defer h.mu.Unlock()

	res, err := h.runner.Mappings(r.Context(), jsonl.NewReader[models.MappingRecord](h.body(w, r)), id)
	h.respond(w, res, err)
}

func (h *HTTPHandler) handleCorrespondence(w http.ResponseWriter, r *http.Request) {
	foreignID, err := strconv.Atoi(mux.Vars(r)["foreignID"])
	if err != nil {
		http.Error(w, "invalid foreign id", http.StatusBadRequest)
		return
	}
	local, ok, err := h.runner.Lookup(r.Context(), foreignID)
	if errors.Is(err, correspondence.ErrNotFound) {
		http.Error(w, "correspondence table not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to load correspondence table")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "foreign id not in correspondence table", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"foreign_id": foreignID, "local_id": local})
}

func (h *HTTPHandler) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.runner.Runs()
	if runs == nil {
		http.Error(w, "run recording disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if val := r.URL.Query().Get("limit"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	list, err := runs.Recent(r.Context(), limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list runs")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": list})
}

func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	runs := h.runner.Runs()
	if runs == nil {
		http.Error(w, "run recording disabled", http.StatusNotFound)
		return
	}
	run, err := runs.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, runlog.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to fetch run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *HTTPHandler) acquire(w http.ResponseWriter) bool {
	if !h.mu.TryLock() {
		http.Error(w, "another import is running", http.StatusConflict)
		return false
	}
	return true
}

func (h *HTTPHandler) body(w http.ResponseWriter, r *http.Request) io.Reader {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	return r.Body
}

// respond maps the phase outcome onto a status. Per-record failures do not
// change the status; they are reported in the stats.
func (h *HTTPHandler) respond(w http.ResponseWriter, res pipeline.Result, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, dictionary.ErrNoCorrespondenceTable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &maxBytes):
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, correspondence.ErrCorrupt):
		logger.Log.WithError(err).Error("correspondence table corrupt")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		logger.Log.WithError(err).Error("import failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return 0, true
	}
	id, err := strconv.Atoi(val)
	if err != nil || id <= 0 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}
