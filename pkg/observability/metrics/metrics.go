package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
)

type phaseCounters struct {
	runs      atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	lastRun   atomic.Int64
}

var (
	phases = map[string]*phaseCounters{
		dictionary.PhaseConcepts: {},
		dictionary.PhaseMappings: {},
		dictionary.PhaseSources:  {},
	}

	conceptsCreated atomic.Int64
	conceptsReused  atomic.Int64
	setMembers      atomic.Int64
	answers         atomic.Int64
	referenceMaps   atomic.Int64
	termsCreated    atomic.Int64
	sourcesCreated  atomic.Int64

	failuresMu sync.Mutex
	failures   = map[string]int64{}
)

// ObservePhase folds a completed phase's stats into the exported counters.
func ObservePhase(phase string, stats dictionary.Stats) {
	if c, ok := phases[phase]; ok {
		c.runs.Add(1)
		c.processed.Add(int64(stats.Processed))
		c.failed.Add(int64(stats.Failed()))
		c.lastRun.Store(time.Now().Unix())
	}
	conceptsCreated.Add(int64(stats.ConceptsCreated))
	conceptsReused.Add(int64(stats.ConceptsReused))
	setMembers.Add(int64(stats.SetMembers.Created))
	answers.Add(int64(stats.Answers.Created))
	referenceMaps.Add(int64(stats.InternalRefMaps.Created + stats.ExternalRefMaps.Created))
	termsCreated.Add(int64(stats.TermsCreated))
	sourcesCreated.Add(int64(stats.SourcesCreated))
}

func ObserveFailure(kind dictionary.ErrorKind) {
	failuresMu.Lock()
	failures[string(kind)]++
	failuresMu.Unlock()
}

// Sink feeds import events into the counters.
type Sink struct{}

func (Sink) RecordFailed(_ context.Context, f dictionary.Failure) {
	ObserveFailure(f.Kind)
}

func (Sink) PhaseCompleted(_ context.Context, phase string, stats dictionary.Stats) {
	ObservePhase(phase, stats)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "# HELP conceptsync_phase_runs_total Number of completed import phases.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_phase_runs_total counter\n")
	for _, name := range names {
		fmt.Fprintf(w, "conceptsync_phase_runs_total{phase=%q} %d\n", name, phases[name].runs.Load())
	}

	fmt.Fprintf(w, "# HELP conceptsync_records_processed_total Number of records read by import phases.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_records_processed_total counter\n")
	for _, name := range names {
		fmt.Fprintf(w, "conceptsync_records_processed_total{phase=%q} %d\n", name, phases[name].processed.Load())
	}

	fmt.Fprintf(w, "# HELP conceptsync_records_failed_total Number of records that failed to import.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_records_failed_total counter\n")
	for _, name := range names {
		fmt.Fprintf(w, "conceptsync_records_failed_total{phase=%q} %d\n", name, phases[name].failed.Load())
	}

	fmt.Fprintf(w, "# HELP conceptsync_phase_last_completed_seconds Unix time the phase last completed.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_phase_last_completed_seconds gauge\n")
	for _, name := range names {
		fmt.Fprintf(w, "conceptsync_phase_last_completed_seconds{phase=%q} %d\n", name, phases[name].lastRun.Load())
	}

	failuresMu.Lock()
	kinds := make([]string, 0, len(failures))
	for k := range failures {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "# HELP conceptsync_failures_total Per-record failures by kind.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_failures_total counter\n")
	for _, k := range kinds {
		fmt.Fprintf(w, "conceptsync_failures_total{kind=%q} %d\n", k, failures[k])
	}
	failuresMu.Unlock()

	fmt.Fprintf(w, "# HELP conceptsync_concepts_total Concepts resolved, by outcome.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_concepts_total counter\n")
	fmt.Fprintf(w, "conceptsync_concepts_total{outcome=\"created\"} %d\n", conceptsCreated.Load())
	fmt.Fprintf(w, "conceptsync_concepts_total{outcome=\"reused\"} %d\n", conceptsReused.Load())

	fmt.Fprintf(w, "# HELP conceptsync_edges_created_total Mapping edges written, by table.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_edges_created_total counter\n")
	fmt.Fprintf(w, "conceptsync_edges_created_total{kind=\"set_member\"} %d\n", setMembers.Load())
	fmt.Fprintf(w, "conceptsync_edges_created_total{kind=\"answer\"} %d\n", answers.Load())
	fmt.Fprintf(w, "conceptsync_edges_created_total{kind=\"reference_map\"} %d\n", referenceMaps.Load())

	fmt.Fprintf(w, "# HELP conceptsync_reference_terms_created_total Reference terms created by mapping imports.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_reference_terms_created_total counter\n")
	fmt.Fprintf(w, "conceptsync_reference_terms_created_total %d\n", termsCreated.Load())

	fmt.Fprintf(w, "# HELP conceptsync_sources_created_total Reference sources created.\n")
	fmt.Fprintf(w, "# TYPE conceptsync_sources_created_total counter\n")
	fmt.Fprintf(w, "conceptsync_sources_created_total %d\n", sourcesCreated.Load())
}
