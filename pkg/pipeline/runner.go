// Package pipeline ties an import phase to the correspondence store and the
// run ledger. The CLI and the HTTP API both drive imports through a Runner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/runlog"
)

// Result summarises one phase run.
type Result struct {
	RunID   string           `json:"run_id"`
	Phase   string           `json:"phase"`
	Stats   dictionary.Stats `json:"stats"`
	Entries int              `json:"correspondence_entries,omitempty"`
	Elapsed time.Duration    `json:"elapsed_ns"`

	started time.Time
}

type Runner struct {
	service *dictionary.Service
	store   correspondence.Store
	runs    *runlog.Repository
}

// NewRunner wires a service to a correspondence store. runs may be nil, in
// which case nothing is written to the run ledger.
func NewRunner(service *dictionary.Service, store correspondence.Store, runs *runlog.Repository) *Runner {
	return &Runner{service: service, store: store, runs: runs}
}

func (r *Runner) Sources(ctx context.Context, records dictionary.SourceIterator, sourceID int) (Result, error) {
	ctx, run, res := r.begin(ctx, dictionary.PhaseSources, sourceID)
	stats, err := r.service.ImportSources(ctx, records, dictionary.ImportOptions{ForeignID: sourceID})
	return r.finish(ctx, run, res, stats, err)
}

// Concepts runs the concept phase and persists the resulting table. Every run
// starts from the stored table and only adds to it, so a filtered run or one
// aborted part way never drops entries written by earlier runs.
func (r *Runner) Concepts(ctx context.Context, records dictionary.ConceptIterator, conceptID int) (Result, error) {
	base, err := r.store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, correspondence.ErrNotFound):
		base = nil
	default:
		return Result{Phase: dictionary.PhaseConcepts}, fmt.Errorf("load correspondence table: %w", err)
	}

	ctx, run, res := r.begin(ctx, dictionary.PhaseConcepts, conceptID)
	table, stats, err := r.service.ImportConcepts(ctx, records, dictionary.ImportOptions{ForeignID: conceptID, Base: base})
	if table != nil {
		res.Entries = table.Len()
		if saveErr := r.store.Save(context.WithoutCancel(ctx), table); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("save correspondence table: %w", saveErr))
		}
	}
	return r.finish(ctx, run, res, stats, err)
}

// Mappings runs the mapping phase against the stored table. A missing table
// means the concept phase has not run and is reported as
// ErrNoCorrespondenceTable.
func (r *Runner) Mappings(ctx context.Context, records dictionary.MappingIterator, conceptID int) (Result, error) {
	table, err := r.store.Load(ctx)
	if errors.Is(err, correspondence.ErrNotFound) {
		return Result{Phase: dictionary.PhaseMappings}, fmt.Errorf("%w: %v", dictionary.ErrNoCorrespondenceTable, err)
	}
	if err != nil {
		return Result{Phase: dictionary.PhaseMappings}, fmt.Errorf("load correspondence table: %w", err)
	}

	ctx, run, res := r.begin(ctx, dictionary.PhaseMappings, conceptID)
	res.Entries = table.Len()
	stats, err := r.service.ImportMappings(ctx, records, table, dictionary.ImportOptions{ForeignID: conceptID})
	return r.finish(ctx, run, res, stats, err)
}

// Lookup resolves one foreign id through the stored table.
func (r *Runner) Lookup(ctx context.Context, foreignID int) (int, bool, error) {
	table, err := r.store.Load(ctx)
	if err != nil {
		return 0, false, err
	}
	local, ok := table.Lookup(foreignID)
	return local, ok, nil
}

// Runs exposes the run ledger, nil when recording is off.
func (r *Runner) Runs() *runlog.Repository {
	return r.runs
}

func (r *Runner) begin(ctx context.Context, phase string, foreignID int) (context.Context, *runlog.Run, Result) {
	res := Result{Phase: phase, RunID: uuid.New().String(), started: time.Now()}
	var run *runlog.Run
	if r.runs != nil {
		started, err := r.runs.Start(ctx, phase, foreignID)
		if err != nil {
			logger.Log.WithError(err).Warn("failed to record run start")
		} else {
			run = started
			res.RunID = run.ID
		}
	}
	logger.WithFields(logrus.Fields{
		"run_id":     res.RunID,
		"phase":      phase,
		"foreign_id": foreignID,
	}).Info("import started")
	return dictionary.WithRunID(ctx, res.RunID), run, res
}

func (r *Runner) finish(ctx context.Context, run *runlog.Run, res Result, stats dictionary.Stats, err error) (Result, error) {
	res.Elapsed = time.Since(res.started)
	res.Stats = stats
	if run != nil {
		if finishErr := r.runs.Finish(context.WithoutCancel(ctx), run, stats, err); finishErr != nil {
			logger.Log.WithError(finishErr).Warn("failed to record run result")
		}
	}
	entry := logger.WithFields(logrus.Fields{
		"run_id":    res.RunID,
		"phase":     res.Phase,
		"processed": stats.Processed,
		"failed":    stats.Failed(),
		"elapsed":   res.Elapsed.String(),
	})
	if err != nil {
		entry.WithError(err).Error("import aborted")
		return res, err
	}
	entry.Info("import finished")
	return res, nil
}
