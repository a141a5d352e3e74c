package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/conceptsync/pkg/common/jsonl"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
)

const (
	PhaseConcepts = "concepts"
	PhaseMappings = "mappings"
	PhaseSources  = "sources"
)

// Iterator yields records one at a time and io.EOF when exhausted. A
// *jsonl.LineError is counted as a malformed record; any other error aborts
// the phase.
type Iterator[T any] interface {
	Next() (*T, error)
}

type (
	ConceptIterator = Iterator[models.ConceptRecord]
	MappingIterator = Iterator[models.MappingRecord]
	SourceIterator  = Iterator[models.SourceRecord]
)

type sliceIterator[T any] struct {
	records []*T
	pos     int
}

func (s *sliceIterator[T]) Next() (*T, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// FromSlice adapts an in-memory batch to an Iterator.
func FromSlice[T any](records []*T) Iterator[T] {
	return &sliceIterator[T]{records: records}
}

// Options are fixed for the lifetime of a Service.
type Options struct {
	CreatorID        int
	StrictMapTypes   bool
	PreferForeignIDs bool
	Now              func() time.Time
}

// ImportOptions scope a single phase run.
type ImportOptions struct {
	// ForeignID restricts the run to one foreign concept (or, for sources,
	// one concept_source_id). Zero means everything.
	ForeignID int
	// Base seeds the concept phase's table, so a run extends the table of
	// earlier runs instead of replacing it.
	Base *correspondence.Table
}

type Service struct {
	repo   *Repository
	events EventSink

	concepts   *ConceptResolver
	attributes *AttributeSynchronizer
	internal   *InternalMappingResolver
	external   *ExternalMappingResolver
	sources    *SourceSynchronizer
}

func NewService(repo *Repository, catalog *terminology.Catalog, opts Options, events EventSink) *Service {
	if catalog == nil {
		catalog = terminology.DefaultCatalog()
	}
	if events == nil {
		events = NopSink()
	}
	return &Service{
		repo:   repo,
		events: events,
		concepts: &ConceptResolver{
			Creator:          opts.CreatorID,
			PreferForeignIDs: opts.PreferForeignIDs,
			Now:              opts.Now,
		},
		attributes: &AttributeSynchronizer{Creator: opts.CreatorID, Now: opts.Now},
		internal: &InternalMappingResolver{
			Catalog:        catalog,
			StrictMapTypes: opts.StrictMapTypes,
			Creator:        opts.CreatorID,
			Now:            opts.Now,
		},
		external: &ExternalMappingResolver{
			Catalog:        catalog,
			StrictMapTypes: opts.StrictMapTypes,
			Creator:        opts.CreatorID,
			Now:            opts.Now,
		},
		sources: &SourceSynchronizer{Creator: opts.CreatorID, Now: opts.Now},
	}
}

// ImportConcepts runs phase one. Every record that resolves, whether reused
// or created, lands in the returned table. On cancellation the partial table
// is returned together with the context error so the caller can persist it.
func (s *Service) ImportConcepts(ctx context.Context, records ConceptIterator, opts ImportOptions) (*correspondence.Table, Stats, error) {
	var stats Stats
	builder := correspondence.NewBuilder(opts.Base)
	log := logger.WithField("phase", PhaseConcepts)

	for {
		if err := ctx.Err(); err != nil {
			return builder.Build(), stats, err
		}
		rec, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if re, ok := lineFailure(err); ok {
				stats.Processed++
				s.fail(ctx, PhaseConcepts, &stats, re)
				continue
			}
			return builder.Build(), stats, fmt.Errorf("read concept records: %w", err)
		}
		if opts.ForeignID != 0 && rec.ID != opts.ForeignID {
			stats.Filtered++
			continue
		}
		stats.Processed++

		localID, delta, err := s.importConcept(ctx, rec)
		if err != nil {
			s.fail(ctx, PhaseConcepts, &stats, newRecordError(rec.ID, err))
			continue
		}
		stats.Add(delta)
		builder.Put(rec.ID, localID)
		log.WithFields(logrus.Fields{
			"foreign_id": rec.ID,
			"local_id":   localID,
			"created":    delta.ConceptsCreated > 0,
		}).Debug("concept resolved")
	}

	table := builder.Build()
	log.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"created":   stats.ConceptsCreated,
		"reused":    stats.ConceptsReused,
		"failed":    stats.Failed(),
		"entries":   table.Len(),
	}).Info("concept import completed")
	s.events.PhaseCompleted(ctx, PhaseConcepts, stats)
	return table, stats, nil
}

func (s *Service) importConcept(ctx context.Context, rec *models.ConceptRecord) (int, Stats, error) {
	var (
		localID int
		delta   Stats
	)
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		res, err := s.concepts.Resolve(ctx, tx, rec)
		if err != nil {
			return err
		}
		counts, err := s.attributes.Sync(ctx, tx, res.LocalID, rec)
		if err != nil {
			return err
		}
		localID = res.LocalID
		delta = conceptDelta(res, counts)
		return nil
	})
	return localID, delta, err
}

func conceptDelta(res Resolution, counts AttributeCounts) Stats {
	var d Stats
	if res.Created {
		d.ConceptsCreated = 1
	} else {
		d.ConceptsReused = 1
	}
	if res.ClassCreated {
		d.ClassesCreated = 1
	}
	if res.DatatypeCreated {
		d.DatatypesCreated = 1
	}
	d.NamesCreated = counts.NamesCreated
	d.NamesExisting = counts.NamesExisting
	d.DescriptionsCreated = counts.DescriptionsCreated
	d.DescriptionsExisting = counts.DescriptionsExisting
	if counts.NumericCreated {
		d.NumericsCreated = 1
	}
	if counts.NumericExisting {
		d.NumericsExisting = 1
	}
	return d
}

// ImportMappings runs phase two against a table produced by phase one (or
// loaded from a store). External mappings are written before internal ones.
func (s *Service) ImportMappings(ctx context.Context, records MappingIterator, table *correspondence.Table, opts ImportOptions) (Stats, error) {
	if table == nil {
		return Stats{}, ErrNoCorrespondenceTable
	}
	var (
		stats Stats
		all   []*models.MappingRecord
	)
	log := logger.WithField("phase", PhaseMappings)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if re, ok := lineFailure(err); ok {
				stats.Processed++
				s.fail(ctx, PhaseMappings, &stats, re)
				continue
			}
			return stats, fmt.Errorf("read mapping records: %w", err)
		}
		if rec.From == nil && rec.To == nil && rec.ToSource == nil {
			if err := rec.Prepare(); err != nil {
				stats.Processed++
				s.fail(ctx, PhaseMappings, &stats, &RecordError{Kind: KindMalformedRecord, Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)})
				continue
			}
		}
		all = append(all, rec)
	}

	if opts.ForeignID != 0 {
		selected := SelectMappings(all, opts.ForeignID)
		stats.Filtered = len(all) - len(selected)
		all = selected
	}
	stats.Processed += len(all)

	internal, external, rejected := Classify(all)
	for _, re := range rejected {
		s.fail(ctx, PhaseMappings, &stats, re)
	}
	stats.InternalMappings = len(internal)
	stats.ExternalMappings = len(external)
	log.WithFields(logrus.Fields{
		"internal": len(internal),
		"external": len(external),
		"rejected": len(rejected),
	}).Info("mappings classified")

	for _, rec := range external {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s.importMapping(ctx, MappingExternal, rec, table, &stats)
	}
	for _, rec := range internal {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s.importMapping(ctx, MappingInternal, rec, table, &stats)
	}

	log.WithFields(logrus.Fields{
		"processed":   stats.Processed,
		"set_members": stats.SetMembers.Created,
		"answers":     stats.Answers.Created,
		"ref_maps":    stats.InternalRefMaps.Created + stats.ExternalRefMaps.Created,
		"failed":      stats.Failed(),
	}).Info("mapping import completed")
	s.events.PhaseCompleted(ctx, PhaseMappings, stats)
	return stats, nil
}

func (s *Service) importMapping(ctx context.Context, class MappingClass, rec *models.MappingRecord, table *correspondence.Table, stats *Stats) {
	var out EdgeOutcome
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		var err error
		if class == MappingExternal {
			out, err = s.external.Resolve(ctx, tx, rec, table)
		} else {
			out, err = s.internal.Resolve(ctx, tx, rec, table)
		}
		return err
	})
	if err != nil {
		s.fail(ctx, PhaseMappings, stats, newRecordError(fromID(rec), err))
		return
	}

	var counts *EdgeCounts
	switch {
	case out.Kind == EdgeSetMember:
		counts = &stats.SetMembers
	case out.Kind == EdgeAnswer:
		counts = &stats.Answers
	case class == MappingExternal:
		counts = &stats.ExternalRefMaps
	default:
		counts = &stats.InternalRefMaps
	}
	switch {
	case out.SelfMapping:
		counts.SelfMapping++
	case out.Duplicate:
		counts.Duplicate++
	case out.Created:
		counts.Created++
	}
	if out.TermCreated {
		stats.TermsCreated++
	}
	if out.MapTypeCreated {
		stats.MapTypesCreated++
	}
	logger.WithFields(logrus.Fields{
		"phase":      PhaseMappings,
		"class":      class.String(),
		"foreign_id": fromID(rec),
		"map_type":   rec.MapType,
		"created":    out.Created,
	}).Debug("mapping resolved")
}

// ImportSources upserts reference sources by name. Sources are independent
// of the correspondence table and may run before or after either phase.
func (s *Service) ImportSources(ctx context.Context, records SourceIterator, opts ImportOptions) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if re, ok := lineFailure(err); ok {
				stats.Processed++
				s.fail(ctx, PhaseSources, &stats, re)
				continue
			}
			return stats, fmt.Errorf("read source records: %w", err)
		}
		if opts.ForeignID != 0 && rec.ConceptSourceID != opts.ForeignID {
			stats.Filtered++
			continue
		}
		stats.Processed++

		var created bool
		err = s.repo.Transaction(ctx, func(tx *Repository) error {
			var err error
			created, err = s.sources.Sync(ctx, tx, rec)
			return err
		})
		if err != nil {
			s.fail(ctx, PhaseSources, &stats, newRecordError(rec.ConceptSourceID, err))
			continue
		}
		if created {
			stats.SourcesCreated++
		} else {
			stats.SourcesExisting++
		}
		logger.WithFields(logrus.Fields{
			"phase":   PhaseSources,
			"source":  rec.Name,
			"created": created,
		}).Debug("source synced")
	}

	logger.WithFields(logrus.Fields{
		"phase":    PhaseSources,
		"created":  stats.SourcesCreated,
		"existing": stats.SourcesExisting,
		"failed":   stats.Failed(),
	}).Info("source import completed")
	s.events.PhaseCompleted(ctx, PhaseSources, stats)
	return stats, nil
}

// lineFailure converts an undecodable input line into a malformed record
// failure.
func lineFailure(err error) (*RecordError, bool) {
	var le *jsonl.LineError
	if !errors.As(err, &le) {
		return nil, false
	}
	return &RecordError{
		Kind: KindMalformedRecord,
		Line: le.Line,
		Err:  fmt.Errorf("%w: %v", ErrMalformedRecord, le.Err),
	}, true
}

func (s *Service) fail(ctx context.Context, phase string, stats *Stats, re *RecordError) {
	f := stats.recordFailure(phase, re)
	logger.WithFields(logrus.Fields{
		"phase":      phase,
		"foreign_id": f.ForeignID,
		"line":       f.Line,
		"kind":       f.Kind,
	}).Warn(f.Message)
	s.events.RecordFailed(ctx, f)
}
