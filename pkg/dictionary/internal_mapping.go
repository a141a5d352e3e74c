package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
)

// EdgeOutcome reports what resolving one mapping did.
type EdgeOutcome struct {
	Kind           EdgeKind
	Created        bool
	Duplicate      bool
	SelfMapping    bool
	TermCreated    bool
	MapTypeCreated bool
}

// InternalMappingResolver turns concept-to-concept mappings into set
// members, answers or coded reference maps.
type InternalMappingResolver struct {
	Catalog        *terminology.Catalog
	StrictMapTypes bool
	Creator        int
	Now            func() time.Time
}

func (r *InternalMappingResolver) Resolve(ctx context.Context, repo *Repository, rec *models.MappingRecord, table *correspondence.Table) (EdgeOutcome, error) {
	if rec.From == nil || rec.To == nil {
		return EdgeOutcome{}, malformed("internal mapping needs from_concept_url and to_concept_url")
	}
	fromLocal, ok := table.Lookup(rec.From.ID)
	if !ok {
		return EdgeOutcome{}, missingCorrespondence(rec.From.ID)
	}
	toLocal, ok := table.Lookup(rec.To.ID)
	if !ok {
		return EdgeOutcome{}, missingCorrespondence(rec.To.ID)
	}

	out := EdgeOutcome{Kind: edgeKindOf(rec.MapType)}
	if fromLocal == toLocal {
		out.SelfMapping = true
		return out, nil
	}

	now := rec.CreatedAt(r.now())
	creator := rec.Creator.Or(r.Creator)

	var err error
	switch out.Kind {
	case EdgeSetMember:
		err = repo.InsertSetMember(ctx, &SetMember{
			OwnerID:     fromLocal,
			MemberID:    toLocal,
			Creator:     creator,
			DateCreated: now,
			UUID:        newUUID(rec.ExternalID),
		})
	case EdgeAnswer:
		err = repo.InsertAnswer(ctx, &Answer{
			QuestionID:  fromLocal,
			AnswerID:    toLocal,
			Creator:     creator,
			DateCreated: now,
			UUID:        newUUID(rec.ExternalID),
		})
	default:
		err = r.referenceMap(ctx, repo, rec, fromLocal, toLocal, creator, now, &out)
	}

	switch {
	case err == nil:
		out.Created = true
	case errors.Is(err, ErrDuplicateDefinition):
		out.Duplicate = true
	default:
		return out, err
	}
	return out, nil
}

// referenceMap records the target concept as a term, coded by its local id,
// in the reference source the mapping's from-concept belongs to.
func (r *InternalMappingResolver) referenceMap(ctx context.Context, repo *Repository, rec *models.MappingRecord, fromLocal, toLocal, creator int, now time.Time, out *EdgeOutcome) error {
	mt, mtCreated, err := mapTypes{strict: r.StrictMapTypes, creator: r.Creator, now: r.Now}.resolve(ctx, repo, rec.MapType)
	if err != nil {
		return err
	}
	out.MapTypeCreated = mtCreated

	sourceName := r.Catalog.StoreName(rec.From.Source)
	source, err := repo.FindSourceByName(ctx, sourceName)
	if err != nil {
		return fmt.Errorf("source %q of %s: %w", sourceName, rec.From, err)
	}

	term, termCreated, err := repo.EnsureTerm(ctx, source.ID, strconv.Itoa(toLocal), bool(rec.Retired), creator, now)
	if err != nil {
		return fmt.Errorf("reference term %d in %q: %w", toLocal, sourceName, err)
	}
	out.TermCreated = termCreated

	return repo.InsertReferenceMap(ctx, &ReferenceMap{
		TermID:      term.ID,
		ConceptID:   fromLocal,
		MapTypeID:   mt.ID,
		Creator:     creator,
		DateCreated: now,
		UUID:        newUUID(rec.ExternalID),
	})
}

func (r *InternalMappingResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
