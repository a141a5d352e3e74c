package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
)

// ExternalMappingResolver maps a concept to a code in an external reference
// source. Sources are never created here; they must be synced beforehand.
type ExternalMappingResolver struct {
	Catalog        *terminology.Catalog
	StrictMapTypes bool
	Creator        int
	Now            func() time.Time
}

func (r *ExternalMappingResolver) Resolve(ctx context.Context, repo *Repository, rec *models.MappingRecord, table *correspondence.Table) (EdgeOutcome, error) {
	out := EdgeOutcome{Kind: EdgeReferenceMap}
	code := strings.TrimSpace(rec.ToConceptCode)
	if rec.From == nil || rec.ToSource == nil || code == "" {
		return out, malformed("external mapping needs from_concept_url, to_source_url and to_concept_code")
	}
	conceptID, ok := table.Lookup(rec.From.ID)
	if !ok {
		return out, missingCorrespondence(rec.From.ID)
	}

	sourceName := r.Catalog.StoreName(rec.ToSource.Source)
	source, err := repo.FindSourceByName(ctx, sourceName)
	if err != nil {
		return out, fmt.Errorf("source %q (%s): %w", sourceName, rec.ToSource, err)
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	now = rec.CreatedAt(now)
	creator := rec.Creator.Or(r.Creator)

	mt, mtCreated, err := mapTypes{strict: r.StrictMapTypes, creator: r.Creator, now: r.Now}.resolve(ctx, repo, rec.MapType)
	if err != nil {
		return out, err
	}
	out.MapTypeCreated = mtCreated

	term, termCreated, err := repo.EnsureTerm(ctx, source.ID, code, bool(rec.Retired), creator, now)
	if err != nil {
		return out, fmt.Errorf("reference term %q in %q: %w", code, sourceName, err)
	}
	out.TermCreated = termCreated

	err = repo.InsertReferenceMap(ctx, &ReferenceMap{
		TermID:      term.ID,
		ConceptID:   conceptID,
		MapTypeID:   mt.ID,
		Creator:     creator,
		DateCreated: now,
		UUID:        newUUID(rec.ExternalID),
	})
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
