package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"gorm.io/gorm"
)

const NameTypeFullySpecified = "FULLY_SPECIFIED"

// Resolution is the outcome of resolving one concept record.
type Resolution struct {
	LocalID         int
	Created         bool
	MatchedBy       string // name, uuid or "" when created
	ClassCreated    bool
	DatatypeCreated bool
}

// ConceptResolver finds the local concept matching an incoming record, or
// creates one under a freshly allocated id.
type ConceptResolver struct {
	Creator          int
	PreferForeignIDs bool
	Now              func() time.Time
}

func validateConcept(rec *models.ConceptRecord) error {
	if rec == nil {
		return malformed("nil concept record")
	}
	if rec.ID <= 0 {
		return malformed("concept record without id")
	}
	if len(rec.Names) == 0 {
		return malformed("concept %d has no names", rec.ID)
	}
	for i, n := range rec.Names {
		if strings.TrimSpace(n.Name) == "" {
			return malformed("concept %d: name %d is empty", rec.ID, i)
		}
	}
	if strings.TrimSpace(rec.ConceptClass) == "" {
		return malformed("concept %d has no concept_class", rec.ID)
	}
	if strings.TrimSpace(rec.Datatype) == "" {
		return malformed("concept %d has no datatype", rec.ID)
	}
	return nil
}

func nameKey(n models.ConceptNameRecord) NameKey {
	return NameKey{
		Name:            n.Name,
		NameType:        n.NameType,
		Locale:          n.Locale,
		LocalePreferred: bool(n.LocalePreferred),
	}
}

// Resolve returns the local id for rec. A concept is already present when
// any of the record's name tuples exists; a fully specified match wins over
// other name types. Otherwise a concept with uuid equal to the record's
// external id is reused. Failing both, a new concept row is created.
func (c *ConceptResolver) Resolve(ctx context.Context, repo *Repository, rec *models.ConceptRecord) (Resolution, error) {
	if err := validateConcept(rec); err != nil {
		return Resolution{}, err
	}

	if id, ok, err := c.matchByName(ctx, repo, rec); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{LocalID: id, MatchedBy: "name"}, nil
	}

	if rec.ExternalID != "" {
		existing, err := repo.FindConceptByUUID(ctx, rec.ExternalID)
		if err == nil {
			return Resolution{LocalID: existing.ID, MatchedBy: "uuid"}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, err
		}
	}

	return c.create(ctx, repo, rec)
}

func (c *ConceptResolver) matchByName(ctx context.Context, repo *Repository, rec *models.ConceptRecord) (int, bool, error) {
	matched := 0
	for _, n := range rec.Names {
		found, err := repo.FindNames(ctx, nameKey(n))
		if err != nil {
			return 0, false, err
		}
		for _, f := range found {
			if f.NameType != nil && *f.NameType == NameTypeFullySpecified {
				return f.ConceptID, true, nil
			}
			if matched == 0 {
				matched = f.ConceptID
			}
		}
	}
	return matched, matched != 0, nil
}

func (c *ConceptResolver) create(ctx context.Context, repo *Repository, rec *models.ConceptRecord) (Resolution, error) {
	now := c.now()
	creator := rec.Extras.Creator.Or(c.Creator)

	class, classCreated, err := repo.EnsureClass(ctx, rec.ConceptClass, bool(rec.Retired), creator, now)
	if err != nil {
		return Resolution{}, fmt.Errorf("concept class %q: %w", rec.ConceptClass, err)
	}
	datatype, dtCreated, err := repo.EnsureDatatype(ctx, rec.Datatype, creator, now)
	if err != nil {
		return Resolution{}, fmt.Errorf("concept datatype %q: %w", rec.Datatype, err)
	}

	localID, err := c.allocateID(ctx, repo, rec.ID)
	if err != nil {
		return Resolution{}, err
	}

	concept := &Concept{
		ID:          localID,
		Retired:     bool(rec.Retired),
		DatatypeID:  datatype.ID,
		ClassID:     class.ID,
		IsSet:       bool(rec.Extras.IsSet),
		Creator:     creator,
		DateCreated: now,
		UUID:        newUUID(rec.ExternalID),
	}
	if err := repo.CreateConcept(ctx, concept); err != nil {
		return Resolution{}, fmt.Errorf("create concept %d: %w", localID, err)
	}

	return Resolution{
		LocalID:         localID,
		Created:         true,
		ClassCreated:    classCreated,
		DatatypeCreated: dtCreated,
	}, nil
}

// allocateID returns max(concept_id)+1, or the foreign id itself when
// PreferForeignIDs is set and that id is free.
func (c *ConceptResolver) allocateID(ctx context.Context, repo *Repository, foreignID int) (int, error) {
	if c.PreferForeignIDs {
		taken, err := repo.ConceptExists(ctx, foreignID)
		if err != nil {
			return 0, err
		}
		if !taken {
			return foreignID, nil
		}
	}
	maxID, err := repo.MaxConceptID(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate concept id: %w", err)
	}
	return maxID + 1, nil
}

func (c *ConceptResolver) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
