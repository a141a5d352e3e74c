package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
)

const DatatypeNumeric = "Numeric"

// AttributeCounts reports what one Sync call wrote.
type AttributeCounts struct {
	NamesCreated         int
	NamesExisting        int
	DescriptionsCreated  int
	DescriptionsExisting int
	NumericCreated       bool
	NumericExisting      bool
}

// AttributeSynchronizer adds names, descriptions and numeric ranges to a
// resolved concept. It only ever inserts; existing rows are left untouched.
type AttributeSynchronizer struct {
	Creator int
	Now     func() time.Time
}

func (a *AttributeSynchronizer) Sync(ctx context.Context, repo *Repository, conceptID int, rec *models.ConceptRecord) (AttributeCounts, error) {
	var counts AttributeCounts
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	creator := rec.Extras.Creator.Or(a.Creator)

	if err := a.syncNames(ctx, repo, conceptID, rec, creator, now, &counts); err != nil {
		return counts, err
	}
	if err := a.syncDescriptions(ctx, repo, conceptID, rec, creator, now, &counts); err != nil {
		return counts, err
	}
	if strings.EqualFold(rec.Datatype, DatatypeNumeric) {
		created, err := a.syncNumeric(ctx, repo, conceptID, rec.Extras)
		if err != nil {
			return counts, err
		}
		counts.NumericCreated = created
		counts.NumericExisting = !created
	}
	return counts, nil
}

func (a *AttributeSynchronizer) syncNames(ctx context.Context, repo *Repository, conceptID int, rec *models.ConceptRecord, creator int, now time.Time, counts *AttributeCounts) error {
	for _, n := range rec.Names {
		row := &ConceptName{
			ConceptID:       conceptID,
			Name:            n.Name,
			Locale:          n.Locale,
			LocalePreferred: bool(n.LocalePreferred),
			Voided:          bool(n.Voided),
			Creator:         creator,
			DateCreated:     now,
			UUID:            newUUID(n.ExternalID),
		}
		if n.NameType != "" {
			nameType := n.NameType
			row.NameType = &nameType
		}
		err := repo.InsertName(ctx, row)
		switch {
		case err == nil:
			counts.NamesCreated++
		case errors.Is(err, ErrDuplicateDefinition):
			counts.NamesExisting++
		default:
			return fmt.Errorf("concept %d name %q: %w", conceptID, n.Name, err)
		}
	}
	return nil
}

func (a *AttributeSynchronizer) syncDescriptions(ctx context.Context, repo *Repository, conceptID int, rec *models.ConceptRecord, creator int, now time.Time, counts *AttributeCounts) error {
	for _, d := range rec.Descriptions {
		if strings.TrimSpace(d.Description) == "" {
			continue
		}
		row := &ConceptDescription{
			ConceptID:   conceptID,
			Description: d.Description,
			Locale:      d.Locale,
			Creator:     creator,
			DateCreated: now,
			UUID:        newUUID(d.ExternalID),
		}
		err := repo.InsertDescription(ctx, row, d.ExternalID)
		switch {
		case err == nil:
			counts.DescriptionsCreated++
		case errors.Is(err, ErrDuplicateDefinition):
			counts.DescriptionsExisting++
		default:
			return fmt.Errorf("concept %d description: %w", conceptID, err)
		}
	}
	return nil
}

func (a *AttributeSynchronizer) syncNumeric(ctx context.Context, repo *Repository, conceptID int, extras models.ConceptExtras) (bool, error) {
	row := &ConceptNumeric{
		ConceptID:   conceptID,
		HiAbsolute:  extras.HiAbsolute,
		HiCritical:  extras.HiCritical,
		HiNormal:    extras.HiNormal,
		LowAbsolute: extras.LowAbsolute,
		LowCritical: extras.LowCritical,
		LowNormal:   extras.LowNormal,
	}
	if extras.Units != "" {
		units := extras.Units
		row.Units = &units
	}
	if extras.Precise != nil {
		row.Precise = bool(*extras.Precise)
	}
	err := repo.InsertNumeric(ctx, row)
	if errors.Is(err, ErrDuplicateDefinition) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("concept %d numeric: %w", conceptID, err)
	}
	return true, nil
}
