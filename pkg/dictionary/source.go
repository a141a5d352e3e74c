package dictionary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
)

// SourceSynchronizer upserts reference source definitions by name.
type SourceSynchronizer struct {
	Creator int
	Now     func() time.Time
}

// Sync creates the source when no source with the same name exists. It
// reports whether a row was written.
func (s *SourceSynchronizer) Sync(ctx context.Context, repo *Repository, rec *models.SourceRecord) (bool, error) {
	if rec == nil || strings.TrimSpace(rec.Name) == "" {
		return false, malformed("source record without name")
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	src := &ReferenceSource{
		Name:        strings.TrimSpace(rec.Name),
		Description: rec.Description,
		Creator:     rec.Extras.Creator.Or(s.Creator),
		DateCreated: now,
		Retired:     bool(rec.Retired),
		UUID:        newUUID(""),
	}
	if rec.HL7Code != "" {
		code := rec.HL7Code
		src.HL7Code = &code
	}

	err := repo.InsertSource(ctx, src)
	if errors.Is(err, ErrDuplicateDefinition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
