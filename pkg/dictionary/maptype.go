package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"gorm.io/gorm"
)

// Map types with dedicated edge tables. Every other map type is stored as a
// coded reference map.
const (
	MapTypeConceptSet = "CONCEPT-SET"
	MapTypeQAndA      = "Q-AND-A"
)

type EdgeKind int

const (
	EdgeReferenceMap EdgeKind = iota
	EdgeSetMember
	EdgeAnswer
)

func edgeKindOf(mapType string) EdgeKind {
	switch strings.ToUpper(strings.TrimSpace(mapType)) {
	case MapTypeConceptSet:
		return EdgeSetMember
	case MapTypeQAndA:
		return EdgeAnswer
	default:
		return EdgeReferenceMap
	}
}

// mapTypes resolves map type names for reference maps. In strict mode a name
// without a concept_map_type row is rejected; in lenient mode the row is
// created so that a typo shows up as a new map type rather than a failure.
type mapTypes struct {
	strict  bool
	creator int
	now     func() time.Time
}

func (m mapTypes) resolve(ctx context.Context, repo *Repository, name string) (*MapType, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, malformed("mapping without map_type")
	}
	mt, err := repo.FindMapType(ctx, name)
	if err == nil {
		return mt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if m.strict {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownMapType, name)
	}

	logger.Log.WithField("map_type", name).Warn("map type not in store, creating it")
	now := time.Now()
	if m.now != nil {
		now = m.now()
	}
	mt, err = repo.CreateMapType(ctx, name, m.creator, now)
	if err != nil {
		return nil, false, fmt.Errorf("create map type %q: %w", name, err)
	}
	return mt, true, nil
}
