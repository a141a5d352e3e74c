package dictionary

import (
	"github.com/synaptica-ai/conceptsync/pkg/common/models"
)

type MappingClass int

const (
	MappingInternal MappingClass = iota
	MappingExternal
)

func (c MappingClass) String() string {
	if c == MappingExternal {
		return "external"
	}
	return "internal"
}

// ClassifyOne decides the shape of a mapping. A target source plus a target
// code makes it external; otherwise a target concept makes it internal.
func ClassifyOne(rec *models.MappingRecord) (MappingClass, error) {
	if rec == nil {
		return 0, malformed("nil mapping record")
	}
	if rec.From == nil {
		return 0, malformed("mapping without from_concept_url")
	}
	if rec.ToSource != nil && rec.ToConceptCode != "" {
		return MappingExternal, nil
	}
	if rec.To != nil {
		return MappingInternal, nil
	}
	return 0, malformed("mapping from %s has neither to_concept_url nor to_source_url with to_concept_code", rec.From)
}

// Classify partitions records into internal and external mappings. Records
// of neither shape come back as malformed record errors.
func Classify(records []*models.MappingRecord) (internal, external []*models.MappingRecord, rejected []*RecordError) {
	for _, rec := range records {
		class, err := ClassifyOne(rec)
		if err != nil {
			rejected = append(rejected, newRecordError(fromID(rec), err))
			continue
		}
		if class == MappingExternal {
			external = append(external, rec)
		} else {
			internal = append(internal, rec)
		}
	}
	return internal, external, rejected
}

// SelectMappings keeps mappings whose source endpoint is foreignID.
func SelectMappings(records []*models.MappingRecord, foreignID int) []*models.MappingRecord {
	var out []*models.MappingRecord
	for _, rec := range records {
		if fromID(rec) == foreignID {
			out = append(out, rec)
		}
	}
	return out
}

func fromID(rec *models.MappingRecord) int {
	if rec == nil || rec.From == nil {
		return 0
	}
	return rec.From.ID
}
