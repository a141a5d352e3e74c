package models

import (
	"time"
)

// Interchange records, one JSON object per line.

type ConceptRecord struct {
	ID           int                 `json:"id"`
	ConceptClass string              `json:"concept_class"`
	Datatype     string              `json:"datatype"`
	Retired      Flag                `json:"retired"`
	ExternalID   string              `json:"external_id"`
	Names        []ConceptNameRecord `json:"names"`
	Descriptions []DescriptionRecord `json:"descriptions"`
	Extras       ConceptExtras       `json:"extras"`
}

type ConceptNameRecord struct {
	Name            string `json:"name"`
	NameType        string `json:"name_type"`
	Locale          string `json:"locale"`
	LocalePreferred Flag   `json:"locale_preferred"`
	Voided          Flag   `json:"voided"`
	ExternalID      string `json:"external_id"`
}

type DescriptionRecord struct {
	Description string `json:"description"`
	Locale      string `json:"locale"`
	ExternalID  string `json:"external_id"`
}

// ConceptExtras carries the creator plus, for numeric concepts, the range
// attributes. Every bound is optional.
type ConceptExtras struct {
	Creator     IntID    `json:"creator,omitempty"`
	HiCritical  *float64 `json:"hi_critical,omitempty"`
	LowCritical *float64 `json:"low_critical,omitempty"`
	HiNormal    *float64 `json:"hi_normal,omitempty"`
	LowNormal   *float64 `json:"low_normal,omitempty"`
	HiAbsolute  *float64 `json:"hi_absolute,omitempty"`
	LowAbsolute *float64 `json:"low_absolute,omitempty"`
	Units       string   `json:"units,omitempty"`
	Precise     *Flag    `json:"precise,omitempty"`
	IsSet       Flag     `json:"is_set,omitempty"`
}

type MappingRecord struct {
	FromConceptURL string `json:"from_concept_url"`
	ToConceptURL   string `json:"to_concept_url,omitempty"`
	ToSourceURL    string `json:"to_source_url,omitempty"`
	ToConceptCode  string `json:"to_concept_code,omitempty"`
	MapType        string `json:"map_type"`
	Creator        IntID  `json:"creator,omitempty"`
	Retired        Flag   `json:"retired"`
	DateCreated    string `json:"date_created,omitempty"`
	ExternalID     string `json:"external_id,omitempty"`

	// Populated once by Prepare; downstream code never re-parses the URLs.
	From     *ConceptRef `json:"-"`
	To       *ConceptRef `json:"-"`
	ToSource *SourceRef  `json:"-"`
}

// Prepare parses the endpoint URLs into structured references. A URL that is
// present but unparseable is an error; absent URLs leave the ref nil so the
// classifier can decide what shape the record has.
func (m *MappingRecord) Prepare() error {
	if m.FromConceptURL != "" {
		ref, err := ParseConceptRef(m.FromConceptURL)
		if err != nil {
			return err
		}
		m.From = &ref
	}
	if m.ToConceptURL != "" {
		ref, err := ParseConceptRef(m.ToConceptURL)
		if err != nil {
			return err
		}
		m.To = &ref
	}
	if m.ToSourceURL != "" {
		ref, err := ParseSourceRef(m.ToSourceURL)
		if err != nil {
			return err
		}
		m.ToSource = &ref
	}
	return nil
}

// CreatedAt returns date_created when it parses, otherwise the fallback.
func (m *MappingRecord) CreatedAt(fallback time.Time) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, m.DateCreated); err == nil {
			return t
		}
	}
	return fallback
}

type SourceRecord struct {
	ConceptSourceID int          `json:"concept_source_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	HL7Code         string       `json:"hl7_code"`
	Retired         Flag         `json:"retired"`
	Extras          SourceExtras `json:"extras"`
}

type SourceExtras struct {
	Creator IntID `json:"creator,omitempty"`
}

// Event is the envelope published on the sync events topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // record.failed, phase.completed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
