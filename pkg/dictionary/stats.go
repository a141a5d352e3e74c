package dictionary

import "sort"

// EdgeCounts tallies one edge kind.
type EdgeCounts struct {
	Created     int `json:"created"`
	Duplicate   int `json:"duplicate"`
	SelfMapping int `json:"self_mapping"`
}

func (e *EdgeCounts) add(o EdgeCounts) {
	e.Created += o.Created
	e.Duplicate += o.Duplicate
	e.SelfMapping += o.SelfMapping
}

// Failure is a reportable per-record error: enough to re-run just the
// failed subset.
type Failure struct {
	Phase     string    `json:"phase"`
	ForeignID int       `json:"foreign_id,omitempty"`
	Line      int       `json:"line,omitempty"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
}

// Stats is returned by every import phase; callers accumulate with Add.
type Stats struct {
	Processed int `json:"processed"`
	Filtered  int `json:"filtered"`

	ConceptsCreated  int `json:"concepts_created"`
	ConceptsReused   int `json:"concepts_reused"`
	ClassesCreated   int `json:"classes_created"`
	DatatypesCreated int `json:"datatypes_created"`

	NamesCreated         int `json:"names_created"`
	NamesExisting        int `json:"names_existing"`
	DescriptionsCreated  int `json:"descriptions_created"`
	DescriptionsExisting int `json:"descriptions_existing"`
	NumericsCreated      int `json:"numerics_created"`
	NumericsExisting     int `json:"numerics_existing"`

	InternalMappings int        `json:"internal_mappings"`
	ExternalMappings int        `json:"external_mappings"`
	SetMembers       EdgeCounts `json:"set_members"`
	Answers          EdgeCounts `json:"answers"`
	InternalRefMaps  EdgeCounts `json:"internal_reference_maps"`
	ExternalRefMaps  EdgeCounts `json:"external_reference_maps"`
	TermsCreated     int        `json:"terms_created"`
	MapTypesCreated  int        `json:"map_types_created"`

	SourcesCreated  int `json:"sources_created"`
	SourcesExisting int `json:"sources_existing"`

	Errors   map[ErrorKind]int `json:"errors,omitempty"`
	Failures []Failure         `json:"failures,omitempty"`
}

func (s *Stats) Add(o Stats) {
	s.Processed += o.Processed
	s.Filtered += o.Filtered
	s.ConceptsCreated += o.ConceptsCreated
	s.ConceptsReused += o.ConceptsReused
	s.ClassesCreated += o.ClassesCreated
	s.DatatypesCreated += o.DatatypesCreated
	s.NamesCreated += o.NamesCreated
	s.NamesExisting += o.NamesExisting
	s.DescriptionsCreated += o.DescriptionsCreated
	s.DescriptionsExisting += o.DescriptionsExisting
	s.NumericsCreated += o.NumericsCreated
	s.NumericsExisting += o.NumericsExisting
	s.InternalMappings += o.InternalMappings
	s.ExternalMappings += o.ExternalMappings
	s.SetMembers.add(o.SetMembers)
	s.Answers.add(o.Answers)
	s.InternalRefMaps.add(o.InternalRefMaps)
	s.ExternalRefMaps.add(o.ExternalRefMaps)
	s.TermsCreated += o.TermsCreated
	s.MapTypesCreated += o.MapTypesCreated
	s.SourcesCreated += o.SourcesCreated
	s.SourcesExisting += o.SourcesExisting
	for k, v := range o.Errors {
		if s.Errors == nil {
			s.Errors = make(map[ErrorKind]int)
		}
		s.Errors[k] += v
	}
	s.Failures = append(s.Failures, o.Failures...)
}

// Failed is the total number of failed records.
func (s *Stats) Failed() int {
	n := 0
	for _, v := range s.Errors {
		n += v
	}
	return n
}

// ErrorKinds returns the kinds with at least one failure, sorted.
func (s *Stats) ErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(s.Errors))
	for k := range s.Errors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (s *Stats) recordFailure(phase string, re *RecordError) Failure {
	if s.Errors == nil {
		s.Errors = make(map[ErrorKind]int)
	}
	s.Errors[re.Kind]++
	f := Failure{
		Phase:     phase,
		ForeignID: re.ForeignID,
		Line:      re.Line,
		Kind:      re.Kind,
		Message:   re.Err.Error(),
	}
	s.Failures = append(s.Failures, f)
	return f
}
