package dictionary

import (
	"errors"
	"testing"

	"github.com/synaptica-ai/conceptsync/pkg/common/models"
)

func TestClassifyPartitionsByShape(t *testing.T) {
	internal := internalMapping(t, 1, 2, "CONCEPT-SET")
	external := externalMapping(t, 1, "/orgs/WHO/sources/ICD-10-WHO/", "A00", "SAME-AS")

	// A target source without a code falls back to the target concept.
	both := &models.MappingRecord{
		FromConceptURL: conceptURL(3),
		ToConceptURL:   conceptURL(4),
		ToSourceURL:    "/orgs/WHO/sources/ICD-10-WHO/",
		MapType:        "SAME-AS",
	}
	if err := both.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	neither := &models.MappingRecord{FromConceptURL: conceptURL(5), MapType: "SAME-AS"}
	if err := neither.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	in, ex, rejected := Classify([]*models.MappingRecord{internal, external, both, neither})
	if len(in) != 2 || in[0] != internal || in[1] != both {
		t.Fatalf("unexpected internal set %v", in)
	}
	if len(ex) != 1 || ex[0] != external {
		t.Fatalf("unexpected external set %v", ex)
	}
	if len(rejected) != 1 || rejected[0].ForeignID != 5 || !errors.Is(rejected[0], ErrMalformedRecord) {
		t.Fatalf("unexpected rejections %v", rejected)
	}
}

func TestSelectMappingsBySourceEndpoint(t *testing.T) {
	records := []*models.MappingRecord{
		internalMapping(t, 1, 2, "Q-AND-A"),
		internalMapping(t, 2, 1, "Q-AND-A"),
		externalMapping(t, 1, "/orgs/WHO/sources/ICD-10-WHO/", "A00", "SAME-AS"),
	}
	got := SelectMappings(records, 1)
	if len(got) != 2 || got[0] != records[0] || got[1] != records[2] {
		t.Fatalf("unexpected selection %v", got)
	}
}

func TestEdgeKindIgnoresCase(t *testing.T) {
	if edgeKindOf("q-and-a") != EdgeAnswer || edgeKindOf(" Concept-Set ") != EdgeSetMember || edgeKindOf("SAME-AS") != EdgeReferenceMap {
		t.Fatal("unexpected edge kind dispatch")
	}
}
