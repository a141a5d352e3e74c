package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
)

// printSummary writes the per-phase counts. Verbosity 0 prints nothing and
// 2 and above also lists each failed record.
func printSummary(w io.Writer, verbosity int, res pipeline.Result) {
	if verbosity < 1 || res.Phase == "" {
		return
	}
	s := res.Stats
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\t(run %s, %s)\n", res.Phase, res.RunID, res.Elapsed.Round(1e6))
	row := func(label string, v int) {
		fmt.Fprintf(tw, "  %s\t%d\n", label, v)
	}
	row("processed", s.Processed)
	row("filtered", s.Filtered)

	switch res.Phase {
	case dictionary.PhaseSources:
		row("sources created", s.SourcesCreated)
		row("sources existing", s.SourcesExisting)
	case dictionary.PhaseConcepts:
		row("concepts created", s.ConceptsCreated)
		row("concepts reused", s.ConceptsReused)
		row("classes created", s.ClassesCreated)
		row("datatypes created", s.DatatypesCreated)
		row("names created", s.NamesCreated)
		row("names existing", s.NamesExisting)
		row("descriptions created", s.DescriptionsCreated)
		row("descriptions existing", s.DescriptionsExisting)
		row("numeric ranges created", s.NumericsCreated)
		row("numeric ranges existing", s.NumericsExisting)
		row("correspondence entries", res.Entries)
	case dictionary.PhaseMappings:
		row("internal mappings", s.InternalMappings)
		row("external mappings", s.ExternalMappings)
		edges := func(label string, e dictionary.EdgeCounts) {
			fmt.Fprintf(tw, "  %s\t%d created, %d duplicate, %d self\n", label, e.Created, e.Duplicate, e.SelfMapping)
		}
		edges("set members", s.SetMembers)
		edges("answers", s.Answers)
		edges("internal reference maps", s.InternalRefMaps)
		edges("external reference maps", s.ExternalRefMaps)
		row("reference terms created", s.TermsCreated)
		row("map types created", s.MapTypesCreated)
	}

	row("failed", s.Failed())
	for _, kind := range s.ErrorKinds() {
		fmt.Fprintf(tw, "    %s\t%d\n", kind, s.Errors[kind])
	}
	if verbosity >= 2 {
		for _, f := range s.Failures {
			fmt.Fprintf(tw, "    ! id=%d line=%d\t%s: %s\n", f.ForeignID, f.Line, f.Kind, f.Message)
		}
	}
}
