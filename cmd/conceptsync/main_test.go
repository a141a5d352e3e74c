package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
)

func TestSyncRequiresAnExport(t *testing.T) {
	logger.SetOutput(io.Discard)
	cmd := newRootCmd(config.Load())
	cmd.SetArgs([]string{"sync"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "at least one of") {
		t.Fatalf("expected missing export error, got %v", err)
	}
}

func TestSyncRejectsTwoStdinExports(t *testing.T) {
	logger.SetOutput(io.Discard)
	cmd := newRootCmd(config.Load())
	cmd.SetArgs([]string{"sync", "--concepts", "-", "--mappings", "-"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "stdin") {
		t.Fatalf("expected stdin error, got %v", err)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := config.Load()
	cmd := newRootCmd(cfg)
	if err := cmd.ParseFlags([]string{"--keys", "/tmp/keys.json", "--strict-map-types", "--creator", "7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.CorrespondencePath != "/tmp/keys.json" || !cfg.StrictMapTypes || cfg.CreatorID != 7 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestPrintSummary(t *testing.T) {
	res := pipeline.Result{
		RunID:   "run-1",
		Phase:   dictionary.PhaseMappings,
		Elapsed: 1500 * time.Millisecond,
		Stats: dictionary.Stats{
			Processed:  3,
			SetMembers: dictionary.EdgeCounts{Created: 1, SelfMapping: 1},
			Errors:     map[dictionary.ErrorKind]int{dictionary.KindMissingCorrespondence: 1},
			Failures: []dictionary.Failure{{
				Phase: dictionary.PhaseMappings, ForeignID: 42, Line: 3,
				Kind: dictionary.KindMissingCorrespondence, Message: "no local concept for 42",
			}},
		},
	}

	var quiet bytes.Buffer
	printSummary(&quiet, 0, res)
	if quiet.Len() != 0 {
		t.Fatalf("verbosity 0 should print nothing, got %q", quiet.String())
	}

	var summary bytes.Buffer
	printSummary(&summary, 1, res)
	out := summary.String()
	for _, want := range []string{"mappings", "run-1", "1 created, 0 duplicate, 1 self", "missing_correspondence"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "no local concept") {
		t.Fatalf("failures should only be listed at verbosity 2:\n%s", out)
	}

	var debug bytes.Buffer
	printSummary(&debug, 2, res)
	if !strings.Contains(debug.String(), "id=42 line=3") {
		t.Fatalf("expected failure listing:\n%s", debug.String())
	}
}

func TestOpenInputMissingFile(t *testing.T) {
	if _, err := openInput(t.TempDir() + "/absent.jsonl"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
