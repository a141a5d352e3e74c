package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/jsonl"
	"github.com/synaptica-ai/conceptsync/pkg/common/models"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
)

// openInput opens an export file, "-" meaning stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func newConceptsCmd(cfg *config.Config, root *rootFlags) *cobra.Command {
	var (
		file      string
		conceptID int
	)
	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "Import concepts and write the correspondence table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := runConcepts(cmd, a, file, conceptID)
			printSummary(cmd.OutOrStdout(), root.verbosity, res)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "concept export (JSON lines, - for stdin)")
	cmd.Flags().IntVar(&conceptID, "concept-id", 0, "only import the concept with this foreign id")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newMappingsCmd(cfg *config.Config, root *rootFlags) *cobra.Command {
	var (
		file      string
		conceptID int
	)
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Import mappings using the stored correspondence table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := runMappings(cmd, a, file, conceptID)
			printSummary(cmd.OutOrStdout(), root.verbosity, res)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "mapping export (JSON lines, - for stdin)")
	cmd.Flags().IntVar(&conceptID, "concept-id", 0, "only import mappings whose from concept has this foreign id")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSourcesCmd(cfg *config.Config, root *rootFlags) *cobra.Command {
	var (
		file     string
		sourceID int
	)
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Import reference sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := runSources(cmd, a, file, sourceID)
			printSummary(cmd.OutOrStdout(), root.verbosity, res)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "source export (JSON lines, - for stdin)")
	cmd.Flags().IntVar(&sourceID, "source-id", 0, "only import the source with this foreign id")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newSyncCmd runs every phase it has a file for, in dependency order.
func newSyncCmd(cfg *config.Config, root *rootFlags) *cobra.Command {
	var sources, concepts, mappings string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import sources, concepts and mappings in one run",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if sources == "" && concepts == "" && mappings == "" {
				return fmt.Errorf("at least one of --sources, --concepts or --mappings is required")
			}
			if countStdin(sources, concepts, mappings) > 1 {
				return fmt.Errorf("only one export can be read from stdin")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			steps := []struct {
				file string
				run  func(*cobra.Command, *app, string, int) (pipeline.Result, error)
			}{
				{sources, runSources},
				{concepts, runConcepts},
				{mappings, runMappings},
			}
			for _, step := range steps {
				if step.file == "" {
					continue
				}
				res, err := step.run(cmd, a, step.file, 0)
				printSummary(cmd.OutOrStdout(), root.verbosity, res)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sources, "sources", "", "source export")
	cmd.Flags().StringVar(&concepts, "concepts", "", "concept export")
	cmd.Flags().StringVar(&mappings, "mappings", "", "mapping export")
	return cmd
}

func countStdin(paths ...string) int {
	n := 0
	for _, p := range paths {
		if p == "-" {
			n++
		}
	}
	return n
}

func runSources(cmd *cobra.Command, a *app, file string, sourceID int) (pipeline.Result, error) {
	in, err := openInput(file)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer in.Close()
	return a.runner.Sources(cmd.Context(), jsonl.NewReader[models.SourceRecord](in), sourceID)
}

func runConcepts(cmd *cobra.Command, a *app, file string, conceptID int) (pipeline.Result, error) {
	in, err := openInput(file)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer in.Close()
	return a.runner.Concepts(cmd.Context(), jsonl.NewReader[models.ConceptRecord](in), conceptID)
}

func runMappings(cmd *cobra.Command, a *app, file string, conceptID int) (pipeline.Result, error) {
	in, err := openInput(file)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer in.Close()
	return a.runner.Mappings(cmd.Context(), jsonl.NewReader[models.MappingRecord](in), conceptID)
}
