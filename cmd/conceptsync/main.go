package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
)

func main() {
	logger.Init()
	logger.SetOutput(os.Stderr)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	verbosity int
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "conceptsync",
		Short:         "Import a concept dictionary export into an OpenMRS terminology store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbosity(flags.verbosity)
		},
	}

	pf := cmd.PersistentFlags()
	pf.IntVarP(&flags.verbosity, "verbosity", "v", 1, "0: errors only, 1: summary, 2: debug")
	pf.StringVar(&cfg.CorrespondencePath, "keys", cfg.CorrespondencePath, "correspondence table file (file store only)")
	pf.StringVar(&cfg.CorrespondenceStore, "keys-store", cfg.CorrespondenceStore, "correspondence store: file or redis")
	pf.BoolVar(&cfg.StrictMapTypes, "strict-map-types", cfg.StrictMapTypes, "fail mappings whose map type is not in the store")
	pf.BoolVar(&cfg.PreferForeignIDs, "prefer-foreign-ids", cfg.PreferForeignIDs, "reuse the foreign id for new concepts when it is free")
	pf.IntVar(&cfg.CreatorID, "creator", cfg.CreatorID, "user id recorded as creator of new rows")
	pf.StringVar(&cfg.SourceDirectoryPath, "source-directory", cfg.SourceDirectoryPath, "YAML file extending the built-in source directory")
	pf.BoolVar(&cfg.RecordRuns, "record-runs", cfg.RecordRuns, "write each run to the run ledger table")

	cmd.AddCommand(
		newSourcesCmd(cfg, flags),
		newConceptsCmd(cfg, flags),
		newMappingsCmd(cfg, flags),
		newSyncCmd(cfg, flags),
		newCheckSourcesCmd(cfg, flags),
		newServeCmd(cfg),
	)
	return cmd
}
