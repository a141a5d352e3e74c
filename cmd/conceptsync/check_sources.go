package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/registry"
)

// newCheckSourcesCmd verifies that every active reference source in the store
// is known to the concept registry. It exits non-zero if any is not.
func newCheckSourcesCmd(cfg *config.Config, root *rootFlags) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "check-sources",
		Short: "Check the store's reference sources against the concept registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			active, err := a.repo.ActiveSources(cmd.Context())
			if err != nil {
				return fmt.Errorf("list reference sources: %w", err)
			}
			names := make([]string, 0, len(active))
			for _, src := range active {
				names = append(names, src.Name)
			}

			checker, err := registry.NewChecker(registry.Options{
				Env:     cfg.RegistryEnv,
				BaseURL: baseURL,
				Token:   cfg.RegistryToken,
				Timeout: cfg.RegistryTimeout,
				Catalog: a.catalog,
			})
			if err != nil {
				return err
			}

			results, err := checker.Check(cmd.Context(), names)
			if root.verbosity >= 1 {
				out := cmd.OutOrStdout()
				for _, res := range results {
					switch {
					case res.Err != nil:
						fmt.Fprintf(out, "FAIL  %s: %v\n", res.StoreName, res.Err)
					case res.Checked:
						fmt.Fprintf(out, "ok    %s -> %s\n", res.StoreName, res.URL)
					default:
						fmt.Fprintf(out, "skip  %s -> %s\n", res.StoreName, res.URL)
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.RegistryEnv, "env", cfg.RegistryEnv, "registry environment: dev, staging or production")
	cmd.Flags().StringVar(&cfg.RegistryToken, "token", cfg.RegistryToken, "registry API token")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "registry base URL, overrides --env")
	return cmd
}
