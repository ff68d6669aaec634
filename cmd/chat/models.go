package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inline-llm/internal/app"
	"inline-llm/internal/picker"
)

func newModelsCmd(build buildFunc) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models as provider,model lines for a picker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(build, func(deps app.Deps) error {
				out := cmd.OutOrStdout()
				if provider != "" {
					client, err := deps.LLMs.Get(provider)
					if err != nil {
						return err
					}
					models, err := client.Models(cmd.Context())
					if err != nil {
						return fmt.Errorf("list %s models: %w", provider, err)
					}
					for _, m := range models {
						fmt.Fprintln(out, picker.ModelChoice{Provider: provider, Model: m}.Line())
					}
					return nil
				}

				listings, err := deps.LLMs.AllModels(cmd.Context())
				if err != nil {
					return err
				}
				for _, l := range listings {
					if l.Err != nil {
						deps.Log.Warn("skipping provider", "provider", l.Provider, "err", l.Err)
						continue
					}
					for _, m := range l.Models {
						fmt.Fprintln(out, picker.ModelChoice{Provider: l.Provider, Model: m}.Line())
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "list a single provider")
	return cmd
}
