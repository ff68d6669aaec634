package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inline-llm/internal/app"
)

func newCacheCmd(build buildFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the answer cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop every cached answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(build, func(deps app.Deps) error {
				n, err := deps.Cache.Purge(cmd.Context())
				if err != nil {
					return fmt.Errorf("purge cache: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached answers\n", n)
				return err
			})
		},
	})
	return cmd
}
