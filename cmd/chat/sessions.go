package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inline-llm/internal/app"
)

var errNoStore = errors.New("transcripts are disabled (set STORE_PROVIDER)")

func newSessionsCmd(build buildFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(build, func(deps app.Deps) error {
				if deps.Store == nil {
					return errNoStore
				}
				sessions, err := deps.Store.ListSessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range sessions {
					fmt.Fprintf(out, "%s\t%s\t%s/%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Provider, s.Model)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to list")
	cmd.AddCommand(newSessionsShowCmd(build))
	return cmd
}

func newSessionsShowCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id: %w", err)
			}
			return withDeps(build, func(deps app.Deps) error {
				if deps.Store == nil {
					return errNoStore
				}
				msgs, err := deps.Store.ListMessages(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range msgs {
					fmt.Fprintf(out, "[%s]\n%s\n\n", m.Role, m.Content)
				}
				return nil
			})
		},
	}
}
