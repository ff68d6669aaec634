package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"inline-llm/internal/app"
)

// buildFunc assembles dependencies on demand so commands that need none
// (pick) run without a configured environment.
type buildFunc func() (app.Deps, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(func() (app.Deps, error) {
		return app.BuildWithLogOutput(os.Stderr)
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}
}

func newRootCmd(build buildFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "chat",
		Short:         "Stream LLM answers into the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newAskCmd(build))
	root.AddCommand(newModelsCmd(build))
	root.AddCommand(newPickCmd())
	root.AddCommand(newSessionsCmd(build))
	root.AddCommand(newCacheCmd(build))

	return root
}

func withDeps(build buildFunc, fn func(app.Deps) error) error {
	deps, err := build()
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("close dependencies", "err", err)
		}
	}()
	return fn(deps)
}
