package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inline-llm/internal/app"
	"inline-llm/internal/attach"
	"inline-llm/internal/chunker"
	"inline-llm/internal/picker"
	"inline-llm/internal/pipeline"
	"inline-llm/internal/streamsync"
	"inline-llm/internal/surface"
)

func newAskCmd(build buildFunc) *cobra.Command {
	var (
		provider  string
		model     string
		files     []string
		session   string
		noFollow  bool
		noCache   bool
		clearSeq  string
		showStats bool
	)
	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Ask a question and stream the answer",
		Long:  "Ask a question and stream the answer. A prompt of \"-\" is read from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = string(b)
			}
			var sessionID uuid.UUID
			if session != "" {
				id, err := uuid.Parse(session)
				if err != nil {
					return fmt.Errorf("invalid session id: %w", err)
				}
				sessionID = id
			}
			atts, err := attach.LoadAll(files)
			if err != nil {
				return fmt.Errorf("load attachments: %w", err)
			}

			return withDeps(build, func(deps app.Deps) error {
				resolvedProvider, resolvedModel, err := resolveModel(deps, provider, model)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				syncer := streamsync.NewSyncer(
					surface.NewWriter(out, surface.WithClearSequence(clearSeq)),
					deps.Config.Follow && !noFollow,
				)
				res, err := deps.Pipeline.Run(cmd.Context(), pipeline.Request{
					Provider:    resolvedProvider,
					Model:       resolvedModel,
					Prompt:      prompt,
					SessionID:   sessionID,
					Attachments: atts,
					NoCache:     noCache,
				}, syncer)
				fmt.Fprintln(out)
				if err != nil {
					return err
				}
				if showStats {
					errOut := cmd.ErrOrStderr()
					fmt.Fprintf(errOut, "model=%s cached=%t tokens=%d appends=%d resets=%d\n",
						res.Model, res.Cached, chunker.CountTokens(res.Text), res.Stats.Appends, res.Stats.Resets)
					if res.SessionID != uuid.Nil {
						fmt.Fprintf(errOut, "session=%s\n", res.SessionID)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider name (default LLM_PROVIDER)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name, or a provider,model line from 'chat models' (default: provider default)")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "attach a file as context (repeatable)")
	cmd.Flags().StringVarP(&session, "session", "s", "", "continue a stored session")
	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "do not move the cursor with the answer")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the answer cache")
	cmd.Flags().StringVar(&clearSeq, "clear-sequence", surface.ClearScreen, "sequence written when the answer is redrawn")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print stream statistics to stderr")
	return cmd
}

// resolveModel accepts --model as a bare model name or as a choice printed by
// the models command ("provider,model" or "provider/model"). The slash form
// is only read as a choice when no provider is given and the part before the
// slash names a registered provider, since model ids may contain slashes.
func resolveModel(deps app.Deps, provider, model string) (string, string, error) {
	asChoice := strings.Contains(model, ",")
	if !asChoice && provider == "" {
		if prefix, _, ok := strings.Cut(model, "/"); ok {
			_, err := deps.LLMs.Get(prefix)
			asChoice = err == nil
		}
	}
	if !asChoice {
		if provider == "" {
			provider = deps.Config.LLMProvider
		}
		return provider, model, nil
	}

	mc, err := picker.ParseModelChoice(model)
	if err != nil {
		return "", "", err
	}
	if provider != "" && provider != mc.Provider {
		return "", "", fmt.Errorf("--provider %s conflicts with model choice for %s", provider, mc.Provider)
	}
	return mc.Provider, mc.Model, nil
}
