package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inline-llm/internal/lineparse"
	"inline-llm/internal/picker"
)

func newPickCmd() *cobra.Command {
	var (
		delim string
		field int
	)
	cmd := &cobra.Command{
		Use:   "pick <file> <query>",
		Short: "Resolve a selection against a file of delimited choices",
		Long: "Resolve a selection against a file of delimited choices. The query may be a key,\n" +
			"a unique key prefix, or a whole line as displayed by a selection UI.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(delim) != 1 || delim[0] == '"' {
				return fmt.Errorf("delimiter must be a single character other than a quote")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := picker.Load(f, delim[0])
			if err != nil {
				return fmt.Errorf("read choices: %w", err)
			}
			choice, err := p.Resolve(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if field < 0 {
				_, err = fmt.Fprintln(out, lineparse.JoinDelimited(choice.Fields, delim[0]))
				return err
			}
			if field >= len(choice.Fields) {
				return fmt.Errorf("choice %q has %d fields", choice.Key, len(choice.Fields))
			}
			_, err = fmt.Fprintln(out, choice.Fields[field])
			return err
		},
	}
	cmd.Flags().StringVarP(&delim, "delimiter", "d", ",", "field delimiter")
	cmd.Flags().IntVar(&field, "field", -1, "print only this zero-based field")
	return cmd
}
