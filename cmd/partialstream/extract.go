package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

func parseStrategy(s string) (jsonrepair.Strategy, error) {
	for _, st := range []jsonrepair.Strategy{jsonrepair.StopOnFirst, jsonrepair.StopOnLast, jsonrepair.ParseAll} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (want first, last or all)", s)
}

func newExtractCmd(a *app) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "List the JSON fragments embedded in text",
		Long: `extract finds JSON objects and arrays in prose or markdown, repairs each
one and prints it with its byte offsets.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			fragments := jsonrepair.Extract(text, st)
			for _, f := range fragments {
				out, err := jsonrepair.Encode(f.Value)
				if err != nil {
					return err
				}
				p.label(p.dim, fmt.Sprintf("%d..%d", f.StartIndex, f.EndIndex), out)
			}
			if len(fragments) == 0 {
				return fmt.Errorf("no JSON fragments found")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "all", "Fragments to keep: first, last or all")
	return cmd
}
