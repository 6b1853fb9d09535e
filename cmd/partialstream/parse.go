package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

func newParseCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Repair a JSON document and print its canonical form",
		Long: `parse reads a possibly truncated or decorated JSON document and prints the
value as canonical JSON. The repair step that produced it is written to
standard error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, report := jsonrepair.ParseWithReport(text)
			for _, err := range report.Errors {
				a.logger.Debug("parse step failed", zap.Error(err))
			}
			if report.Step == jsonrepair.StepNone {
				return fmt.Errorf("no JSON value found: %w", errors.Join(report.Errors...))
			}

			out, err := jsonrepair.Encode(v)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).line(out)
			if !quiet {
				errOut := newPrinter(cmd.ErrOrStderr())
				errOut.label(errOut.dim, "step:", report.Step.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not report the repair step")
	return cmd
}
