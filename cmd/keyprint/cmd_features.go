package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/features"
)

type featuresOutput struct {
	Source   string            `json:"source" yaml:"source"`
	Events   int               `json:"events" yaml:"events"`
	Features features.Features `json:"features" yaml:"features"`
}

func newFeaturesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "features <events.json>",
		Short: "Summarise a saved capture as dwell and flight statistics",
		Long: `Reads a capture file (a JSON array of {key, t, type} events, or an object
with an "events" array such as a saved payload) and prints its dwell and
flight time statistics in milliseconds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}

			events, err := capture.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := featuresOutput{
				Source:   args[0],
				Events:   len(events),
				Features: features.Extract(events),
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, out)
			}

			f := out.Features
			row := func(name string, s features.Stats) []string {
				return []string{name, ms(s.Mean), ms(s.Std), ms(s.Min), ms(s.Max)}
			}
			if err := renderTable(cmd.OutOrStdout(),
				[]string{"", "mean", "std", "min", "max"},
				[][]string{row("dwell", f.Dwell), row("flight", f.Flight)},
			); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d events, %d key presses matched\n", out.Events, f.NKeys)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table|json|yaml")
	return cmd
}

func ms(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
