package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/internal/logger"
	"github.com/comalice/hsm/internal/production"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print version, settings and the transition table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "doorctl %s (built %s)\n\n", version, buildDate)

		settings, err := openStore(logger.For(logger.ComponentSettings)).Load()
		if err != nil {
			fmt.Fprintf(w, "settings: %v, showing defaults\n", err)
			settings = production.DefaultSettings()
		}
		printSettings(w, settings)
		fmt.Fprintln(w)

		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"From", "Event", "To"})
		for _, t := range door.Transitions() {
			evt := t.Event.String()
			if t.Timer {
				evt = "(open timer)"
			}
			table.Append([]string{t.From.String(), evt, t.To.String()})
		}
		table.Render()
		return nil
	},
}
