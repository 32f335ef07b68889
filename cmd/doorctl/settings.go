package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/internal/logger"
	"github.com/comalice/hsm/internal/production"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "inspect or reset the settings file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the stored settings after verifying the checksum",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := openStore(logger.For(logger.ComponentSettings)).Load()
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "write the factory settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore(logger.For(logger.ComponentSettings))
		if err := store.Save(production.DefaultSettings()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote defaults to %s\n", store.Path())
		return nil
	},
}

func printSettings(w io.Writer, s production.Settings) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Setting", "Value"})
	table.Append([]string{"Door unlock timeout", fmt.Sprintf("%d s", s.UnlockTimeoutS)})
	table.Append([]string{"Door open timeout", fmt.Sprintf("%d min", s.OpenTimeoutMin)})
	table.Append([]string{"Led blink interval", fmt.Sprintf("%d ms", s.BlinkIntervalMs)})
	for i, ms := range s.DebounceMs {
		table.Append([]string{"Debounce delay " + hal.Input(i).String(), fmt.Sprintf("%d ms", ms)})
	}
	table.Append([]string{"Checksum", fmt.Sprintf("%#016x", s.Checksum)})
	table.Render()
}
