package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/internal/production"
)

var dotCtx struct {
	format  string
	current string
}

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "export the state diagram",
	Long: `
Prints the door control transition table as Graphviz DOT source, or as JSON
with --format=json. Render with: doorctl dot | dot -Tsvg > doors.svg
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current := door.StateNone
		if dotCtx.current != "" {
			s, ok := door.ParseState(dotCtx.current)
			if !ok {
				return errors.Newf("unknown state %q", dotCtx.current)
			}
			current = s
		}

		switch dotCtx.format {
		case "dot":
			fmt.Fprint(cmd.OutOrStdout(), production.ExportDOT(door.Transitions(), current))
		case "json":
			data, err := production.ExportJSON(door.Transitions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		default:
			return errors.Newf("unknown format %q", dotCtx.format)
		}
		return nil
	},
}
