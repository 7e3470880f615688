package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/meet2video/internal/emit"
)

func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect PROJECT",
		Short: "Summarize a YAML project document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := emit.ReadProject(args[0])
			if err != nil {
				return fmt.Errorf("read project: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (version %s)\n", p.Name, p.Version)
			fmt.Fprintf(out, "frame %dx%d, duration %v\n\n", p.Width, p.Height, time.Duration(p.Duration))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Z\tTRACK\tTYPE\tCLIPS\tCONTENT\tFILLS")
			for _, t := range p.Tracks {
				var fills int
				for _, c := range t.Clips {
					if c.Fill != "" {
						fills++
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n", t.ZOrder, t.Name, t.Type, len(t.Clips), len(t.Clips)-fills, fills)
			}
			return tw.Flush()
		},
	}
}
