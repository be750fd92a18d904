package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/deck"
	"github.com/zeusync/xiuli/internal/core/placement"
	"github.com/zeusync/xiuli/pkg/mat4"
)

type layoutEntry struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Local string `json:"local"`
	World string `json:"world"`
}

func newLayoutCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layout <deck>",
		Short: "Print the container transform that shows each slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := computeLayout(args[0], root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tID\tWORLD")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\n", e.Index, e.ID, e.World)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func computeLayout(path string, root *rootOptions) ([]layoutEntry, error) {
	d, err := deck.LoadFile(path)
	if err != nil {
		return nil, err
	}
	slides, err := d.Resolve()
	if err != nil {
		return nil, err
	}

	engine, err := d.Mount(placement.NewSliceContainer(mat4.Identity()), placement.WithLogger(root.logger()))
	if err != nil {
		return nil, err
	}

	entries := make([]layoutEntry, 0, len(slides))
	for i, s := range slides {
		world, _ := engine.WorldTransform(s.ID)
		entries = append(entries, layoutEntry{
			ID:    s.ID,
			Index: i,
			Local: css.FormatTransform(s.Transform),
			World: css.FormatTransform(world),
		})
	}
	return entries, nil
}
