package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/presets"
)

func newPresetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset [name count]",
		Short: "List presets, or print the local transforms a preset gives count slides",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 args, received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range presets.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			gen, err := presets.Lookup(args[0])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}
			transforms, err := presets.Layout(gen, count)
			if err != nil {
				return err
			}
			for i, m := range transforms {
				fmt.Fprintf(out, "%d\t%s\n", i, css.FormatTransform(m))
			}
			return nil
		},
	}
}
