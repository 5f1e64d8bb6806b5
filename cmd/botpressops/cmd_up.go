package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/yaegashi/botpressops/usecase/stack"
)

func newCmdUp() *cobra.Command {
	var parallel int
	var jsonOut bool
	c := &cobra.Command{
		Use:   "up",
		Short: "Create or update the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := buildEnv(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "up", e.cfg.Stack)
			defer func() { cleanup(err) }()

			out, err := e.uc.Up(ctx, &stack.UpInput{Stack: e.stack, Parallel: parallel})
			if out != nil {
				w := cmd.OutOrStdout()
				if jsonOut {
					if werr := writeJSON(w, out); werr != nil {
						return werr
					}
				} else {
					if werr := writeResources(w, out.Resources); werr != nil {
						return werr
					}
					fmt.Fprintln(w)
					writeExports(w, out.Exports, out.Pending, sortedKeys(out.Exports))
				}
			}
			return err
		},
	}
	c.Flags().IntVar(&parallel, "parallel", 4, "Maximum number of resources applied concurrently")
	c.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return c
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
