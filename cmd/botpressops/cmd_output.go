package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/yaegashi/botpressops/usecase/stack"
)

func newCmdOutput() *cobra.Command {
	var jsonOut bool
	c := &cobra.Command{
		Use:   "output [name]",
		Short: "Print the stack exports recorded by the last up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			out, err := e.uc.Outputs(cmd.Context(), &stack.OutputsInput{Stack: e.stack})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				name := args[0]
				if v, ok := out.Values[name]; ok {
					fmt.Fprintln(w, v)
					return nil
				}
				if slices.Contains(out.Pending, name) {
					return fmt.Errorf("output %s is not known yet; run up", name)
				}
				return fmt.Errorf("unknown output %q", name)
			}
			if jsonOut {
				return writeJSON(w, out)
			}
			writeExports(w, out.Values, out.Pending, sortedKeys(out.Values))
			return nil
		},
	}
	c.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return c
}
