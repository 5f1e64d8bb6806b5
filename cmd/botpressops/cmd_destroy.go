package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaegashi/botpressops/usecase/stack"
)

func newCmdDestroy() *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource recorded for the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if !yes {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				return fmt.Errorf("destroy deletes stack %q and its data; rerun with --yes to confirm", cfg.Stack)
			}
			e, err := buildEnv(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "destroy", e.cfg.Stack)
			defer func() { cleanup(err) }()

			out, err := e.uc.Destroy(ctx, &stack.DestroyInput{Stack: e.stack})
			if out != nil {
				if werr := writeResources(cmd.OutOrStdout(), out.Resources); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return c
}
