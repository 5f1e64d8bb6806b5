package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaegashi/botpressops/usecase/stack"
)

func newCmdPreview() *cobra.Command {
	var manifests, jsonOut bool
	c := &cobra.Command{
		Use:   "preview",
		Short: "Show what up would change without applying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := buildEnv(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "preview", e.cfg.Stack)
			defer func() { cleanup(err) }()

			out, err := e.uc.Preview(ctx, &stack.PreviewInput{Stack: e.stack, Manifests: manifests})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(w, out)
			}
			if err := writeResources(w, out.Resources); err != nil {
				return err
			}
			if out.Manifest != "" {
				fmt.Fprintln(w)
				fmt.Fprint(w, out.Manifest)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&manifests, "manifests", false, "Render the Kubernetes manifests")
	c.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return c
}
