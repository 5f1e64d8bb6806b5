package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaegashi/botpressops/domain/topology"
	"sigs.k8s.io/yaml"
)

func newCmdConfig() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCmdConfigValidate())
	c.AddCommand(newCmdConfigShow())
	return c
}

// newCmdConfigValidate loads and validates the configuration and declares the
// stack without contacting any provider.
func newCmdConfigValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate botpressops.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := topology.Build(cmd.Context(), cfg.ToConfig())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stack=%s provider=%s cluster=%s storageMode=%s resources=%d\n",
				cfg.Stack, cfg.Provider.Driver, cfg.Cluster.Name, cfg.StorageMode(), st.Graph.Len())
			return nil
		},
	}
}

// newCmdConfigShow prints the effective configuration with defaults applied.
func newCmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(cfg.ToConfig())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
