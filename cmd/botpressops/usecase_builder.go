package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	providerdrv "github.com/yaegashi/botpressops/adapters/drivers/provider"
	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/adapters/store/inmem"
	"github.com/yaegashi/botpressops/adapters/store/rdb"
	"github.com/yaegashi/botpressops/config/bpopscfg"
	"github.com/yaegashi/botpressops/domain"
	"github.com/yaegashi/botpressops/domain/topology"
	"github.com/yaegashi/botpressops/usecase/stack"
)

// findFlag looks a flag up on the command and its parents.
func findFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

func flagValue(cmd *cobra.Command, name string) string {
	if f := findFlag(cmd, name); f != nil {
		return f.Value.String()
	}
	return ""
}

func loadConfig(cmd *cobra.Command) (*bpopscfg.Root, error) {
	path := flagValue(cmd, "config")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := bpopscfg.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// buildStateRepository opens the state store named by --state-url.
func buildStateRepository(cmd *cobra.Command) (domain.ResourceStateRepository, error) {
	url := flagValue(cmd, "state-url")
	switch {
	case url == "mem:" || url == "memory:":
		return inmem.NewResourceRepository(), nil
	case strings.HasPrefix(url, "sqlite:") || strings.HasPrefix(url, "sqlite3:"):
		db, err := rdb.OpenFromURL(url)
		if err != nil {
			return nil, err
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate state db: %w", err)
		}
		return rdb.NewResourceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported state url: %q", url)
	}
}

// env bundles what every stack command needs.
type env struct {
	cfg   *bpopscfg.Root
	uc    *stack.UseCase
	stack *topology.Stack
}

// buildEnv loads the configuration, declares the stack and wires the use case.
func buildEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	st, err := topology.Build(ctx, cfg.ToConfig())
	if err != nil {
		return nil, fmt.Errorf("declare stack: %w", err)
	}
	repo, err := buildStateRepository(cmd)
	if err != nil {
		return nil, err
	}
	drv, err := providerdrv.New(cfg.Provider.Driver, cfg.Stack, cfg.Provider.Settings)
	if err != nil {
		return nil, err
	}
	uc := &stack.UseCase{
		State:       repo,
		Provider:    drv,
		KubeFactory: kube.NewPortFactory(&kube.Options{UserAgent: "botpressops/" + version}, drv.IngressMutators()...),
	}
	return &env{cfg: cfg, uc: uc, stack: st}, nil
}
