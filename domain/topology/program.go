package topology

import (
	"context"
	"fmt"

	"github.com/yaegashi/botpressops/domain/graph"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
	"github.com/yaegashi/botpressops/internal/logging"
)

// Export names.
const (
	ExportIngressAddress     = "ingressAddress"
	ExportExternalURL        = "externalUrl"
	ExportLangServerEndpoint = "langServerEndpoint"
)

// ClusterConfig describes the compute cluster.
type ClusterConfig struct {
	Name     string
	Provider string
	Region   string
	Version  string
	NodePool model.NodePool
	Existing bool
	Settings map[string]string
}

// WorkloadConfig describes one Botpress workload.
type WorkloadConfig struct {
	Image        string
	Tag          string
	Replicas     int32
	Storage      string
	StorageClass string
}

// Config is the full input of Build.
type Config struct {
	Stack       string
	Cluster     ClusterConfig
	Namespace   string
	Ingress     IngressOptions
	LangServer  WorkloadConfig
	MainServer  WorkloadConfig
	StorageMode StorageMode
	Database    DatabaseArgs
	Pool        PoolSizing
	Domain      string
}

// Stack is a declared deployment.
type Stack struct {
	Name         string
	Graph        *graph.Graph
	Shared       *Shared
	Cluster      *model.Cluster
	Namespace    *model.Namespace
	LangServer   *LangServer
	MainServer   *MainServer
	DomainRecord *model.DomainRecord
	Exports      map[string]output.Output[string]
}

// Build declares the stack in fixed order: cluster, namespace, LangServer,
// MainServer, exports and the optional domain record.
func Build(ctx context.Context, cfg Config) (*Stack, error) {
	g := graph.New()

	cluster := model.NewCluster(cfg.Cluster.Name)
	cluster.Provider = cfg.Cluster.Provider
	cluster.Region = cfg.Cluster.Region
	cluster.Version = cfg.Cluster.Version
	cluster.NodePool = cfg.Cluster.NodePool
	cluster.Existing = cfg.Cluster.Existing
	for k, v := range cfg.Cluster.Settings {
		cluster.Settings[k] = v
	}
	if _, err := g.Add(cluster); err != nil {
		return nil, fmt.Errorf("declare cluster: %w", err)
	}

	shared := NewShared(g, cluster, cfg.Ingress)

	ns := model.NewNamespace(cfg.Namespace)
	if _, err := g.Add(ns, cluster); err != nil {
		return nil, fmt.Errorf("declare namespace: %w", err)
	}

	lang, err := NewLangServer(shared, LangServerArgs{
		Namespace:    ns,
		Image:        cfg.LangServer.Image,
		Tag:          cfg.LangServer.Tag,
		Replicas:     cfg.LangServer.Replicas,
		Storage:      cfg.LangServer.Storage,
		StorageClass: cfg.LangServer.StorageClass,
	})
	if err != nil {
		return nil, fmt.Errorf("lang server: %w", err)
	}
	langEndpoint, err := lang.ServiceEndpoint()
	if err != nil {
		return nil, fmt.Errorf("lang server: %w", err)
	}

	main, err := NewMainServer(ctx, shared, MainServerArgs{
		Namespace:          ns,
		Image:              cfg.MainServer.Image,
		Tag:                cfg.MainServer.Tag,
		Replicas:           cfg.MainServer.Replicas,
		Storage:            cfg.MainServer.Storage,
		StorageClass:       cfg.MainServer.StorageClass,
		StorageMode:        cfg.StorageMode,
		LangServerEndpoint: langEndpoint,
		Domain:             cfg.Domain,
		Database:           cfg.Database,
		Pool:               cfg.Pool,
	})
	if err != nil {
		return nil, fmt.Errorf("main server: %w", err)
	}

	addr, err := shared.IngressAddress()
	if err != nil {
		return nil, err
	}
	st := &Stack{
		Name:       cfg.Stack,
		Graph:      g,
		Shared:     shared,
		Cluster:    cluster,
		Namespace:  ns,
		LangServer: lang,
		MainServer: main,
		Exports: map[string]output.Output[string]{
			ExportIngressAddress:     addr,
			ExportLangServerEndpoint: langEndpoint,
		},
	}
	if w, err := main.App().Deployment(); err == nil {
		if v, ok := w.Env("EXTERNAL_URL"); ok {
			st.Exports[ExportExternalURL] = v
		}
	}

	if cfg.Domain != "" {
		rec := model.NewDomainRecord(cluster, cfg.Domain, addr)
		if _, err := g.Add(rec); err != nil {
			return nil, fmt.Errorf("declare domain record: %w", err)
		}
		st.DomainRecord = rec
	}

	logging.FromContext(ctx).Debug(ctx, "stack declared", "stack", cfg.Stack, "resources", g.Len())
	return st, nil
}
