package bpopscfg

import (
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/topology"
)

// Defaults applied by ToConfig.
const (
	DefaultNamespace       = "apps"
	DefaultImage           = "botpress/server"
	DefaultTag             = "v12_30_7"
	DefaultLangStorage     = "5Gi"
	DefaultMainStorage     = "1Gi"
	DefaultDatabaseVersion = "16"
	DefaultDatabaseSize    = "Standard_D2ds_v4"
	DefaultDatabaseStorage = 32
	DefaultDatabaseName    = "botpress"
	DefaultPoolMode        = "transaction"
	DefaultPoolSize        = 20
	DefaultPoolMin         = 2
	DefaultPoolMax         = 5
)

// StorageMode returns the configured mode, or database when a database
// section is present and disk otherwise.
func (r *Root) StorageMode() topology.StorageMode {
	if r.MainServer.StorageMode != "" {
		return topology.StorageMode(r.MainServer.StorageMode)
	}
	if r.Database != nil {
		return topology.StorageModeDatabase
	}
	return topology.StorageModeDisk
}

// ToConfig converts the configuration into the input of topology.Build with
// defaults filled in.
func (r *Root) ToConfig() topology.Config {
	ingress := topology.DefaultIngressOptions()
	ingress.Version = r.Cluster.Ingress.ChartVersion

	cfg := topology.Config{
		Stack: r.Stack,
		Cluster: topology.ClusterConfig{
			Name:     r.Cluster.Name,
			Provider: r.Provider.Driver,
			Region:   r.Cluster.Region,
			Version:  r.Cluster.Version,
			NodePool: model.NodePool{Name: r.Cluster.NodePool.Name, Size: r.Cluster.NodePool.Size, Count: r.Cluster.NodePool.Count},
			Existing: r.Cluster.Existing,
			Settings: r.Cluster.Settings,
		},
		Namespace:   withDefault(r.Namespace, DefaultNamespace),
		Ingress:     ingress,
		LangServer:  r.LangServer.toConfig(DefaultLangStorage),
		MainServer:  r.MainServer.Workload.toConfig(DefaultMainStorage),
		StorageMode: r.StorageMode(),
		Domain:      r.Domain,
	}

	var db Database
	if r.Database != nil {
		db = *r.Database
	}
	cfg.Database = topology.DatabaseArgs{
		Name:      withDefault(db.Name, r.Stack+"-db"),
		Version:   withDefault(db.Version, DefaultDatabaseVersion),
		Size:      withDefault(db.Size, DefaultDatabaseSize),
		NodeCount: max(db.NodeCount, 1),
		StorageGB: db.StorageGB,
		Region:    withDefault(db.Region, r.Cluster.Region),
		DBName:    withDefault(db.DBName, DefaultDatabaseName),
		PoolMode:  withDefault(db.Pool.Mode, DefaultPoolMode),
		PoolSize:  db.Pool.Size,
	}
	if cfg.Database.StorageGB == 0 {
		cfg.Database.StorageGB = DefaultDatabaseStorage
	}
	if cfg.Database.PoolSize == 0 {
		cfg.Database.PoolSize = DefaultPoolSize
	}
	cfg.Pool = topology.PoolSizing{Min: db.Pool.Min, Max: db.Pool.Max}
	if cfg.Pool.Min == 0 {
		cfg.Pool.Min = DefaultPoolMin
	}
	if cfg.Pool.Max == 0 {
		cfg.Pool.Max = max(DefaultPoolMax, cfg.Pool.Min)
	}
	return cfg
}

func (w Workload) toConfig(storage string) topology.WorkloadConfig {
	wc := topology.WorkloadConfig{
		Image:        withDefault(w.Image, DefaultImage),
		Tag:          withDefault(w.Tag, DefaultTag),
		Replicas:     w.Replicas,
		Storage:      withDefault(w.Storage, storage),
		StorageClass: w.StorageClass,
	}
	if wc.Replicas == 0 {
		wc.Replicas = 1
	}
	return wc
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
