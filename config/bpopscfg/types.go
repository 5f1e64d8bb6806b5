// Package bpopscfg defines the configuration schema for botpressops.yml.
package bpopscfg

// Root is the root structure of botpressops.yml.
type Root struct {
	Version    string     `yaml:"version"`
	Stack      string     `yaml:"stack"`     // RFC1123-compliant DNS label
	Provider   Provider   `yaml:"provider"`
	Cluster    Cluster    `yaml:"cluster"`
	Namespace  string     `yaml:"namespace"` // application namespace, default "apps"
	Domain     string     `yaml:"domain,omitempty"`
	LangServer Workload   `yaml:"langServer"`
	MainServer MainServer `yaml:"mainServer"`
	Database   *Database  `yaml:"database,omitempty"`
}

// Provider selects the driver and its settings.
type Provider struct {
	Driver   string            `yaml:"driver"`   // "aks" or "k3s"
	Settings map[string]string `yaml:"settings"` // ${VAR} references are expanded
}

// Cluster represents the compute cluster.
type Cluster struct {
	Name     string            `yaml:"name"`
	Region   string            `yaml:"region,omitempty"`
	Version  string            `yaml:"version,omitempty"` // Kubernetes version
	Existing bool              `yaml:"existing,omitempty"`
	NodePool NodePool          `yaml:"nodePool,omitempty"`
	Ingress  Ingress           `yaml:"ingress,omitempty"`
	Settings map[string]string `yaml:"settings,omitempty"`
}

// NodePool is the system node pool of a managed cluster.
type NodePool struct {
	Name  string `yaml:"name,omitempty"`
	Size  string `yaml:"size,omitempty"`
	Count int32  `yaml:"count,omitempty"`
}

// Ingress overrides the shared ingress controller chart.
type Ingress struct {
	ChartVersion string `yaml:"chartVersion,omitempty"`
}

// Workload configures one Botpress deployment.
type Workload struct {
	Image        string `yaml:"image,omitempty"`
	Tag          string `yaml:"tag,omitempty"`
	Replicas     int32  `yaml:"replicas,omitempty"`
	Storage      string `yaml:"storage,omitempty"` // e.g. "5Gi"
	StorageClass string `yaml:"storageClass,omitempty"`
}

// MainServer adds the file storage backend to Workload.
type MainServer struct {
	Workload    `yaml:",inline"`
	StorageMode string `yaml:"storageMode,omitempty"` // "disk" or "database"
}

// Database configures the managed PostgreSQL server used in database mode.
type Database struct {
	Name      string `yaml:"name,omitempty"`
	Version   string `yaml:"version,omitempty"`
	Size      string `yaml:"size,omitempty"`
	NodeCount int    `yaml:"nodeCount,omitempty"`
	StorageGB int32  `yaml:"storageGB,omitempty"`
	Region    string `yaml:"region,omitempty"`
	DBName    string `yaml:"dbName,omitempty"`
	Pool      Pool   `yaml:"pool,omitempty"`
}

// Pool configures PgBouncer and the application side pool.
type Pool struct {
	Mode string `yaml:"mode,omitempty"` // session | transaction | statement
	Size int32  `yaml:"size,omitempty"`
	Min  int    `yaml:"min,omitempty"`
	Max  int    `yaml:"max,omitempty"`
}
