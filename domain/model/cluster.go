package model

// NodePool describes the default node pool of a provisioned cluster.
type NodePool struct {
	Name  string
	Size  string // VM size, e.g. Standard_D2s_v3
	Count int32
}

// Cluster is the managed Kubernetes cluster hosting the stack.
type Cluster struct {
	Meta
	Provider string // driver name, e.g. "aks"
	Region   string
	Version  string
	NodePool NodePool
	Existing bool // use an existing cluster instead of provisioning one
	Settings map[string]string
}

// NewCluster returns a cluster descriptor.
func NewCluster(name string) *Cluster {
	return &Cluster{Meta: NewMeta(KindCluster, "", name), Settings: map[string]string{}}
}

// ClusterStatus represents the status of a cluster.
type ClusterStatus struct {
	Existing    bool   `json:"existing"`
	Provisioned bool   `json:"provisioned"`
	ID          string `json:"id"`
	Version     string `json:"version"`
}
