package model

import (
	"sort"

	"github.com/yaegashi/botpressops/domain/output"
)

// AccessMode of a storage claim. Only single-writer volumes are supported.
type AccessMode string

const AccessModeReadWriteOnce AccessMode = "ReadWriteOnce"

// PathType is the ingress path matching mode.
type PathType string

const (
	PathTypePrefix                 PathType = "Prefix"
	PathTypeExact                  PathType = "Exact"
	PathTypeImplementationSpecific PathType = "ImplementationSpecific"
)

// Namespace scopes in-cluster resources.
type Namespace struct {
	Meta
}

// NewNamespace returns a namespace descriptor.
func NewNamespace(name string) *Namespace {
	return &Namespace{Meta: NewMeta(KindNamespace, "", name)}
}

// StorageClaim is a persistent volume claim owned by one workload.
type StorageClaim struct {
	Meta
	Size         string
	AccessMode   AccessMode
	StorageClass string // empty selects the cluster default
}

// NewStorageClaim returns a ReadWriteOnce claim.
func NewStorageClaim(namespace, name, size string) *StorageClaim {
	return &StorageClaim{
		Meta:       NewMeta(KindStorageClaim, namespace, name),
		Size:       size,
		AccessMode: AccessModeReadWriteOnce,
	}
}

// ConfigMap carries files mounted into workloads.
type ConfigMap struct {
	Meta
	Data map[string]output.Output[string]
}

// NewConfigMap returns an empty config map descriptor.
func NewConfigMap(namespace, name string) *ConfigMap {
	return &ConfigMap{Meta: NewMeta(KindConfigMap, namespace, name), Data: map[string]output.Output[string]{}}
}

// Keys returns the data keys in sorted order.
func (c *ConfigMap) Keys() []string {
	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Inputs implements Resource.
func (c *ConfigMap) Inputs() []output.Input {
	var in []output.Input
	for _, k := range c.Keys() {
		in = append(in, c.Data[k])
	}
	return in
}

// EnvVar is one environment variable; values may be deferred.
type EnvVar struct {
	Name  string
	Value output.Output[string]
}

// VolumeMount mounts a workload volume into the container.
type VolumeMount struct {
	Name      string
	MountPath string
	SubPath   string
	ReadOnly  bool
}

// Volume is a pod volume backed by a claim or a config map.
type Volume struct {
	Name          string
	ClaimName     string
	ConfigMapName string
}

// ContainerPort is a named container port.
type ContainerPort struct {
	Name string
	Port int32
}

// Container is the single container of a workload.
type Container struct {
	Name         string
	Image        string
	Command      []string
	Args         []string
	Ports        []ContainerPort
	Env          []EnvVar
	VolumeMounts []VolumeMount
}

// Workload is a Deployment with one container.
type Workload struct {
	Meta
	Replicas  int32
	Labels    map[string]string
	Container Container
	Volumes   []Volume
}

// NewWorkload returns a workload descriptor selected by the app label.
func NewWorkload(namespace, name string) *Workload {
	return &Workload{
		Meta:   NewMeta(KindWorkload, namespace, name),
		Labels: map[string]string{"app": name},
	}
}

// Env returns the value of the named environment variable.
func (w *Workload) Env(name string) (output.Output[string], bool) {
	for _, e := range w.Container.Env {
		if e.Name == name {
			return e.Value, true
		}
	}
	return output.Output[string]{}, false
}

// Mount returns the mount with the given path.
func (w *Workload) Mount(path string) (VolumeMount, bool) {
	for _, m := range w.Container.VolumeMounts {
		if m.MountPath == path {
			return m, true
		}
	}
	return VolumeMount{}, false
}

// Inputs implements Resource.
func (w *Workload) Inputs() []output.Input {
	in := make([]output.Input, 0, len(w.Container.Env))
	for _, e := range w.Container.Env {
		in = append(in, e.Value)
	}
	return in
}

// Service exposes a workload inside the cluster.
type Service struct {
	Meta
	Selector   map[string]string
	PortName   string
	Port       int32
	TargetPort int32
}

// NewService returns a ClusterIP service descriptor.
func NewService(namespace, name string) *Service {
	return &Service{Meta: NewMeta(KindService, namespace, name)}
}

// IngressRule routes one path to a service. Each rule is its own Ingress object
// so that annotations apply to that path only.
type IngressRule struct {
	Meta
	ClassName   string
	Host        string
	Path        string
	PathType    PathType
	ServiceName string
	ServicePort int32
	Annotations map[string]string
}

// NewIngressRule returns an ingress rule descriptor.
func NewIngressRule(namespace, name string) *IngressRule {
	return &IngressRule{Meta: NewMeta(KindIngressRule, namespace, name), Annotations: map[string]string{}}
}

// IngressController is the shared ingress-nginx installation.
type IngressController struct {
	Meta
	Chart       string
	RepoURL     string
	Version     string
	ClassName   string
	ServiceName string // LoadBalancer service reporting the external address
	CacheZone   string // nginx proxy cache zone, empty disables caching
	address     *output.Cell[string]
}

// NewIngressController returns the controller descriptor.
func NewIngressController(namespace, release string) *IngressController {
	m := NewMeta(KindIngressController, namespace, release)
	return &IngressController{Meta: m, address: output.NewCell[string](m.URN())}
}

// Address is the externally reachable IP or hostname of the controller.
func (c *IngressController) Address() output.Output[string] { return c.address.Output() }

// SetAddress resolves Address.
func (c *IngressController) SetAddress(addr string) { c.address.Resolve(addr) }

// Outputs implements Resource.
func (c *IngressController) Outputs() map[string]string {
	out := c.Meta.Outputs()
	if v, ok := c.Address().Get(); ok {
		out["address"] = v
	}
	return out
}

// Restore implements Resource.
func (c *IngressController) Restore(outputs map[string]string) {
	c.Meta.Restore(outputs)
	if v, ok := outputs["address"]; ok && v != "" {
		c.address.Resolve(v)
	}
}
