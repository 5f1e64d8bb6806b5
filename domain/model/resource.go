package model

import (
	"github.com/yaegashi/botpressops/domain/output"
)

// Kind names a resource type in the graph.
type Kind string

const (
	KindCluster           Kind = "Cluster"
	KindNamespace         Kind = "Namespace"
	KindStorageClaim      Kind = "StorageClaim"
	KindConfigMap         Kind = "ConfigMap"
	KindWorkload          Kind = "Workload"
	KindService           Kind = "Service"
	KindIngressRule       Kind = "IngressRule"
	KindIngressController Kind = "IngressController"
	KindDatabaseCluster   Kind = "DatabaseCluster"
	KindDatabase          Kind = "Database"
	KindConnectionPool    Kind = "ConnectionPool"
	KindTrustGrant        Kind = "TrustGrant"
	KindDomainRecord      Kind = "DomainRecord"
)

// Resource is a declarative descriptor placed in the resource graph.
type Resource interface {
	// Metadata returns the common identity of the resource.
	Metadata() *Meta
	// Inputs returns the deferred values the resource consumes. The graph
	// derives implicit dependency edges from them.
	Inputs() []output.Input
	// Outputs returns the resolved values to persist in state.
	Outputs() map[string]string
	// Restore resolves the resource's outputs from persisted state.
	Restore(outputs map[string]string)
}

// Meta is the identity shared by every descriptor. Namespace is the
// Kubernetes namespace for in-cluster resources and the parent scope
// (for example the database server) for cloud resources.
type Meta struct {
	kind      Kind
	Name      string
	Namespace string
	id        *output.Cell[string]
}

// NewMeta returns the identity of a resource of the given kind.
func NewMeta(kind Kind, namespace, name string) Meta {
	m := Meta{kind: kind, Name: name, Namespace: namespace}
	m.id = output.NewCell[string](m.URN())
	return m
}

// Kind returns the resource kind.
func (m *Meta) Kind() Kind { return m.kind }

// URN returns the graph-unique identifier, e.g. "Workload::apps/botpress-server".
func (m *Meta) URN() string {
	if m.Namespace == "" {
		return string(m.kind) + "::" + m.Name
	}
	return string(m.kind) + "::" + m.Namespace + "/" + m.Name
}

// Metadata implements Resource.
func (m *Meta) Metadata() *Meta { return m }

// ID is the provider identifier, resolved once the resource is applied.
func (m *Meta) ID() output.Output[string] { return m.id.Output() }

// SetID resolves ID.
func (m *Meta) SetID(id string) { m.id.Resolve(id) }

// Inputs implements Resource for descriptors without deferred inputs.
func (m *Meta) Inputs() []output.Input { return nil }

// Outputs implements Resource.
func (m *Meta) Outputs() map[string]string {
	out := map[string]string{}
	if v, ok := m.id.Output().Get(); ok {
		out["id"] = v
	}
	return out
}

// Restore implements Resource.
func (m *Meta) Restore(outputs map[string]string) {
	if v, ok := outputs["id"]; ok {
		m.id.Resolve(v)
	}
}
