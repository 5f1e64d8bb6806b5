package bpopscfg

import (
	"fmt"

	"github.com/yaegashi/botpressops/domain/topology"
	"github.com/yaegashi/botpressops/internal/naming"
	"k8s.io/apimachinery/pkg/api/resource"
)

var poolModes = map[string]bool{"session": true, "transaction": true, "statement": true}

// Validate performs semantic validation on the configuration tree. Errors are
// prefixed with the path of the offending field.
func (r *Root) Validate() error {
	if err := naming.ValidateStackName(r.Stack); err != nil {
		return fmt.Errorf("stack: %w", err)
	}
	if r.Provider.Driver == "" {
		return fmt.Errorf("provider.driver: must not be empty")
	}
	if err := naming.ValidateServerName(r.Cluster.Name); err != nil {
		return fmt.Errorf("cluster.name: %w", err)
	}
	if r.Cluster.NodePool.Count < 0 {
		return fmt.Errorf("cluster.nodePool.count: must not be negative")
	}
	if r.Namespace != "" {
		if err := naming.ValidateNamespaceName(r.Namespace); err != nil {
			return fmt.Errorf("namespace: %w", err)
		}
	}
	if r.Domain != "" {
		if err := naming.ValidateDomain(r.Domain); err != nil {
			return fmt.Errorf("domain: %w", err)
		}
	}
	if err := r.LangServer.validate(); err != nil {
		return fmt.Errorf("langServer.%w", err)
	}
	if err := r.MainServer.validate(); err != nil {
		return fmt.Errorf("mainServer.%w", err)
	}
	if r.Database != nil {
		if err := r.Database.validate(); err != nil {
			return fmt.Errorf("database.%w", err)
		}
	}
	return nil
}

func (w *Workload) validate() error {
	if w.Replicas < 0 {
		return fmt.Errorf("replicas: must not be negative")
	}
	if w.Storage != "" {
		q, err := resource.ParseQuantity(w.Storage)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if q.Sign() <= 0 {
			return fmt.Errorf("storage: must be positive")
		}
	}
	return nil
}

func (m *MainServer) validate() error {
	if err := m.Workload.validate(); err != nil {
		return err
	}
	switch topology.StorageMode(m.StorageMode) {
	case "", topology.StorageModeDisk, topology.StorageModeDatabase:
	default:
		return fmt.Errorf("storageMode: invalid mode %q, must be %q or %q", m.StorageMode, topology.StorageModeDisk, topology.StorageModeDatabase)
	}
	return nil
}

func (d *Database) validate() error {
	if d.Name != "" {
		if err := naming.ValidateServerName(d.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
	}
	if d.NodeCount < 0 {
		return fmt.Errorf("nodeCount: must not be negative")
	}
	if d.StorageGB < 0 {
		return fmt.Errorf("storageGB: must not be negative")
	}
	if d.Pool.Mode != "" && !poolModes[d.Pool.Mode] {
		return fmt.Errorf("pool.mode: invalid mode %q", d.Pool.Mode)
	}
	if d.Pool.Min < 0 || d.Pool.Max < 0 {
		return fmt.Errorf("pool: min and max must not be negative")
	}
	if d.Pool.Max > 0 && d.Pool.Min > d.Pool.Max {
		return fmt.Errorf("pool.min: %d exceeds pool.max %d", d.Pool.Min, d.Pool.Max)
	}
	return nil
}
