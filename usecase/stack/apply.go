package stack

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
)

// apply materializes one resource whose inputs are all resolved and resolves
// its outputs. ActionSkipped means nothing was applied and nothing is recorded.
func (s *session) apply(ctx context.Context, res model.Resource) (string, error) {
	action := ActionCreate
	if s.recorded(res.Metadata().URN()) {
		action = ActionUpdate
	}

	switch r := res.(type) {
	case *model.Cluster:
		return action, s.applyCluster(ctx, r)
	case *model.IngressController:
		return action, s.applyIngressController(ctx, r)
	case *model.DatabaseCluster:
		return action, s.applyDatabaseCluster(ctx, r)
	case *model.Database:
		if err := s.uc.Provider.DatabaseApply(ctx, r); err != nil {
			return action, err
		}
		r.SetID(r.Cluster.Name + "/" + r.Name)
		return action, nil
	case *model.ConnectionPool:
		return action, s.applyConnectionPool(ctx, r)
	case *model.TrustGrant:
		return reconcileTrustGrant(ctx, s.uc.Provider, r, s.stack.Name)
	case *model.DomainRecord:
		return s.applyDomainRecord(ctx, r, action)
	}

	if !kube.IsKubeResource(res) {
		return action, fmt.Errorf("no handler for %s", res.Metadata().Kind())
	}
	kp, err := s.kubePort(ctx)
	if err != nil {
		return action, err
	}
	if err := kp.Apply(ctx, res); err != nil {
		return action, err
	}
	// In-cluster objects are addressed by name within their namespace.
	res.Metadata().SetID(res.Metadata().Name)
	return action, nil
}

func (s *session) applyCluster(ctx context.Context, c *model.Cluster) error {
	p := s.uc.Provider
	if err := p.ClusterProvision(ctx, c); err != nil {
		return err
	}
	st, err := p.ClusterStatus(ctx, c)
	if err != nil {
		return fmt.Errorf("cluster status: %w", err)
	}
	id := c.Name
	if st != nil && st.ID != "" {
		id = st.ID
	}
	c.SetID(id)
	return nil
}

func (s *session) applyIngressController(ctx context.Context, ctrl *model.IngressController) error {
	kp, err := s.kubePort(ctx)
	if err != nil {
		return err
	}
	if err := kp.Apply(ctx, ctrl); err != nil {
		return err
	}
	ctrl.SetID(ctrl.Name)
	addr, err := kp.IngressAddress(ctx, ctrl)
	if err != nil {
		return fmt.Errorf("ingress address: %w", err)
	}
	if addr != "" {
		ctrl.SetAddress(addr)
	}
	return nil
}

func (s *session) applyConnectionPool(ctx context.Context, pool *model.ConnectionPool) error {
	admin, err := pool.Cluster.Admin().Value()
	if err != nil {
		return fmt.Errorf("database admin: %w", err)
	}
	st, err := s.uc.Provider.ConnectionPoolApply(ctx, pool, admin)
	if err != nil {
		return err
	}
	pool.SetID(st.ID)
	pool.SetPrivateURI(st.URI)
	return nil
}

func (s *session) applyDomainRecord(ctx context.Context, r *model.DomainRecord, action string) (string, error) {
	target, err := r.Target.Value()
	if err != nil {
		return action, err
	}
	err = s.uc.Provider.DNSApply(ctx, r.Cluster, r.RecordSet(target))
	if errors.Is(err, model.ErrNotSupported) {
		logging.FromContext(ctx).Warn(ctx, "DNS is not managed by this provider; create the record manually", "fqdn", r.Name, "target", target)
		return ActionSkipped, nil
	}
	if err != nil {
		return action, err
	}
	r.SetID(r.Name)
	return action, nil
}

// destroy removes one recorded resource.
func (s *session) destroy(ctx context.Context, res model.Resource) error {
	p := s.uc.Provider
	switch r := res.(type) {
	case *model.Cluster:
		return p.ClusterDeprovision(ctx, r)
	case *model.DatabaseCluster:
		return p.DatabaseClusterDelete(ctx, r)
	case *model.Database:
		return p.DatabaseDelete(ctx, r)
	case *model.ConnectionPool:
		return p.ConnectionPoolDelete(ctx, r)
	case *model.TrustGrant:
		return deleteTrustGrant(ctx, p, r)
	case *model.DomainRecord:
		target, ok := r.Target.Get()
		if !ok {
			logging.FromContext(ctx).Warn(ctx, "DNS record target unknown; leaving record in place", "fqdn", r.Name)
			return nil
		}
		err := p.DNSDelete(ctx, r.Cluster, r.RecordSet(target))
		if errors.Is(err, model.ErrNotSupported) {
			return nil
		}
		return err
	}

	if !kube.IsKubeResource(res) {
		return fmt.Errorf("no handler for %s", res.Metadata().Kind())
	}
	kp, err := s.kubePort(ctx)
	if err != nil {
		return err
	}
	return kp.Delete(ctx, res)
}
