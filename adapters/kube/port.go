package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// IngressInstaller installs and removes the shared ingress controller release.
type IngressInstaller interface {
	InstallIngressNginx(ctx context.Context, ctrl *model.IngressController, mutators ...HelmValuesMutator) error
	UninstallIngressNginx(ctx context.Context, ctrl *model.IngressController) error
}

// Port implements model.KubePort on top of a Client.
type Port struct {
	client    *Client
	installer IngressInstaller
	mutators  []HelmValuesMutator

	// PollInterval and PollTimeout bound the wait for the ingress address.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

var _ model.KubePort = (*Port)(nil)

// NewPort returns a Port using the client for both objects and Helm releases.
func NewPort(c *Client, mutators ...HelmValuesMutator) *Port {
	return &Port{
		client:       c,
		installer:    c,
		mutators:     mutators,
		PollInterval: 5 * time.Second,
		PollTimeout:  5 * time.Minute,
	}
}

// WithInstaller replaces the ingress installer.
func (p *Port) WithInstaller(i IngressInstaller) *Port {
	p.installer = i
	return p
}

// NewPortFactory returns a model.KubePortFactory building clients from kubeconfig bytes.
func NewPortFactory(opts *Options, mutators ...HelmValuesMutator) model.KubePortFactory {
	return func(ctx context.Context, kubeconfig []byte) (model.KubePort, error) {
		var o Options
		if opts != nil {
			o = *opts
		}
		c, err := NewClientFromKubeconfig(ctx, kubeconfig, &o)
		if err != nil {
			return nil, err
		}
		return NewPort(c, mutators...), nil
	}
}

// Apply implements model.KubePort.
func (p *Port) Apply(ctx context.Context, res model.Resource) error {
	logger := logging.FromContext(ctx).With("urn", res.Metadata().URN())
	if ctrl, ok := res.(*model.IngressController); ok {
		logger.Info(ctx, "KubePort:Apply", "release", ctrl.Name, "chart", ctrl.Chart, "version", ctrl.Version)
		return p.installer.InstallIngressNginx(ctx, ctrl, p.mutators...)
	}
	obj, err := BuildObject(res, RenderOptions{})
	if err != nil {
		return err
	}
	logger.Debug(ctx, "KubePort:Apply")
	return p.client.ApplyObject(ctx, obj)
}

// Delete implements model.KubePort.
func (p *Port) Delete(ctx context.Context, res model.Resource) error {
	if ctrl, ok := res.(*model.IngressController); ok {
		return p.installer.UninstallIngressNginx(ctx, ctrl)
	}
	// Deferred values are irrelevant for deletion; only identity matters.
	obj, err := BuildObject(res, RenderOptions{AllowPending: true})
	if err != nil {
		return err
	}
	return p.client.DeleteObject(ctx, obj)
}

// IngressAddress implements model.KubePort. It polls the controller's
// LoadBalancer service and returns "" when no address appears before PollTimeout.
func (p *Port) IngressAddress(ctx context.Context, ctrl *model.IngressController) (string, error) {
	if err := p.client.ready(); err != nil {
		return "", err
	}
	var addr string
	err := wait.PollUntilContextTimeout(ctx, p.PollInterval, p.PollTimeout, true, func(ctx context.Context) (bool, error) {
		a, err := p.client.LoadBalancerAddress(ctx, ctrl.Namespace, ctrl.ServiceName)
		if err != nil {
			return false, err
		}
		addr = a
		return a != "", nil
	})
	if err != nil {
		if wait.Interrupted(err) && ctx.Err() == nil {
			logging.FromContext(ctx).Warn(ctx, "KubePort:IngressAddress pending", "service", ctrl.Namespace+"/"+ctrl.ServiceName, "timeout", p.PollTimeout.String())
			return "", nil
		}
		return "", err
	}
	return addr, nil
}

// LoadBalancerAddress returns the first ingress IP or hostname reported on a
// LoadBalancer service, or "" when none is reported yet or the service is absent.
func (c *Client) LoadBalancerAddress(ctx context.Context, namespace, name string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	svc, err := c.Clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get service %s/%s: %w", namespace, name, err)
	}
	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.IP != "" {
			return ing.IP, nil
		}
		if ing.Hostname != "" {
			return ing.Hostname, nil
		}
	}
	return "", nil
}
