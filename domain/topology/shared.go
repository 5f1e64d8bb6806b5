// Package topology declares the Botpress deployment as a resource graph.
//
// Components are composed rather than layered: LangServer and MainServer each
// hold an AppService, which owns the storage claim and reaches the ingress
// controller through the Shared context created once by Build.
package topology

import (
	"fmt"
	"sync"

	"github.com/yaegashi/botpressops/domain/graph"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
)

// IngressOptions configures the shared ingress controller.
type IngressOptions struct {
	Namespace   string // "app-svcs"
	Release     string // Helm release name
	Chart       string
	RepoURL     string
	Version     string // chart version, empty for latest
	ClassName   string
	ServiceName string
	CacheZone   string
}

// DefaultIngressOptions returns the ingress-nginx defaults.
func DefaultIngressOptions() IngressOptions {
	return IngressOptions{
		Namespace:   "app-svcs",
		Release:     "ingress-nginx",
		Chart:       "ingress-nginx",
		RepoURL:     "https://kubernetes.github.io/ingress-nginx",
		ClassName:   "nginx",
		ServiceName: "ingress-nginx-controller",
		CacheZone:   "static-cache",
	}
}

// Shared is the context handed to every component of one stack. It owns the
// resources that exist once per stack: the ingress namespace and controller.
type Shared struct {
	Graph   *graph.Graph
	Cluster *model.Cluster

	mu                sync.Mutex
	opts              IngressOptions
	ingressNamespace  *model.Namespace
	ingressController *model.IngressController
}

// NewShared returns the shared context. The cluster must already be in g.
func NewShared(g *graph.Graph, cluster *model.Cluster, opts IngressOptions) *Shared {
	return &Shared{Graph: g, Cluster: cluster, opts: opts}
}

// EnsureIngressController declares the ingress namespace and controller on the
// first call and returns the same controller afterwards.
func (s *Shared) EnsureIngressController() (*model.IngressController, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ingressController != nil {
		return s.ingressController, nil
	}

	ns := model.NewNamespace(s.opts.Namespace)
	if _, err := s.Graph.Add(ns, s.Cluster); err != nil {
		return nil, fmt.Errorf("declare ingress namespace: %w", err)
	}
	ctrl := model.NewIngressController(s.opts.Namespace, s.opts.Release)
	ctrl.Chart = s.opts.Chart
	ctrl.RepoURL = s.opts.RepoURL
	ctrl.Version = s.opts.Version
	ctrl.ClassName = s.opts.ClassName
	ctrl.ServiceName = s.opts.ServiceName
	ctrl.CacheZone = s.opts.CacheZone
	if _, err := s.Graph.Add(ctrl, ns); err != nil {
		return nil, fmt.Errorf("declare ingress controller: %w", err)
	}

	s.ingressNamespace = ns
	s.ingressController = ctrl
	return ctrl, nil
}

// IngressController returns the controller or ErrNotInitialized before the
// first AppService was constructed.
func (s *Shared) IngressController() (*model.IngressController, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ingressController == nil {
		return nil, fmt.Errorf("ingress controller: %w", model.ErrNotInitialized)
	}
	return s.ingressController, nil
}

// IngressAddress returns the controller's deferred external address.
func (s *Shared) IngressAddress() (output.Output[string], error) {
	ctrl, err := s.IngressController()
	if err != nil {
		return output.Output[string]{}, err
	}
	return ctrl.Address(), nil
}
