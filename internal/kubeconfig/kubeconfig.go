// Package kubeconfig normalizes kubeconfig documents handed to the kube adapter.
package kubeconfig

import (
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Select loads kubeconfig bytes and returns a minimal, flattened kubeconfig
// containing only the given context. An empty ctxName keeps the current
// context (or the only one when current-context is unset).
func Select(data []byte, ctxName string) ([]byte, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}

	if ctxName == "" {
		ctxName = cfg.CurrentContext
	}
	if ctxName == "" {
		if len(cfg.Contexts) != 1 {
			return nil, fmt.Errorf("kubeconfig has no current context")
		}
		for k := range cfg.Contexts {
			ctxName = k
		}
	}
	if cfg.Contexts[ctxName] == nil {
		return nil, fmt.Errorf("context %q not found in kubeconfig", ctxName)
	}
	cfg.CurrentContext = ctxName

	if err := clientcmdapi.MinifyConfig(cfg); err != nil {
		return nil, fmt.Errorf("minify kubeconfig: %w", err)
	}
	if err := clientcmdapi.FlattenConfig(cfg); err != nil {
		return nil, fmt.Errorf("flatten kubeconfig: %w", err)
	}

	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("write kubeconfig: %w", err)
	}
	return out, nil
}

// Server returns the API server URL of the current context.
func Server(data []byte) (string, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return "", fmt.Errorf("parse kubeconfig: %w", err)
	}
	ctx := cfg.Contexts[cfg.CurrentContext]
	if ctx == nil {
		return "", fmt.Errorf("kubeconfig has no current context")
	}
	cl := cfg.Clusters[ctx.Cluster]
	if cl == nil {
		return "", fmt.Errorf("referenced cluster %q not found", ctx.Cluster)
	}
	return cl.Server, nil
}
