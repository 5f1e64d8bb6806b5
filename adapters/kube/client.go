package kube

import (
	"context"
	"fmt"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps the typed Kubernetes clientset and the underlying REST config.
// Provider-specific credential retrieval lives in provider drivers which pass
// kubeconfig bytes here.
type Client struct {
	// RESTConfig is the configuration used to talk to the API server.
	RESTConfig *rest.Config
	// Clientset provides typed clients for core/built-in resources.
	Clientset kubernetes.Interface

	kubeconfig []byte
}

// Options controls client construction tuning. All fields are optional.
type Options struct {
	// UserAgent adds a custom user agent to the REST config.
	UserAgent string
	// QPS sets the allowed queries per second on the REST client.
	QPS float32
	// Burst sets the client-side rate limiter burst.
	Burst int
}

func (o *Options) applyDefaults() {
	if o.QPS <= 0 {
		o.QPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 50
	}
	if o.UserAgent == "" {
		o.UserAgent = "botpressops"
	}
}

// NewClientFromKubeconfig constructs a Client from kubeconfig bytes.
// The bytes are retained for Helm operations.
func NewClientFromKubeconfig(_ context.Context, kubeconfig []byte, opts *Options) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, fmt.Errorf("kubeconfig is empty")
	}
	cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("build REST config from kubeconfig: %w", err)
	}
	c, err := NewClientFromRESTConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	c.kubeconfig = append([]byte(nil), kubeconfig...)
	return c, nil
}

// NewClientFromKubeconfigPath constructs a Client from a kubeconfig file path.
func NewClientFromKubeconfigPath(ctx context.Context, path string, opts *Options) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kubeconfig file: %w", err)
	}
	return NewClientFromKubeconfig(ctx, data, opts)
}

// NewClientFromRESTConfig constructs a Client from an existing rest.Config.
func NewClientFromRESTConfig(cfg *rest.Config, opts *Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("REST config is nil")
	}
	if opts == nil {
		opts = &Options{}
	}
	opts.applyDefaults()

	cfg.QPS = opts.QPS
	cfg.Burst = opts.Burst
	_ = rest.AddUserAgent(cfg, opts.UserAgent)

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	return &Client{RESTConfig: cfg, Clientset: cs}, nil
}

// NewClientFromClientset wraps an existing clientset. Helm operations are
// unavailable on such a client.
func NewClientFromClientset(cs kubernetes.Interface) *Client {
	return &Client{Clientset: cs}
}

// Kubeconfig returns the kubeconfig bytes the client was built from, or nil.
func (c *Client) Kubeconfig() []byte {
	if c == nil {
		return nil
	}
	return c.kubeconfig
}

func (c *Client) ready() error {
	if c == nil || c.Clientset == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	return nil
}
