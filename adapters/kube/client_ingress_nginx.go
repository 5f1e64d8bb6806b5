package kube

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"
	"sigs.k8s.io/yaml"
)

const helmTimeout = 10 * time.Minute

// IngressNginxValues returns the base chart values for the controller. The
// proxy cache zone named by ctrl.CacheZone is declared in the http block.
func IngressNginxValues(ctrl *model.IngressController) HelmValues {
	config := map[string]any{
		"annotations-risk-level": "Critical",
	}
	if ctrl.CacheZone != "" {
		config["http-snippet"] = fmt.Sprintf("proxy_cache_path /tmp/nginx-cache levels=1:2 keys_zone=%s:32m max_size=1g inactive=60m use_temp_path=off;", ctrl.CacheZone)
	}
	return HelmValues{
		"controller": map[string]any{
			"ingressClass": ctrl.ClassName,
			"ingressClassResource": map[string]any{
				"name":            ctrl.ClassName,
				"controllerValue": "k8s.io/" + ctrl.ClassName,
			},
			"service": map[string]any{
				"type": "LoadBalancer",
			},
			// Ingress rules carry configuration snippets.
			"allowSnippetAnnotations": true,
			"config":                  config,
		},
	}
}

// helmConfig initializes a Helm action configuration bound to namespace ns.
// The returned cleanup removes the temporary kubeconfig file.
func (c *Client) helmConfig(ns string) (*action.Configuration, *cli.EnvSettings, func(), error) {
	kubeBytes := c.Kubeconfig()
	if len(kubeBytes) == 0 {
		return nil, nil, func() {}, fmt.Errorf("kubeconfig is required for Helm operations")
	}
	kubeconfigPath, cleanup, err := tempfile(kubeBytes)
	if err != nil {
		return nil, nil, func() {}, err
	}

	settings := cli.New()
	settings.KubeConfig = kubeconfigPath
	settings.SetNamespace(ns)

	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), ns, "secret", func(format string, v ...any) {}); err != nil {
		cleanup()
		return nil, nil, func() {}, fmt.Errorf("init helm configuration: %w", err)
	}
	return cfg, settings, cleanup, nil
}

// InstallIngressNginx installs or upgrades the ingress-nginx release described
// by ctrl into its namespace. Mutators may adjust the values before install.
func (c *Client) InstallIngressNginx(ctx context.Context, ctrl *model.IngressController, mutators ...HelmValuesMutator) error {
	if err := c.CreateNamespace(ctx, ctrl.Namespace); err != nil {
		return err
	}
	cfg, settings, cleanup, err := c.helmConfig(ctrl.Namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	release := ctrl.Name
	cpo := action.ChartPathOptions{RepoURL: ctrl.RepoURL, Version: ctrl.Version}
	chartPath, err := cpo.LocateChart(ctrl.Chart, settings)
	if err != nil {
		return fmt.Errorf("locate %s chart: %w", ctrl.Chart, err)
	}
	ch, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("load %s chart: %w", ctrl.Chart, err)
	}

	values := IngressNginxValues(ctrl)
	for _, m := range mutators {
		if m != nil {
			m(ctx, ctrl, release, values)
		}
	}
	if b, err := yaml.Marshal(values); err == nil {
		logging.FromContext(ctx).Debugf(ctx, "%s helm values (yaml):\n%s", release, string(b))
	}

	// Try upgrade first; if the release doesn't exist, fallback to install
	up := action.NewUpgrade(cfg)
	up.Namespace = ctrl.Namespace
	up.Version = ctrl.Version
	up.Atomic = true
	up.Wait = true
	up.Timeout = helmTimeout
	if _, err := up.RunWithContext(ctx, release, ch, values); err != nil {
		if stdErrors.Is(err, helmdriver.ErrNoDeployedReleases) {
			in := action.NewInstall(cfg)
			in.Namespace = ctrl.Namespace
			in.ReleaseName = release
			in.Version = ctrl.Version
			in.Atomic = true
			in.Wait = true
			in.Timeout = helmTimeout
			if _, ierr := in.RunWithContext(ctx, ch, values); ierr != nil {
				return fmt.Errorf("helm install %s: %w", release, ierr)
			}
			return nil
		}
		return fmt.Errorf("helm upgrade %s: %w", release, err)
	}
	return nil
}

// UninstallIngressNginx removes the release. Best-effort and idempotent.
func (c *Client) UninstallIngressNginx(ctx context.Context, ctrl *model.IngressController) error {
	cfg, _, cleanup, err := c.helmConfig(ctrl.Namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	un := action.NewUninstall(cfg)
	un.Wait = true
	un.Timeout = helmTimeout
	if _, err := un.Run(ctrl.Name); err != nil {
		if stdErrors.Is(err, helmdriver.ErrReleaseNotFound) {
			return nil
		}
		return fmt.Errorf("helm uninstall %s: %w", ctrl.Name, err)
	}
	logging.FromContext(ctx).Info(ctx, "KubeClient:Uninstall/eok", "release", ctrl.Name)
	return nil
}
