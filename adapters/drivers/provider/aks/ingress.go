package aks

import (
	"context"

	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/domain/model"
)

const azureLBAnnotation = "service.beta.kubernetes.io/azure-"

// IngressMutators adjusts the ingress-nginx service for the Azure load balancer.
func (d *driver) IngressMutators() []kube.HelmValuesMutator {
	return []kube.HelmValuesMutator{d.ingressServiceAnnotations}
}

func (d *driver) ingressServiceAnnotations(ctx context.Context, ctrl *model.IngressController, release string, values kube.HelmValues) {
	controller, _ := values["controller"].(map[string]any)
	if controller == nil {
		controller = map[string]any{}
		values["controller"] = controller
	}
	service, _ := controller["service"].(map[string]any)
	if service == nil {
		service = map[string]any{}
		controller["service"] = service
	}
	ann, _ := service["annotations"].(map[string]any)
	if ann == nil {
		ann = map[string]any{}
		service["annotations"] = ann
	}
	ann[azureLBAnnotation+"load-balancer-health-probe-request-path"] = "/healthz"
	if label := d.setting(settingIngressDNSLabel); label != "" {
		ann[azureLBAnnotation+"dns-label-name"] = label
	}
}
