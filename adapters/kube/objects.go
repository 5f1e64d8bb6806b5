package kube

import (
	"errors"
	"fmt"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

// PendingPlaceholder is rendered in place of deferred values that are not
// yet known when RenderOptions.AllowPending is set.
const PendingPlaceholder = "(pending)"

// RenderOptions controls how deferred values are rendered into objects.
type RenderOptions struct {
	// AllowPending substitutes PendingPlaceholder for unresolved values instead
	// of failing with output.ErrPending.
	AllowPending bool
}

func (o RenderOptions) value(name string, v output.Output[string]) (string, error) {
	if s, ok := v.Get(); ok {
		return s, nil
	}
	if o.AllowPending {
		return PendingPlaceholder, nil
	}
	return "", fmt.Errorf("%s: %w", name, output.ErrPending)
}

func objectMeta(m *model.Meta, labels map[string]string) metav1.ObjectMeta {
	l := map[string]string{LabelAppK8sManagedBy: ManagedByValue, LabelAppK8sPartOf: PartOfValue}
	for k, v := range labels {
		l[k] = v
	}
	return metav1.ObjectMeta{Name: m.Name, Namespace: m.Namespace, Labels: l}
}

func newNamespaceObject(name string) *corev1.Namespace {
	return &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{LabelAppK8sManagedBy: ManagedByValue},
		},
	}
}

// BuildNamespace converts a namespace descriptor.
func BuildNamespace(ns *model.Namespace) *corev1.Namespace {
	return newNamespaceObject(ns.Name)
}

// BuildPersistentVolumeClaim converts a storage claim descriptor.
func BuildPersistentVolumeClaim(c *model.StorageClaim) (*corev1.PersistentVolumeClaim, error) {
	q, err := resource.ParseQuantity(c.Size)
	if err != nil {
		return nil, fmt.Errorf("parse size of %s: %w", c.URN(), err)
	}
	pvc := &corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: objectMeta(&c.Meta, nil),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.PersistentVolumeAccessMode(c.AccessMode)},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: q},
			},
		},
	}
	if c.StorageClass != "" {
		pvc.Spec.StorageClassName = ptr.To(c.StorageClass)
	}
	return pvc, nil
}

// BuildConfigMap converts a config map descriptor.
func BuildConfigMap(c *model.ConfigMap, opts RenderOptions) (*corev1.ConfigMap, error) {
	data := make(map[string]string, len(c.Data))
	for _, k := range c.Keys() {
		v, err := opts.value(c.URN()+" data "+k, c.Data[k])
		if err != nil {
			return nil, err
		}
		data[k] = v
	}
	return &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: objectMeta(&c.Meta, nil),
		Data:       data,
	}, nil
}

// BuildDeployment converts a workload descriptor.
func BuildDeployment(w *model.Workload, opts RenderOptions) (*appsv1.Deployment, error) {
	var env []corev1.EnvVar
	for _, e := range w.Container.Env {
		v, err := opts.value(w.URN()+" env "+e.Name, e.Value)
		if err != nil {
			return nil, err
		}
		env = append(env, corev1.EnvVar{Name: e.Name, Value: v})
	}

	var ports []corev1.ContainerPort
	for _, p := range w.Container.Ports {
		ports = append(ports, corev1.ContainerPort{Name: p.Name, ContainerPort: p.Port, Protocol: corev1.ProtocolTCP})
	}

	var mounts []corev1.VolumeMount
	for _, m := range w.Container.VolumeMounts {
		mounts = append(mounts, corev1.VolumeMount{Name: m.Name, MountPath: m.MountPath, SubPath: m.SubPath, ReadOnly: m.ReadOnly})
	}

	var volumes []corev1.Volume
	for _, v := range w.Volumes {
		vol := corev1.Volume{Name: v.Name}
		switch {
		case v.ClaimName != "":
			vol.PersistentVolumeClaim = &corev1.PersistentVolumeClaimVolumeSource{ClaimName: v.ClaimName}
		case v.ConfigMapName != "":
			vol.ConfigMap = &corev1.ConfigMapVolumeSource{LocalObjectReference: corev1.LocalObjectReference{Name: v.ConfigMapName}}
		default:
			return nil, fmt.Errorf("volume %s of %s has no source", v.Name, w.URN())
		}
		volumes = append(volumes, vol)
	}

	labels := make(map[string]string, len(w.Labels))
	for k, v := range w.Labels {
		labels[k] = v
	}

	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: objectMeta(&w.Meta, w.Labels),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(w.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			// A ReadWriteOnce claim cannot be attached to two pods on different nodes.
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:         w.Container.Name,
						Image:        w.Container.Image,
						Command:      w.Container.Command,
						Args:         w.Container.Args,
						Ports:        ports,
						Env:          env,
						VolumeMounts: mounts,
					}},
					Volumes: volumes,
				},
			},
		},
	}, nil
}

// BuildService converts a service descriptor into a ClusterIP service.
func BuildService(s *model.Service) *corev1.Service {
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: objectMeta(&s.Meta, nil),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: s.Selector,
			Ports: []corev1.ServicePort{{
				Name:       s.PortName,
				Port:       s.Port,
				TargetPort: intstr.FromInt32(s.TargetPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// BuildIngress converts an ingress rule descriptor into a single-path Ingress.
func BuildIngress(r *model.IngressRule) *networkingv1.Ingress {
	ann := make(map[string]string, len(r.Annotations))
	for k, v := range r.Annotations {
		ann[k] = v
	}
	meta := objectMeta(&r.Meta, nil)
	if len(ann) > 0 {
		meta.Annotations = ann
	}
	pathType := networkingv1.PathType(r.PathType)
	return &networkingv1.Ingress{
		TypeMeta:   metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
		ObjectMeta: meta,
		Spec: networkingv1.IngressSpec{
			IngressClassName: ptr.To(r.ClassName),
			Rules: []networkingv1.IngressRule{{
				Host: r.Host,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     r.Path,
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: r.ServiceName,
									Port: networkingv1.ServiceBackendPort{Number: r.ServicePort},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// ErrNotRenderable is returned by BuildObject for descriptors that have no
// plain Kubernetes object representation.
var ErrNotRenderable = errors.New("resource has no manifest representation")

// BuildObject converts any in-cluster descriptor into its Kubernetes object.
func BuildObject(res model.Resource, opts RenderOptions) (runtime.Object, error) {
	switch r := res.(type) {
	case *model.Namespace:
		return BuildNamespace(r), nil
	case *model.StorageClaim:
		return BuildPersistentVolumeClaim(r)
	case *model.ConfigMap:
		return BuildConfigMap(r, opts)
	case *model.Workload:
		return BuildDeployment(r, opts)
	case *model.Service:
		return BuildService(r), nil
	case *model.IngressRule:
		return BuildIngress(r), nil
	default:
		return nil, fmt.Errorf("%s: %w", res.Metadata().URN(), ErrNotRenderable)
	}
}

// IsKubeResource reports whether the descriptor is handled by a KubePort.
func IsKubeResource(res model.Resource) bool {
	switch res.Metadata().Kind() {
	case model.KindNamespace, model.KindStorageClaim, model.KindConfigMap, model.KindWorkload,
		model.KindService, model.KindIngressRule, model.KindIngressController:
		return true
	}
	return false
}
