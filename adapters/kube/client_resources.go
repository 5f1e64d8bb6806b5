package kube

import (
	"context"
	"fmt"

	"github.com/yaegashi/botpressops/internal/logging"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"
)

// ApplyObject creates the object or updates the fields botpressops owns on an
// existing one. Supported types are the ones produced by BuildObject.
func (c *Client) ApplyObject(ctx context.Context, obj runtime.Object) error {
	if err := c.ready(); err != nil {
		return err
	}
	switch o := obj.(type) {
	case *corev1.Namespace:
		return c.CreateNamespace(ctx, o.Name)
	case *corev1.PersistentVolumeClaim:
		return c.applyPersistentVolumeClaim(ctx, o)
	case *corev1.ConfigMap:
		return c.applyConfigMap(ctx, o)
	case *appsv1.Deployment:
		return c.applyDeployment(ctx, o)
	case *corev1.Service:
		return c.applyService(ctx, o)
	case *networkingv1.Ingress:
		return c.applyIngress(ctx, o)
	default:
		return fmt.Errorf("unsupported object type %T", obj)
	}
}

// DeleteObject deletes the object by kind and name. Missing objects are ignored.
func (c *Client) DeleteObject(ctx context.Context, obj runtime.Object) error {
	if err := c.ready(); err != nil {
		return err
	}
	var err error
	opts := metav1.DeleteOptions{PropagationPolicy: ptr.To(metav1.DeletePropagationBackground)}
	switch o := obj.(type) {
	case *corev1.Namespace:
		return c.DeleteNamespace(ctx, o.Name)
	case *corev1.PersistentVolumeClaim:
		err = c.Clientset.CoreV1().PersistentVolumeClaims(o.Namespace).Delete(ctx, o.Name, opts)
	case *corev1.ConfigMap:
		err = c.Clientset.CoreV1().ConfigMaps(o.Namespace).Delete(ctx, o.Name, opts)
	case *appsv1.Deployment:
		err = c.Clientset.AppsV1().Deployments(o.Namespace).Delete(ctx, o.Name, opts)
	case *corev1.Service:
		err = c.Clientset.CoreV1().Services(o.Namespace).Delete(ctx, o.Name, opts)
	case *networkingv1.Ingress:
		err = c.Clientset.NetworkingV1().Ingresses(o.Namespace).Delete(ctx, o.Name, opts)
	default:
		return fmt.Errorf("unsupported object type %T", obj)
	}
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete %T %s: %w", obj, keyOf(obj), err)
	}
	return nil
}

func keyOf(obj runtime.Object) string {
	if m, ok := obj.(metav1.Object); ok {
		if m.GetNamespace() == "" {
			return m.GetName()
		}
		return m.GetNamespace() + "/" + m.GetName()
	}
	return "?"
}

// applyPersistentVolumeClaim only creates: claim specs are immutable apart
// from expansion, which is left to operators.
func (c *Client) applyPersistentVolumeClaim(ctx context.Context, o *corev1.PersistentVolumeClaim) error {
	api := c.Clientset.CoreV1().PersistentVolumeClaims(o.Namespace)
	cur, err := api.Get(ctx, o.Name, metav1.GetOptions{})
	if err == nil {
		want := o.Spec.Resources.Requests[corev1.ResourceStorage]
		have := cur.Spec.Resources.Requests[corev1.ResourceStorage]
		if want.Cmp(have) != 0 {
			logging.FromContext(ctx).Warn(ctx, "KubeClient:PVC size differs; leaving claim unchanged", "pvc", keyOf(o), "want", want.String(), "have", have.String())
		}
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get pvc %s: %w", keyOf(o), err)
	}
	if _, err := api.Create(ctx, o, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("create pvc %s: %w", keyOf(o), err)
	}
	return nil
}

func (c *Client) applyConfigMap(ctx context.Context, o *corev1.ConfigMap) error {
	api := c.Clientset.CoreV1().ConfigMaps(o.Namespace)
	cur, err := api.Get(ctx, o.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := api.Create(ctx, o, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create configmap %s: %w", keyOf(o), err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get configmap %s: %w", keyOf(o), err)
	}
	cur.Labels = mergeLabels(cur.Labels, o.Labels)
	cur.Data = o.Data
	if _, err := api.Update(ctx, cur, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update configmap %s: %w", keyOf(o), err)
	}
	return nil
}

func (c *Client) applyDeployment(ctx context.Context, o *appsv1.Deployment) error {
	if err := c.stampConfigHash(ctx, o); err != nil {
		return err
	}
	api := c.Clientset.AppsV1().Deployments(o.Namespace)
	cur, err := api.Get(ctx, o.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := api.Create(ctx, o, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create deployment %s: %w", keyOf(o), err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get deployment %s: %w", keyOf(o), err)
	}
	cur.Labels = mergeLabels(cur.Labels, o.Labels)
	// Selector is immutable; keep the live one.
	selector := cur.Spec.Selector
	cur.Spec = o.Spec
	cur.Spec.Selector = selector
	if _, err := api.Update(ctx, cur, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update deployment %s: %w", keyOf(o), err)
	}
	return nil
}

func (c *Client) applyService(ctx context.Context, o *corev1.Service) error {
	api := c.Clientset.CoreV1().Services(o.Namespace)
	cur, err := api.Get(ctx, o.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := api.Create(ctx, o, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create service %s: %w", keyOf(o), err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get service %s: %w", keyOf(o), err)
	}
	cur.Labels = mergeLabels(cur.Labels, o.Labels)
	cur.Spec.Selector = o.Spec.Selector
	cur.Spec.Ports = o.Spec.Ports
	if _, err := api.Update(ctx, cur, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update service %s: %w", keyOf(o), err)
	}
	return nil
}

func (c *Client) applyIngress(ctx context.Context, o *networkingv1.Ingress) error {
	api := c.Clientset.NetworkingV1().Ingresses(o.Namespace)
	cur, err := api.Get(ctx, o.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := api.Create(ctx, o, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create ingress %s: %w", keyOf(o), err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get ingress %s: %w", keyOf(o), err)
	}
	cur.Labels = mergeLabels(cur.Labels, o.Labels)
	cur.Annotations = o.Annotations
	cur.Spec = o.Spec
	if _, err := api.Update(ctx, cur, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update ingress %s: %w", keyOf(o), err)
	}
	return nil
}

func mergeLabels(cur, want map[string]string) map[string]string {
	if cur == nil {
		cur = map[string]string{}
	}
	for k, v := range want {
		cur[k] = v
	}
	return cur
}
