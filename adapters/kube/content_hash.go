package kube

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yaegashi/botpressops/internal/naming"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// AnnotationConfigHash on a pod template changes whenever a mounted ConfigMap
// changes, so that the Deployment rolls its pods.
const AnnotationConfigHash = "botpressops/config-hash"

// ComputeContentHash returns a short hash of the key/value map, independent of key order.
func ComputeContentHash(kv map[string]string) string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kv[k])
		b.WriteByte(0)
	}
	return naming.ShortHash(b.String(), 6)
}

// ComputePodConfigHash aggregates the content hashes of the ConfigMaps mounted
// by podSpec in volume order. Missing ConfigMaps contribute an empty segment.
// Returns "" when the pod mounts no ConfigMap.
func ComputePodConfigHash(podSpec *corev1.PodSpec, configMaps map[string]*corev1.ConfigMap) string {
	var segments []string
	for _, vol := range podSpec.Volumes {
		if vol.ConfigMap == nil || vol.ConfigMap.Name == "" {
			continue
		}
		seg := ""
		if cm, ok := configMaps[vol.ConfigMap.Name]; ok && cm != nil {
			seg = ComputeContentHash(cm.Data)
		}
		segments = append(segments, vol.ConfigMap.Name+":"+seg)
	}
	if len(segments) == 0 {
		return ""
	}
	return naming.ShortHash(strings.Join(segments, ","), 6)
}

// stampConfigHash reads the ConfigMaps mounted by the deployment and records
// their aggregate hash on the pod template.
func (c *Client) stampConfigHash(ctx context.Context, dep *appsv1.Deployment) error {
	cms := map[string]*corev1.ConfigMap{}
	for _, vol := range dep.Spec.Template.Spec.Volumes {
		if vol.ConfigMap == nil {
			continue
		}
		cm, err := c.Clientset.CoreV1().ConfigMaps(dep.Namespace).Get(ctx, vol.ConfigMap.Name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("get configmap %s/%s: %w", dep.Namespace, vol.ConfigMap.Name, err)
		}
		cms[cm.Name] = cm
	}
	h := ComputePodConfigHash(&dep.Spec.Template.Spec, cms)
	if h == "" {
		return nil
	}
	if dep.Spec.Template.Annotations == nil {
		dep.Spec.Template.Annotations = map[string]string{}
	}
	dep.Spec.Template.Annotations[AnnotationConfigHash] = h
	return nil
}
