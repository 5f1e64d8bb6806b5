package kube

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yaegashi/botpressops/domain/model"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime"
)

// RenderManifest renders the in-cluster descriptors among resources as a
// multi-document YAML stream. Descriptors without a plain object form, such
// as the Helm-installed ingress controller, are skipped.
func RenderManifest(resources []model.Resource, opts RenderOptions) (string, error) {
	var objs []runtime.Object
	for _, res := range resources {
		if !IsKubeResource(res) {
			continue
		}
		obj, err := BuildObject(res, opts)
		if errors.Is(err, ErrNotRenderable) {
			continue
		}
		if err != nil {
			return "", err
		}
		objs = append(objs, obj)
	}
	return BuildCleanManifest(objs)
}

// BuildCleanManifest converts runtime.Objects to unstructured maps, prunes empty
// maps and null values, and returns a multi-document YAML string (each doc
// preceded by ---).
func BuildCleanManifest(objs []runtime.Object) (string, error) {
	var buf bytes.Buffer
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		m, err := cleanObject(obj)
		if err != nil {
			return "", err
		}
		var ybuf bytes.Buffer
		enc := yaml.NewEncoder(&ybuf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("encode manifest: %w", err)
		}
		_ = enc.Close()
		buf.WriteString("---\n")
		buf.Write(ybuf.Bytes())
	}
	return buf.String(), nil
}

func cleanObject(obj runtime.Object) (map[string]any, error) {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("to unstructured: %w", err)
	}
	pruneMap(m)
	if meta, ok := m["metadata"].(map[string]any); ok {
		delete(meta, "creationTimestamp")
	}
	if tmpl, ok := nested(m, "spec", "template", "metadata"); ok {
		delete(tmpl, "creationTimestamp")
	}
	for _, k := range []string{"metadata", "status"} {
		if v, ok := m[k].(map[string]any); ok && len(v) == 0 {
			delete(m, k)
		}
	}
	return m, nil
}

func nested(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// pruneMap recursively prunes nil values and empty maps (in-place), preserving empty slices.
func pruneMap(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			switch cv := pruneMap(val).(type) {
			case nil:
				delete(x, k)
			case map[string]any:
				if len(cv) == 0 {
					delete(x, k)
				}
			}
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = pruneMap(it)
		}
		return x
	default:
		return x
	}
}
