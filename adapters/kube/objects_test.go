package kube

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
)

func testWorkload(dbURL output.Output[string]) *model.Workload {
	w := model.NewWorkload("apps", "botpress-server")
	w.Replicas = 1
	w.Container = model.Container{
		Name:  "botpress-server",
		Image: "botpress/server:v12_30_7",
		Ports: []model.ContainerPort{{Name: "http", Port: 3000}},
		Env: []model.EnvVar{
			{Name: "BPFS_STORAGE", Value: output.Of("database")},
			{Name: "DATABASE_URL", Value: dbURL},
		},
		VolumeMounts: []model.VolumeMount{
			{Name: "data", MountPath: "/botpress/data"},
			{Name: "db-ca", MountPath: "/botpress/certs/ca-certificate.crt", SubPath: "ca-certificate.crt", ReadOnly: true},
		},
	}
	w.Volumes = []model.Volume{
		{Name: "data", ClaimName: "botpress-server-pvc"},
		{Name: "db-ca", ConfigMapName: "botpress-server-db-ca"},
	}
	return w
}

func TestBuildDeployment(t *testing.T) {
	d, err := BuildDeployment(testWorkload(output.Of("postgres://u:p@h:6432/db?sslmode=require")), RenderOptions{})
	if err != nil {
		t.Fatalf("BuildDeployment() error = %v", err)
	}
	if got := *d.Spec.Replicas; got != 1 {
		t.Errorf("replicas = %d", got)
	}
	if diff := cmp.Diff(map[string]string{"app": "botpress-server"}, d.Spec.Selector.MatchLabels); diff != "" {
		t.Errorf("selector mismatch (-want +got):\n%s", diff)
	}
	c := d.Spec.Template.Spec.Containers[0]
	wantEnv := []corev1.EnvVar{
		{Name: "BPFS_STORAGE", Value: "database"},
		{Name: "DATABASE_URL", Value: "postgres://u:p@h:6432/db?sslmode=require"},
	}
	if diff := cmp.Diff(wantEnv, c.Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	vols := d.Spec.Template.Spec.Volumes
	if vols[0].PersistentVolumeClaim == nil || vols[0].PersistentVolumeClaim.ClaimName != "botpress-server-pvc" {
		t.Errorf("data volume = %+v", vols[0])
	}
	if vols[1].ConfigMap == nil || vols[1].ConfigMap.Name != "botpress-server-db-ca" {
		t.Errorf("ca volume = %+v", vols[1])
	}
	if m := c.VolumeMounts[1]; m.SubPath != "ca-certificate.crt" || !m.ReadOnly {
		t.Errorf("ca mount = %+v", m)
	}
}

func TestBuildDeploymentPending(t *testing.T) {
	pending := output.NewCell[string]("ConnectionPool::botpress-db/pool").Output()

	_, err := BuildDeployment(testWorkload(pending), RenderOptions{})
	if !errors.Is(err, output.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should name the variable: %v", err)
	}

	d, err := BuildDeployment(testWorkload(pending), RenderOptions{AllowPending: true})
	if err != nil {
		t.Fatalf("BuildDeployment(AllowPending) error = %v", err)
	}
	if got := d.Spec.Template.Spec.Containers[0].Env[1].Value; got != PendingPlaceholder {
		t.Errorf("pending env = %q", got)
	}
}

func TestBuildPersistentVolumeClaim(t *testing.T) {
	c := model.NewStorageClaim("apps", "botpress-lang-server-pvc", "5Gi")
	c.StorageClass = "managed-csi"
	pvc, err := BuildPersistentVolumeClaim(c)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce}, pvc.Spec.AccessModes); diff != "" {
		t.Errorf("access modes mismatch (-want +got):\n%s", diff)
	}
	q := pvc.Spec.Resources.Requests[corev1.ResourceStorage]
	if q.String() != "5Gi" {
		t.Errorf("size = %s", q.String())
	}
	if pvc.Spec.StorageClassName == nil || *pvc.Spec.StorageClassName != "managed-csi" {
		t.Errorf("storage class = %v", pvc.Spec.StorageClassName)
	}

	if _, err := BuildPersistentVolumeClaim(model.NewStorageClaim("apps", "x", "lots")); err == nil {
		t.Error("expected error for invalid size")
	}
}

func TestBuildIngress(t *testing.T) {
	r := model.NewIngressRule("apps", "botpress-server-socketio")
	r.ClassName = "nginx"
	r.Path = "/socket.io/"
	r.PathType = model.PathTypePrefix
	r.ServiceName = "botpress-server-service"
	r.ServicePort = 3000
	r.Annotations["nginx.ingress.kubernetes.io/proxy-read-timeout"] = "3600"

	ing := BuildIngress(r)
	if *ing.Spec.IngressClassName != "nginx" {
		t.Errorf("class = %s", *ing.Spec.IngressClassName)
	}
	p := ing.Spec.Rules[0].HTTP.Paths[0]
	if p.Path != "/socket.io/" || *p.PathType != networkingv1.PathTypePrefix {
		t.Errorf("path = %s %s", p.Path, *p.PathType)
	}
	if p.Backend.Service.Name != "botpress-server-service" || p.Backend.Service.Port.Number != 3000 {
		t.Errorf("backend = %+v", p.Backend.Service)
	}
	if ing.Annotations["nginx.ingress.kubernetes.io/proxy-read-timeout"] != "3600" {
		t.Errorf("annotations = %v", ing.Annotations)
	}
}

func TestBuildService(t *testing.T) {
	s := model.NewService("apps", "botpress-lang-server-service")
	s.Selector = map[string]string{"app": "botpress-lang-server"}
	s.PortName = "http"
	s.Port = 3100
	s.TargetPort = 3100

	svc := BuildService(s)
	if svc.Spec.Type != corev1.ServiceTypeClusterIP {
		t.Errorf("type = %s", svc.Spec.Type)
	}
	if got := svc.Spec.Ports[0].TargetPort.IntValue(); got != 3100 {
		t.Errorf("target port = %d", got)
	}
	if svc.Labels[LabelAppK8sManagedBy] != ManagedByValue {
		t.Errorf("labels = %v", svc.Labels)
	}
}

func TestBuildObjectIngressControllerNotRenderable(t *testing.T) {
	_, err := BuildObject(model.NewIngressController("app-svcs", "ingress-nginx"), RenderOptions{})
	if !errors.Is(err, ErrNotRenderable) {
		t.Errorf("expected ErrNotRenderable, got %v", err)
	}
}

func TestRenderManifest(t *testing.T) {
	cm := model.NewConfigMap("apps", "botpress-server-db-ca")
	cm.Data["ca-certificate.crt"] = output.NewCell[string]("DatabaseCluster::botpress-db").Output()
	resources := []model.Resource{
		model.NewNamespace("apps"),
		model.NewIngressController("app-svcs", "ingress-nginx"),
		cm,
	}
	got, err := RenderManifest(resources, RenderOptions{AllowPending: true})
	if err != nil {
		t.Fatalf("RenderManifest() error = %v", err)
	}
	if n := strings.Count(got, "---\n"); n != 2 {
		t.Errorf("documents = %d, want 2\n%s", n, got)
	}
	for _, want := range []string{"kind: Namespace", "kind: ConfigMap", "ca-certificate.crt: (pending)"} {
		if !strings.Contains(got, want) {
			t.Errorf("manifest missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "creationTimestamp") {
		t.Errorf("manifest should not carry creationTimestamp:\n%s", got)
	}
}
