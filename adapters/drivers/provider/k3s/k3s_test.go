package k3s

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yaegashi/botpressops/domain/model"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: default
  cluster:
    server: https://127.0.0.1:6443
- name: other
  cluster:
    server: https://10.0.0.1:6443
contexts:
- name: default
  context:
    cluster: default
    user: default
- name: other
  context:
    cluster: other
    user: default
current-context: default
users:
- name: default
  user:
    token: abc
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k3s.yaml")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClusterStatus(t *testing.T) {
	path := writeKubeconfig(t)
	d := &driver{settings: map[string]string{settingKubeconfig: path}}
	ctx := context.Background()

	cluster := model.NewCluster("k3s")
	st, err := d.ClusterStatus(ctx, cluster)
	if err != nil {
		t.Fatalf("ClusterStatus() error = %v", err)
	}
	if !st.Existing || !st.Provisioned || st.ID != "https://127.0.0.1:6443" {
		t.Errorf("ClusterStatus() = %+v", st)
	}

	cluster.Settings[settingContext] = "other"
	st, err = d.ClusterStatus(ctx, cluster)
	if err != nil {
		t.Fatalf("ClusterStatus() error = %v", err)
	}
	if st.ID != "https://10.0.0.1:6443" {
		t.Errorf("ClusterStatus() with context = %+v", st)
	}

	if err := d.ClusterProvision(ctx, cluster); err != nil {
		t.Errorf("ClusterProvision() error = %v", err)
	}
	if err := d.ClusterDeprovision(ctx, cluster); err != nil {
		t.Errorf("ClusterDeprovision() error = %v", err)
	}
}

func TestMissingKubeconfig(t *testing.T) {
	d := &driver{settings: map[string]string{settingKubeconfig: filepath.Join(t.TempDir(), "missing.yaml")}}
	if _, err := d.ClusterKubeconfig(context.Background(), model.NewCluster("k3s")); err == nil {
		t.Error("expected error for missing kubeconfig")
	}
}

func TestUnsupportedOperations(t *testing.T) {
	d := &driver{}
	ctx := context.Background()
	db := model.NewDatabaseCluster("db")
	errs := []error{
		d.DatabaseApply(ctx, model.NewDatabase(db, "botpress")),
		d.DNSApply(ctx, model.NewCluster("k3s"), model.DNSRecordSet{}),
		d.TrustGrantDelete(ctx, model.NewTrustGrant(db, model.NewCluster("k3s")), "id"),
	}
	_, err := d.DatabaseClusterApply(ctx, db, model.DatabaseCredentials{})
	errs = append(errs, err)
	for i, err := range errs {
		if !errors.Is(err, model.ErrNotSupported) {
			t.Errorf("op %d: error = %v, want ErrNotSupported", i, err)
		}
	}
	if d.IngressMutators() != nil {
		t.Error("IngressMutators() must be nil")
	}
}
