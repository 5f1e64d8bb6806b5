package bpopscfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "botpressops.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp yaml: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
version: v1
stack: demo
provider:
  driver: aks
  settings:
    AZURE_SUBSCRIPTION_ID: ${BPOPS_TEST_SUBSCRIPTION}
    AZURE_LOCATION: ${BPOPS_TEST_LOCATION}
cluster:
  name: demo-aks
  region: japaneast
  nodePool:
    size: Standard_D4s_v3
    count: 3
  ingress:
    chartVersion: 4.10.0
domain: bot.example.com
langServer:
  storage: 10Gi
mainServer:
  tag: v12_31_0
  storageMode: database
database:
  size: Standard_B2s
  pool:
    mode: session
`)
	if err := os.WriteFile(filepath.Join(dir, DotEnvFileName), []byte("BPOPS_TEST_SUBSCRIPTION=from-dotenv\nBPOPS_TEST_LOCATION=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BPOPS_TEST_LOCATION", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Stack != "demo" || cfg.Provider.Driver != "aks" {
		t.Errorf("unexpected root: %+v", cfg)
	}
	if got := cfg.Provider.Settings["AZURE_SUBSCRIPTION_ID"]; got != "from-dotenv" {
		t.Errorf("subscription = %q, want value from .env", got)
	}
	if got := cfg.Provider.Settings["AZURE_LOCATION"]; got != "from-env" {
		t.Errorf("location = %q, want process environment to win", got)
	}
	if cfg.Cluster.NodePool.Count != 3 || cfg.Cluster.Ingress.ChartVersion != "4.10.0" {
		t.Errorf("unexpected cluster: %+v", cfg.Cluster)
	}
	if cfg.MainServer.Tag != "v12_31_0" || cfg.MainServer.StorageMode != "database" {
		t.Errorf("unexpected main server: %+v", cfg.MainServer)
	}
	if cfg.Database == nil || cfg.Database.Pool.Mode != "session" {
		t.Errorf("unexpected database: %+v", cfg.Database)
	}
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
stack: demo
provider:
  driver: k3s
  settings:
    K3S_CONTEXT: ${BPOPS_TEST_UNSET_VARIABLE}
cluster:
  name: local
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Provider.Settings["K3S_CONTEXT"]; got != "" {
		t.Errorf("unset variable expanded to %q", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/path/does/not/exist.yml"); err == nil {
		t.Fatalf("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "stack: [1,2\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid YAML, got nil")
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
stack: demo
provider:
  driver: aks
cluster:
  name: demo-aks
mainServer:
  storageMode: s3
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "mainServer.storageMode:") {
		t.Fatalf("unexpected error: %v", err)
	}
}
