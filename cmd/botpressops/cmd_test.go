package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yaegashi/botpressops/adapters/store/inmem"
	"github.com/yaegashi/botpressops/adapters/store/rdb"
)

const testConfig = `
stack: demo
provider:
  driver: k3s
cluster:
  name: local
domain: bot.example.com
`

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-output", "none"))
	root.SetContext(context.Background())
	err := root.Execute()
	return out.String(), err
}

func TestConfigValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botpressops.yml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runRoot(t, "config", "validate", "-f", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	for _, want := range []string{"stack=demo", "provider=k3s", "storageMode=disk"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botpressops.yml")
	if err := os.WriteFile(path, []byte(strings.Replace(testConfig, "stack: demo", "stack: Demo", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runRoot(t, "config", "validate", "-f", path); err == nil || !strings.Contains(err.Error(), "stack:") {
		t.Fatalf("expected stack validation error, got %v", err)
	}
}

func TestDestroyRequiresConfirmation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botpressops.yml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runRoot(t, "destroy", "-f", path, "--state-url", "mem:")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestBuildStateRepository(t *testing.T) {
	tests := []struct {
		url     string
		wantMem bool
		wantErr bool
	}{
		{url: "mem:", wantMem: true},
		{url: "sqlite:" + filepath.Join(t.TempDir(), "state.db")},
		{url: "postgres://localhost/state", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cmd := newRootCmd()
			if err := cmd.PersistentFlags().Set("state-url", tt.url); err != nil {
				t.Fatal(err)
			}
			repo, err := buildStateRepository(cmd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildStateRepository() error = %v", err)
			}
			switch repo.(type) {
			case *inmem.ResourceRepository:
				if !tt.wantMem {
					t.Errorf("got in-memory repository for %s", tt.url)
				}
			case *rdb.ResourceRepository:
				if tt.wantMem {
					t.Errorf("got sqlite repository for %s", tt.url)
				}
			default:
				t.Errorf("unexpected repository %T", repo)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "botpressops version latest") {
		t.Errorf("version output = %q", out)
	}
}
