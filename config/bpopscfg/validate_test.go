package bpopscfg

import (
	"strings"
	"testing"
)

func validRoot() Root {
	return Root{
		Stack:    "demo",
		Provider: Provider{Driver: "aks"},
		Cluster:  Cluster{Name: "demo-aks"},
	}
}

func TestRootValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *Root)
		wantErr string
	}{
		{name: "minimal", mutate: func(r *Root) {}},
		{
			name:    "invalid stack",
			mutate:  func(r *Root) { r.Stack = "Demo_Stack" },
			wantErr: "stack: invalid stack name",
		},
		{
			name:    "missing driver",
			mutate:  func(r *Root) { r.Provider.Driver = "" },
			wantErr: "provider.driver:",
		},
		{
			name:    "short cluster name",
			mutate:  func(r *Root) { r.Cluster.Name = "ab" },
			wantErr: "cluster.name:",
		},
		{
			name:    "invalid namespace",
			mutate:  func(r *Root) { r.Namespace = "Apps" },
			wantErr: "namespace:",
		},
		{
			name:    "single label domain",
			mutate:  func(r *Root) { r.Domain = "localhost" },
			wantErr: "domain:",
		},
		{
			name:    "bad storage quantity",
			mutate:  func(r *Root) { r.LangServer.Storage = "five gigs" },
			wantErr: "langServer.storage:",
		},
		{
			name:    "zero storage",
			mutate:  func(r *Root) { r.MainServer.Storage = "0" },
			wantErr: "mainServer.storage: must be positive",
		},
		{
			name:    "unknown storage mode",
			mutate:  func(r *Root) { r.MainServer.StorageMode = "blob" },
			wantErr: "mainServer.storageMode:",
		},
		{
			name:    "unknown pool mode",
			mutate:  func(r *Root) { r.Database = &Database{Pool: Pool{Mode: "burst"}} },
			wantErr: "database.pool.mode:",
		},
		{
			name:    "pool min above max",
			mutate:  func(r *Root) { r.Database = &Database{Pool: Pool{Min: 8, Max: 4}} },
			wantErr: "database.pool.min:",
		},
		{
			name:   "database with defaults",
			mutate: func(r *Root) { r.Database = &Database{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := validRoot()
			tt.mutate(&root)
			err := root.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("Validate() error = %v, want nil", err)
			case tt.wantErr != "" && err == nil:
				t.Fatalf("Validate() error = nil, want contains %q", tt.wantErr)
			case tt.wantErr != "" && err != nil && !strings.Contains(err.Error(), tt.wantErr):
				t.Fatalf("Validate() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}
