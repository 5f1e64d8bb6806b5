package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestURN(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		want string
	}{
		{"cluster", NewCluster("botpress"), "Cluster::botpress"},
		{"namespace", NewNamespace("apps"), "Namespace::apps"},
		{"workload", NewWorkload("apps", "botpress-server"), "Workload::apps/botpress-server"},
		{"database", NewDatabase(NewDatabaseCluster("bp-db"), "botpress"), "Database::bp-db/botpress"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Metadata().URN(); got != tt.want {
				t.Errorf("URN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainRecordRecordSet(t *testing.T) {
	r := NewDomainRecord(NewCluster("c"), "bot.example.com", NewIngressController("app-svcs", "ingress-nginx").Address())
	tests := []struct {
		target string
		want   DNSRecordType
	}{
		{"20.1.2.3", DNSRecordTypeA},
		{"2001:db8::1", DNSRecordTypeAAAA},
		{"lb.example.net", DNSRecordTypeCNAME},
	}
	for _, tt := range tests {
		rs := r.RecordSet(tt.target)
		if rs.Type != tt.want || rs.FQDN != "bot.example.com" || rs.RData[0] != tt.target {
			t.Errorf("RecordSet(%q) = %+v", tt.target, rs)
		}
	}
}

func TestDatabaseClusterRestore(t *testing.T) {
	src := NewDatabaseCluster("bp-db")
	src.SetID("/subscriptions/x/servers/bp-db")
	src.SetEndpoint("bp-db.postgres.database.azure.com", 5432)
	src.SetAdmin(DatabaseCredentials{User: "bpadmin", Password: "s3cret"})
	saved := src.Outputs()

	dst := NewDatabaseCluster("bp-db")
	if dst.Host().Resolved() {
		t.Fatal("fresh descriptor must be pending")
	}
	dst.Restore(saved)
	if diff := cmp.Diff(saved, dst.Outputs()); diff != "" {
		t.Errorf("restored outputs mismatch (-want +got):\n%s", diff)
	}
	if admin, _ := dst.Admin().Value(); admin.Password != "s3cret" {
		t.Errorf("admin password not restored: %+v", admin)
	}
	if dst.CACertificate().Resolved() {
		t.Error("CA certificate was never set and must stay pending")
	}
}

func TestIngressControllerRestoreIgnoresEmptyAddress(t *testing.T) {
	c := NewIngressController("app-svcs", "ingress-nginx")
	c.Restore(map[string]string{"address": ""})
	if c.Address().Resolved() {
		t.Error("empty address must leave the output pending")
	}
	c.Restore(map[string]string{"address": "20.0.0.1"})
	if got, _ := c.Address().Value(); got != "20.0.0.1" {
		t.Errorf("Address() = %q", got)
	}
}
