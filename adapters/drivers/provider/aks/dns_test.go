package aks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yaegashi/botpressops/domain/model"
)

const testZonePrefix = "/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/dns-rg/providers/Microsoft.Network/dnszones/"

func TestParseDNSZoneID(t *testing.T) {
	tests := []struct {
		name       string
		resourceID string
		want       *dnsZone
		wantErr    bool
	}{
		{
			name:       "valid zone ID",
			resourceID: testZonePrefix + "example.com",
			want: &dnsZone{
				ResourceID:     testZonePrefix + "example.com",
				SubscriptionID: "00000000-0000-0000-0000-000000000000",
				ResourceGroup:  "dns-rg",
				Name:           "example.com",
			},
		},
		{
			name:       "too short",
			resourceID: "/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/my-rg",
			wantErr:    true,
		},
		{
			name:       "wrong provider",
			resourceID: "/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/my-rg/providers/Microsoft.Compute/dnszones/example.com",
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDNSZoneID(tt.resourceID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDNSZoneID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseDNSZoneID() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDNSZonesFromSettings(t *testing.T) {
	d := &driver{settings: map[string]string{settingDNSZoneResourceIDs: testZonePrefix + "fallback.net"}}

	cluster := model.NewCluster("c")
	cluster.Settings[settingDNSZoneResourceIDs] = testZonePrefix + "example.com, " + testZonePrefix + "app.example.com"
	zones, err := d.dnsZones(cluster)
	if err != nil {
		t.Fatalf("dnsZones() error = %v", err)
	}
	if len(zones) != 2 || zones[1].Name != "app.example.com" {
		t.Errorf("dnsZones() = %+v", zones)
	}

	zones, err = d.dnsZones(model.NewCluster("c"))
	if err != nil {
		t.Fatalf("dnsZones() error = %v", err)
	}
	if len(zones) != 1 || zones[0].Name != "fallback.net" {
		t.Errorf("dnsZones() fallback = %+v", zones)
	}
}

func TestSelectDNSZone(t *testing.T) {
	zones := []*dnsZone{
		{Name: "example.com"},
		{Name: "app.example.com"},
		{Name: "other.net"},
	}
	tests := []struct {
		fqdn     string
		wantZone string
		wantErr  bool
	}{
		{fqdn: "www.example.com", wantZone: "example.com"},
		{fqdn: "bot.app.example.com.", wantZone: "app.example.com"},
		{fqdn: "app.example.com", wantZone: "app.example.com"},
		{fqdn: "Bot.Other.NET", wantZone: "other.net"},
		{fqdn: "notexample.com", wantErr: true},
		{fqdn: "unknown.org", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.fqdn, func(t *testing.T) {
			got, err := selectDNSZone(tt.fqdn, zones)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectDNSZone() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.Name != tt.wantZone {
				t.Errorf("selectDNSZone() = %s, want %s", got.Name, tt.wantZone)
			}
		})
	}

	if _, err := selectDNSZone("a.example.com", nil); err == nil {
		t.Error("selectDNSZone() with no zones must fail")
	}
}

func TestNormalizeDNSRecordSet(t *testing.T) {
	tests := []struct {
		name    string
		in      model.DNSRecordSet
		want    model.DNSRecordSet
		wantErr bool
	}{
		{
			name: "default ttl and trailing dot",
			in:   model.DNSRecordSet{FQDN: "bot.example.com.", Type: model.DNSRecordTypeA, RData: []string{"20.0.0.1"}},
			want: model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeA, TTL: defaultDNSRecordTTL, RData: []string{"20.0.0.1"}},
		},
		{
			name: "explicit ttl kept",
			in:   model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeCNAME, TTL: 60, RData: []string{"lb.example.net"}},
			want: model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeCNAME, TTL: 60, RData: []string{"lb.example.net"}},
		},
		{
			name:    "empty fqdn",
			in:      model.DNSRecordSet{Type: model.DNSRecordTypeA},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			in:      model.DNSRecordSet{FQDN: "bot.example.com", Type: "TXT"},
			wantErr: true,
		},
		{
			name:    "cname with two targets",
			in:      model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeCNAME, RData: []string{"a", "b"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			err := normalizeDNSRecordSet(&got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeDNSRecordSet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("normalizeDNSRecordSet() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelativeRecordName(t *testing.T) {
	tests := []struct {
		fqdn, zone, want string
	}{
		{"example.com", "example.com", "@"},
		{"example.com.", "example.com", "@"},
		{"www.example.com", "example.com", "www"},
		{"a.b.example.com", "example.com", "a.b"},
		{"bot.app.example.com", "app.example.com.", "bot"},
	}
	for _, tt := range tests {
		if got := relativeRecordName(tt.fqdn, tt.zone); got != tt.want {
			t.Errorf("relativeRecordName(%q, %q) = %q, want %q", tt.fqdn, tt.zone, got, tt.want)
		}
	}
}

func TestRecordSetProperties(t *testing.T) {
	props := recordSetProperties(model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeA, TTL: 300, RData: []string{"20.0.0.1", "20.0.0.2"}})
	if *props.TTL != 300 || len(props.ARecords) != 2 || *props.ARecords[1].IPv4Address != "20.0.0.2" {
		t.Errorf("A properties = %+v", props)
	}
	props = recordSetProperties(model.DNSRecordSet{FQDN: "bot.example.com", Type: model.DNSRecordTypeCNAME, TTL: 300, RData: []string{"lb.example.net"}})
	if props.CnameRecord == nil || *props.CnameRecord.Cname != "lb.example.net" {
		t.Errorf("CNAME properties = %+v", props)
	}
}
