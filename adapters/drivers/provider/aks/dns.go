package aks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	defaultDNSRecordTTL = 300

	// settingDNSZoneResourceIDs lists Azure DNS zone resource IDs separated by
	// commas or whitespace.
	settingDNSZoneResourceIDs = "AZURE_DNS_ZONE_RESOURCE_IDS"
)

type dnsZone struct {
	ResourceID     string
	SubscriptionID string
	ResourceGroup  string
	Name           string
}

// parseDNSZoneID parses /subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Network/dnszones/{zone}.
func parseDNSZoneID(resourceID string) (*dnsZone, error) {
	rid, err := arm.ParseResourceID(resourceID)
	if err != nil {
		return nil, fmt.Errorf("parse DNS zone resource ID: %w", err)
	}
	if !strings.EqualFold(rid.ResourceType.Namespace, "Microsoft.Network") ||
		!strings.EqualFold(rid.ResourceType.Type, "dnszones") {
		return nil, fmt.Errorf("invalid resource type for DNS zone: expected Microsoft.Network/dnszones, got %s/%s",
			rid.ResourceType.Namespace, rid.ResourceType.Type)
	}
	return &dnsZone{
		ResourceID:     resourceID,
		SubscriptionID: rid.SubscriptionID,
		ResourceGroup:  rid.ResourceGroupName,
		Name:           rid.Name,
	}, nil
}

// dnsZones returns the zones configured on the cluster, falling back to the
// driver settings.
func (d *driver) dnsZones(cluster *model.Cluster) ([]*dnsZone, error) {
	raw := ""
	if cluster != nil {
		raw = strings.TrimSpace(cluster.Settings[settingDNSZoneResourceIDs])
	}
	if raw == "" {
		raw = d.setting(settingDNSZoneResourceIDs)
	}
	var zones []*dnsZone
	for _, id := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		z, err := parseDNSZoneID(id)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// selectDNSZone picks the zone with the longest name that is a suffix of fqdn.
func selectDNSZone(fqdn string, zones []*dnsZone) (*dnsZone, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("no DNS zones configured in %s", settingDNSZoneResourceIDs)
	}
	fqdn = strings.ToLower(strings.TrimSuffix(fqdn, "."))
	var best *dnsZone
	for _, z := range zones {
		name := strings.ToLower(strings.TrimSuffix(z.Name, "."))
		if fqdn != name && !strings.HasSuffix(fqdn, "."+name) {
			continue
		}
		if best == nil || len(name) > len(strings.TrimSuffix(best.Name, ".")) {
			best = z
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no matching DNS zone found for FQDN %s", fqdn)
	}
	return best, nil
}

// normalizeDNSRecordSet validates the record set, trims the trailing dot and
// applies the default TTL.
func normalizeDNSRecordSet(rset *model.DNSRecordSet) error {
	if rset.FQDN == "" {
		return fmt.Errorf("FQDN is required")
	}
	rset.FQDN = strings.TrimSuffix(rset.FQDN, ".")
	switch rset.Type {
	case model.DNSRecordTypeA, model.DNSRecordTypeAAAA, model.DNSRecordTypeCNAME:
	default:
		return fmt.Errorf("unsupported DNS record type: %s", rset.Type)
	}
	if rset.Type == model.DNSRecordTypeCNAME && len(rset.RData) > 1 {
		return fmt.Errorf("CNAME record must have exactly one RData entry, got %d", len(rset.RData))
	}
	if rset.TTL == 0 {
		rset.TTL = defaultDNSRecordTTL
	}
	return nil
}

// relativeRecordName converts an FQDN to the zone-relative record set name.
// The apex is "@".
func relativeRecordName(fqdn, zoneName string) string {
	fqdn = strings.TrimSuffix(fqdn, ".")
	zoneName = strings.TrimSuffix(zoneName, ".")
	if strings.EqualFold(fqdn, zoneName) {
		return "@"
	}
	if len(fqdn) > len(zoneName)+1 && strings.EqualFold(fqdn[len(fqdn)-len(zoneName)-1:], "."+zoneName) {
		return fqdn[:len(fqdn)-len(zoneName)-1]
	}
	return fqdn
}

func recordSetProperties(rset model.DNSRecordSet) *armdns.RecordSetProperties {
	props := &armdns.RecordSetProperties{TTL: to.Ptr(int64(rset.TTL))}
	switch rset.Type {
	case model.DNSRecordTypeA:
		for _, ip := range rset.RData {
			props.ARecords = append(props.ARecords, &armdns.ARecord{IPv4Address: to.Ptr(ip)})
		}
	case model.DNSRecordTypeAAAA:
		for _, ip := range rset.RData {
			props.AaaaRecords = append(props.AaaaRecords, &armdns.AaaaRecord{IPv6Address: to.Ptr(ip)})
		}
	case model.DNSRecordTypeCNAME:
		if len(rset.RData) > 0 {
			props.CnameRecord = &armdns.CnameRecord{Cname: to.Ptr(rset.RData[0])}
		}
	}
	return props
}

func (d *driver) resolveDNSTarget(cluster *model.Cluster, rset *model.DNSRecordSet) (*dnsZone, *armdns.RecordSetsClient, error) {
	if err := normalizeDNSRecordSet(rset); err != nil {
		return nil, nil, err
	}
	zones, err := d.dnsZones(cluster)
	if err != nil {
		return nil, nil, err
	}
	zone, err := selectDNSZone(rset.FQDN, zones)
	if err != nil {
		return nil, nil, err
	}
	client, err := armdns.NewRecordSetsClient(zone.SubscriptionID, d.TokenCredential, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create DNS record sets client: %w", err)
	}
	return zone, client, nil
}

// DNSApply creates or replaces the record set in the best matching zone.
func (d *driver) DNSApply(ctx context.Context, cluster *model.Cluster, rset model.DNSRecordSet) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DNSApply")
	defer func() { cleanup(err) }()

	if len(rset.RData) == 0 {
		return fmt.Errorf("DNS record %s has no RData", rset.FQDN)
	}
	zone, client, err := d.resolveDNSTarget(cluster, &rset)
	if err != nil {
		return err
	}
	name := relativeRecordName(rset.FQDN, zone.Name)
	logging.FromContext(ctx).Info(ctx, "upserting Azure DNS record",
		"zone", zone.Name, "record", name, "type", rset.Type, "ttl", rset.TTL, "rdata", rset.RData)

	_, err = client.CreateOrUpdate(ctx, zone.ResourceGroup, zone.Name, name, armdns.RecordType(rset.Type),
		armdns.RecordSet{Properties: recordSetProperties(rset)}, nil)
	if err != nil {
		return fmt.Errorf("create/update DNS record %s: %w", rset.FQDN, err)
	}
	return nil
}

// DNSDelete removes the record set. Missing records are ignored.
func (d *driver) DNSDelete(ctx context.Context, cluster *model.Cluster, rset model.DNSRecordSet) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DNSDelete")
	defer func() { cleanup(err) }()

	zone, client, err := d.resolveDNSTarget(cluster, &rset)
	if err != nil {
		return err
	}
	name := relativeRecordName(rset.FQDN, zone.Name)
	logging.FromContext(ctx).Info(ctx, "deleting Azure DNS record", "zone", zone.Name, "record", name, "type", rset.Type)

	if _, err := client.Delete(ctx, zone.ResourceGroup, zone.Name, name, armdns.RecordType(rset.Type), nil); err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("delete DNS record %s: %w", rset.FQDN, err)
	}
	return nil
}
