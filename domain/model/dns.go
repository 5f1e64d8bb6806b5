package model

import (
	"net/netip"

	"github.com/yaegashi/botpressops/domain/output"
)

// DNSRecordType represents provider-agnostic DNS record types.
type DNSRecordType string

const (
	DNSRecordTypeA     DNSRecordType = "A"
	DNSRecordTypeAAAA  DNSRecordType = "AAAA"
	DNSRecordTypeCNAME DNSRecordType = "CNAME"
)

// DNSRecordSet describes a single DNS record set identified by FQDN and type.
type DNSRecordSet struct {
	FQDN  string // Absolute FQDN. Trailing dot is optional.
	Type  DNSRecordType
	TTL   uint32   // TTL in seconds. Use provider default when zero.
	RData []string // Presentation-format RDATA.
}

// DomainRecord points a custom domain at a deferred target address.
type DomainRecord struct {
	Meta
	Cluster *Cluster
	Target  output.Output[string]
	TTL     uint32
}

// NewDomainRecord returns a domain record descriptor.
func NewDomainRecord(cluster *Cluster, fqdn string, target output.Output[string]) *DomainRecord {
	return &DomainRecord{Meta: NewMeta(KindDomainRecord, "", fqdn), Cluster: cluster, Target: target}
}

// Inputs implements Resource.
func (r *DomainRecord) Inputs() []output.Input { return []output.Input{r.Target} }

// RecordSet renders the record for a resolved target: A or AAAA for an IP
// address, CNAME for a hostname.
func (r *DomainRecord) RecordSet(target string) DNSRecordSet {
	rs := DNSRecordSet{FQDN: r.Name, TTL: r.TTL, RData: []string{target}}
	switch addr, err := netip.ParseAddr(target); {
	case err != nil:
		rs.Type = DNSRecordTypeCNAME
	case addr.Is4():
		rs.Type = DNSRecordTypeA
	default:
		rs.Type = DNSRecordTypeAAAA
	}
	return rs
}
