package model

import (
	"strconv"

	"github.com/yaegashi/botpressops/domain/output"
)

// DatabaseCredentials authenticate against a database cluster.
type DatabaseCredentials struct {
	User     string
	Password string
}

// DatabaseCluster is a managed PostgreSQL server.
type DatabaseCluster struct {
	Meta
	Engine    string // "pg"
	Version   string
	Size      string // provider size class
	NodeCount int
	Region    string
	StorageGB int32
	AdminUser string
	host      *output.Cell[string]
	port      *output.Cell[int]
	caCert    *output.Cell[string]
	admin     *output.Cell[DatabaseCredentials]
}

// NewDatabaseCluster returns a PostgreSQL cluster descriptor.
func NewDatabaseCluster(name string) *DatabaseCluster {
	m := NewMeta(KindDatabaseCluster, "", name)
	urn := m.URN()
	return &DatabaseCluster{
		Meta:      m,
		Engine:    "pg",
		NodeCount: 1,
		host:      output.NewCell[string](urn),
		port:      output.NewCell[int](urn),
		caCert:    output.NewCell[string](urn),
		admin:     output.NewCell[DatabaseCredentials](urn),
	}
}

// Host is the server FQDN.
func (d *DatabaseCluster) Host() output.Output[string] { return d.host.Output() }

// Port is the server port.
func (d *DatabaseCluster) Port() output.Output[int] { return d.port.Output() }

// CACertificate is the PEM bundle clients use to verify the server.
func (d *DatabaseCluster) CACertificate() output.Output[string] { return d.caCert.Output() }

// Admin returns the administrator credentials.
func (d *DatabaseCluster) Admin() output.Output[DatabaseCredentials] { return d.admin.Output() }

// SetEndpoint resolves Host and Port.
func (d *DatabaseCluster) SetEndpoint(host string, port int) {
	d.host.Resolve(host)
	d.port.Resolve(port)
}

// SetCACertificate resolves CACertificate.
func (d *DatabaseCluster) SetCACertificate(pem string) { d.caCert.Resolve(pem) }

// SetAdmin resolves Admin.
func (d *DatabaseCluster) SetAdmin(c DatabaseCredentials) { d.admin.Resolve(c) }

// Outputs implements Resource. The admin password is persisted so that later
// runs render the same connection string.
func (d *DatabaseCluster) Outputs() map[string]string {
	out := d.Meta.Outputs()
	if v, ok := d.Host().Get(); ok {
		out["host"] = v
	}
	if v, ok := d.Port().Get(); ok {
		out["port"] = strconv.Itoa(v)
	}
	if v, ok := d.CACertificate().Get(); ok {
		out["caCertificate"] = v
	}
	if v, ok := d.Admin().Get(); ok {
		out["adminUser"] = v.User
		out["adminPassword"] = v.Password
	}
	return out
}

// Restore implements Resource.
func (d *DatabaseCluster) Restore(outputs map[string]string) {
	d.Meta.Restore(outputs)
	if h, ok := outputs["host"]; ok {
		p, err := strconv.Atoi(outputs["port"])
		if err == nil {
			d.SetEndpoint(h, p)
		}
	}
	if v, ok := outputs["caCertificate"]; ok {
		d.caCert.Resolve(v)
	}
	if u, ok := outputs["adminUser"]; ok && outputs["adminPassword"] != "" {
		d.admin.Resolve(DatabaseCredentials{User: u, Password: outputs["adminPassword"]})
	}
}

// Database is a logical database inside a cluster.
type Database struct {
	Meta
	Cluster *DatabaseCluster
}

// NewDatabase returns a logical database descriptor scoped to its cluster.
func NewDatabase(cluster *DatabaseCluster, name string) *Database {
	return &Database{Meta: NewMeta(KindDatabase, cluster.Name, name), Cluster: cluster}
}

// Inputs implements Resource.
func (d *Database) Inputs() []output.Input {
	return []output.Input{d.Cluster.ID()}
}

// ConnectionPool is a connection pooler in front of one database.
type ConnectionPool struct {
	Meta
	Cluster  *DatabaseCluster
	Database *Database
	Mode     string // transaction | session
	Size     int32
	uri      *output.Cell[string]
}

// NewConnectionPool returns a pool descriptor.
func NewConnectionPool(db *Database, name string) *ConnectionPool {
	m := NewMeta(KindConnectionPool, db.Cluster.Name, name)
	return &ConnectionPool{
		Meta:     m,
		Cluster:  db.Cluster,
		Database: db,
		Mode:     "transaction",
		uri:      output.NewCell[string](m.URN()),
	}
}

// PrivateURI is the connection string clients inside the cluster use.
func (p *ConnectionPool) PrivateURI() output.Output[string] { return p.uri.Output() }

// SetPrivateURI resolves PrivateURI.
func (p *ConnectionPool) SetPrivateURI(uri string) { p.uri.Resolve(uri) }

// Inputs implements Resource.
func (p *ConnectionPool) Inputs() []output.Input {
	return []output.Input{p.Database.ID(), p.Cluster.Host(), p.Cluster.Admin()}
}

// Outputs implements Resource.
func (p *ConnectionPool) Outputs() map[string]string {
	out := p.Meta.Outputs()
	if v, ok := p.PrivateURI().Get(); ok {
		out["privateUri"] = v
	}
	return out
}

// Restore implements Resource.
func (p *ConnectionPool) Restore(outputs map[string]string) {
	p.Meta.Restore(outputs)
	if v, ok := outputs["privateUri"]; ok {
		p.uri.Resolve(v)
	}
}

// TrustGrant authorizes the compute cluster's network identity to reach a
// database cluster. ID is a synthetic identifier kept in state.
type TrustGrant struct {
	Meta
	DatabaseCluster *DatabaseCluster
	Cluster         *Cluster
}

// NewTrustGrant returns a grant descriptor.
func NewTrustGrant(db *DatabaseCluster, cluster *Cluster) *TrustGrant {
	return &TrustGrant{
		Meta:            NewMeta(KindTrustGrant, db.Name, cluster.Name),
		DatabaseCluster: db,
		Cluster:         cluster,
	}
}

// Inputs implements Resource.
func (g *TrustGrant) Inputs() []output.Input {
	return []output.Input{g.DatabaseCluster.ID(), g.Cluster.ID()}
}

// TrustGrantState is the actual state of a grant as read from the provider.
type TrustGrantState struct {
	ID      string
	Sources []string // authorized source addresses
}

// DatabaseClusterStatus is returned by DatabasePort.DatabaseClusterApply.
type DatabaseClusterStatus struct {
	ID   string
	Host string
	Port int
}

// ConnectionPoolStatus is returned by DatabasePort.ConnectionPoolApply.
type ConnectionPoolStatus struct {
	ID  string
	URI string
}
