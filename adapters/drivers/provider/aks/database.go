package aks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers/v4"
	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	databaseTimeout = time.Hour
	postgresPort    = 5432
	pgbouncerPort   = 6432
)

type postgresClients struct {
	servers   *armpostgresqlflexibleservers.ServersClient
	databases *armpostgresqlflexibleservers.DatabasesClient
	firewall  *armpostgresqlflexibleservers.FirewallRulesClient
	configs   *armpostgresqlflexibleservers.ConfigurationsClient
}

func (d *driver) postgresClients() (*postgresClients, error) {
	f, err := armpostgresqlflexibleservers.NewClientFactory(d.AzureSubscriptionId, d.TokenCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("create PostgreSQL client factory: %w", err)
	}
	return &postgresClients{
		servers:   f.NewServersClient(),
		databases: f.NewDatabasesClient(),
		firewall:  f.NewFirewallRulesClient(),
		configs:   f.NewConfigurationsClient(),
	}, nil
}

// skuTier maps an Azure size class to its pricing tier.
func skuTier(size string) armpostgresqlflexibleservers.SKUTier {
	switch {
	case strings.HasPrefix(size, "Standard_B"):
		return armpostgresqlflexibleservers.SKUTierBurstable
	case strings.HasPrefix(size, "Standard_E"):
		return armpostgresqlflexibleservers.SKUTierMemoryOptimized
	default:
		return armpostgresqlflexibleservers.SKUTierGeneralPurpose
	}
}

func highAvailability(nodeCount int) *armpostgresqlflexibleservers.HighAvailability {
	mode := armpostgresqlflexibleservers.HighAvailabilityModeDisabled
	if nodeCount > 1 {
		mode = armpostgresqlflexibleservers.HighAvailabilityModeZoneRedundant
	}
	return &armpostgresqlflexibleservers.HighAvailability{Mode: to.Ptr(mode)}
}

// DatabaseClusterApply creates the flexible server, or rotates its admin
// password to the supplied one when it already exists.
func (d *driver) DatabaseClusterApply(ctx context.Context, db *model.DatabaseCluster, admin model.DatabaseCredentials) (_ *model.DatabaseClusterStatus, err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DatabaseClusterApply")
	defer func() { cleanup(err) }()

	ctx, cancel := context.WithTimeout(ctx, databaseTimeout)
	defer cancel()

	pc, err := d.postgresClients()
	if err != nil {
		return nil, err
	}

	var server armpostgresqlflexibleservers.Server
	cur, err := pc.servers.Get(ctx, d.resourceGroupName, db.Name, nil)
	switch {
	case err == nil:
		logging.FromContext(ctx).Info(ctx, "postgres server exists; updating", "server", db.Name)
		update := armpostgresqlflexibleservers.ServerForUpdate{
			Properties: &armpostgresqlflexibleservers.ServerPropertiesForUpdate{
				AdministratorLoginPassword: to.Ptr(admin.Password),
				Storage:                    &armpostgresqlflexibleservers.Storage{StorageSizeGB: to.Ptr(db.StorageGB)},
				HighAvailability:           highAvailability(db.NodeCount),
			},
			SKU: &armpostgresqlflexibleservers.SKU{Name: to.Ptr(db.Size), Tier: to.Ptr(skuTier(db.Size))},
		}
		poller, err := pc.servers.BeginUpdate(ctx, d.resourceGroupName, db.Name, update, nil)
		if err != nil {
			return nil, fmt.Errorf("start postgres server update: %w", err)
		}
		res, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("update postgres server %s: %w", db.Name, err)
		}
		server = res.Server
		if server.Properties == nil {
			server = cur.Server
		}
	case isNotFoundError(err):
		location := d.location(db.Region)
		if location == "" {
			return nil, fmt.Errorf("database region or %s is required", settingLocation)
		}
		if err := d.ensureAzureResourceGroupCreated(ctx, location); err != nil {
			return nil, err
		}
		params := armpostgresqlflexibleservers.Server{
			Location: to.Ptr(location),
			Tags:     d.tags(),
			SKU:      &armpostgresqlflexibleservers.SKU{Name: to.Ptr(db.Size), Tier: to.Ptr(skuTier(db.Size))},
			Properties: &armpostgresqlflexibleservers.ServerProperties{
				CreateMode:                 to.Ptr(armpostgresqlflexibleservers.CreateModeCreate),
				Version:                    to.Ptr(armpostgresqlflexibleservers.ServerVersion(db.Version)),
				AdministratorLogin:         to.Ptr(admin.User),
				AdministratorLoginPassword: to.Ptr(admin.Password),
				Storage:                    &armpostgresqlflexibleservers.Storage{StorageSizeGB: to.Ptr(db.StorageGB)},
				HighAvailability:           highAvailability(db.NodeCount),
			},
		}
		poller, err := pc.servers.BeginCreate(ctx, d.resourceGroupName, db.Name, params, nil)
		if err != nil {
			return nil, fmt.Errorf("start postgres server creation: %w", err)
		}
		res, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("create postgres server %s: %w", db.Name, err)
		}
		server = res.Server
	default:
		return nil, fmt.Errorf("get postgres server %s: %w", db.Name, err)
	}

	st := &model.DatabaseClusterStatus{Port: postgresPort}
	if server.ID != nil {
		st.ID = *server.ID
	}
	if server.Properties != nil && server.Properties.FullyQualifiedDomainName != nil {
		st.Host = *server.Properties.FullyQualifiedDomainName
	}
	if st.Host == "" {
		st.Host = db.Name + ".postgres.database.azure.com"
	}
	return st, nil
}

// DatabaseClusterDelete deletes the flexible server. Missing servers are ignored.
func (d *driver) DatabaseClusterDelete(ctx context.Context, db *model.DatabaseCluster) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DatabaseClusterDelete")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	poller, err := pc.servers.BeginDelete(ctx, d.resourceGroupName, db.Name, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("start postgres server deletion: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("delete postgres server %s: %w", db.Name, err)
	}
	return nil
}

// DatabaseApply creates the logical database (idempotent).
func (d *driver) DatabaseApply(ctx context.Context, db *model.Database) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DatabaseApply")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	params := armpostgresqlflexibleservers.Database{
		Properties: &armpostgresqlflexibleservers.DatabaseProperties{
			Charset:   to.Ptr("UTF8"),
			Collation: to.Ptr("en_US.utf8"),
		},
	}
	poller, err := pc.databases.BeginCreate(ctx, d.resourceGroupName, db.Cluster.Name, db.Name, params, nil)
	if err != nil {
		return fmt.Errorf("start database creation: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("create database %s: %w", db.Name, err)
	}
	return nil
}

// DatabaseDelete deletes the logical database. Missing databases are ignored.
func (d *driver) DatabaseDelete(ctx context.Context, db *model.Database) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "DatabaseDelete")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	poller, err := pc.databases.BeginDelete(ctx, d.resourceGroupName, db.Cluster.Name, db.Name, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("start database deletion: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("delete database %s: %w", db.Name, err)
	}
	return nil
}

// pgbouncerSettings returns the server parameters enabling the built-in PgBouncer.
func pgbouncerSettings(pool *model.ConnectionPool) map[string]string {
	return map[string]string{
		"pgbouncer.enabled":           "true",
		"pgbouncer.pool_mode":         pool.Mode,
		"pgbouncer.default_pool_size": strconv.Itoa(int(pool.Size)),
	}
}

func serverParameter(value string) armpostgresqlflexibleservers.Configuration {
	return armpostgresqlflexibleservers.Configuration{
		Properties: &armpostgresqlflexibleservers.ConfigurationProperties{
			Value:  to.Ptr(value),
			Source: to.Ptr("user-override"),
		},
	}
}

// ConnectionPoolApply enables the built-in PgBouncer and returns its connection URI.
func (d *driver) ConnectionPoolApply(ctx context.Context, pool *model.ConnectionPool, admin model.DatabaseCredentials) (_ *model.ConnectionPoolStatus, err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "ConnectionPoolApply")
	defer func() { cleanup(err) }()

	host, err := pool.Cluster.Host().Value()
	if err != nil {
		return nil, fmt.Errorf("database host: %w", err)
	}
	pc, err := d.postgresClients()
	if err != nil {
		return nil, err
	}
	settings := pgbouncerSettings(pool)
	// pgbouncer.enabled must be set before the other parameters are accepted.
	for _, name := range []string{"pgbouncer.enabled", "pgbouncer.pool_mode", "pgbouncer.default_pool_size"} {
		poller, err := pc.configs.BeginPut(ctx, d.resourceGroupName, pool.Cluster.Name, name, serverParameter(settings[name]), nil)
		if err != nil {
			return nil, fmt.Errorf("start update of %s: %w", name, err)
		}
		if _, err := poller.PollUntilDone(ctx, nil); err != nil {
			return nil, fmt.Errorf("update %s: %w", name, err)
		}
	}
	return &model.ConnectionPoolStatus{
		ID:  pool.Cluster.Name + "/pgbouncer/" + pool.Database.Name,
		URI: poolURI(admin, host, pool.Database.Name),
	}, nil
}

// ConnectionPoolDelete disables PgBouncer. The server may already be gone.
func (d *driver) ConnectionPoolDelete(ctx context.Context, pool *model.ConnectionPool) (err error) {
	ctx, cleanup := d.withMethodLogger(ctx, "ConnectionPoolDelete")
	defer func() { cleanup(err) }()

	pc, err := d.postgresClients()
	if err != nil {
		return err
	}
	poller, err := pc.configs.BeginPut(ctx, d.resourceGroupName, pool.Cluster.Name, "pgbouncer.enabled", serverParameter("false"), nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("start pgbouncer disable: %w", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("disable pgbouncer: %w", err)
	}
	return nil
}

// poolURI renders the PgBouncer connection string.
func poolURI(admin model.DatabaseCredentials, host, database string) string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(admin.User, admin.Password),
		Host:   fmt.Sprintf("%s:%d", host, pgbouncerPort),
		Path:   "/" + database,
	}
	return u.String()
}
