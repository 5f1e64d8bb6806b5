package topology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	MainServerName = "botpress-server"
	MainServerPort = 3000
	mainServerDir  = "/botpress/data"

	caVolume   = "db-ca"
	caFileName = "ca-certificate.crt"
	caMountDir = "/botpress/certs"
)

// StorageMode selects the Botpress file storage backend.
type StorageMode string

const (
	StorageModeDisk     StorageMode = "disk"
	StorageModeDatabase StorageMode = "database"
)

// PoolSizing is rendered into DATABASE_POOL.
type PoolSizing struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DatabaseArgs configures the managed database used in database storage mode.
type DatabaseArgs struct {
	Name      string // server name
	Version   string
	Size      string
	NodeCount int
	StorageGB int32
	Region    string
	DBName    string
	PoolMode  string
	PoolSize  int32
}

// MainServerArgs configures the Botpress server.
type MainServerArgs struct {
	Namespace          *model.Namespace
	Image              string
	Tag                string
	Replicas           int32
	Storage            string
	StorageClass       string
	StorageMode        StorageMode
	LangServerEndpoint output.Output[string]
	Domain             string
	Database           DatabaseArgs
	Pool               PoolSizing
}

type databaseResources struct {
	cluster  *model.DatabaseCluster
	database *model.Database
	pool     *model.ConnectionPool
	grant    *model.TrustGrant
	ca       *model.ConfigMap
}

// MainServer is the Botpress server: optional database, workload, service and
// three ingress rules.
type MainServer struct {
	app   *AppService
	args  MainServerArgs
	db    *databaseResources
	rules []*model.IngressRule
}

// NewMainServer declares, in order, the database (database mode only), the
// workload, its service and its ingress rules.
func NewMainServer(ctx context.Context, shared *Shared, args MainServerArgs) (*MainServer, error) {
	switch args.StorageMode {
	case StorageModeDisk, StorageModeDatabase:
	default:
		return nil, fmt.Errorf("main server: unknown storage mode %q", args.StorageMode)
	}

	app, err := NewAppService(shared, AppServiceArgs{
		Namespace:    args.Namespace,
		Name:         MainServerName,
		Replicas:     args.Replicas,
		Storage:      args.Storage,
		StorageClass: args.StorageClass,
	})
	if err != nil {
		return nil, err
	}
	m := &MainServer{app: app, args: args}

	if args.StorageMode == StorageModeDatabase {
		if err := m.provisionDatabase(); err != nil {
			return nil, err
		}
	}
	if err := m.deploy(); err != nil {
		return nil, err
	}
	if _, err := app.Expose("http", MainServerPort); err != nil {
		return nil, err
	}
	if _, err := m.CreateIngressRules(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// App returns the underlying AppService.
func (m *MainServer) App() *AppService { return m.app }

// IngressRules returns the declared rules.
func (m *MainServer) IngressRules() []*model.IngressRule { return m.rules }

// DatabaseCluster returns the database cluster, nil in disk mode.
func (m *MainServer) DatabaseCluster() *model.DatabaseCluster {
	if m.db == nil {
		return nil
	}
	return m.db.cluster
}

// ConnectionPool returns the connection pool, nil in disk mode.
func (m *MainServer) ConnectionPool() *model.ConnectionPool {
	if m.db == nil {
		return nil
	}
	return m.db.pool
}

func (m *MainServer) provisionDatabase() error {
	shared := m.app.shared
	g := shared.Graph
	a := m.args.Database

	dbc := model.NewDatabaseCluster(a.Name)
	dbc.Version = a.Version
	dbc.Size = a.Size
	dbc.NodeCount = a.NodeCount
	dbc.StorageGB = a.StorageGB
	dbc.Region = a.Region
	if _, err := g.Add(dbc, shared.Cluster); err != nil {
		return fmt.Errorf("declare database cluster: %w", err)
	}

	db := model.NewDatabase(dbc, a.DBName)
	if _, err := g.Add(db, dbc); err != nil {
		return fmt.Errorf("declare database: %w", err)
	}

	pool := model.NewConnectionPool(db, a.DBName+"-pool")
	if a.PoolMode != "" {
		pool.Mode = a.PoolMode
	}
	pool.Size = a.PoolSize
	if _, err := g.Add(pool, db); err != nil {
		return fmt.Errorf("declare connection pool: %w", err)
	}

	grant := model.NewTrustGrant(dbc, shared.Cluster)
	if _, err := g.Add(grant); err != nil {
		return fmt.Errorf("declare trust grant: %w", err)
	}

	ca := model.NewConfigMap(m.app.ns.Name, MainServerName+"-db-ca")
	ca.Data[caFileName] = dbc.CACertificate()
	if _, err := g.Add(ca, m.app.ns); err != nil {
		return fmt.Errorf("declare CA config map: %w", err)
	}

	m.db = &databaseResources{cluster: dbc, database: db, pool: pool, grant: grant, ca: ca}
	return nil
}

func (m *MainServer) externalURL() (output.Output[string], error) {
	if m.args.Domain != "" {
		return output.Of(m.args.Domain), nil
	}
	addr, err := m.app.shared.IngressAddress()
	if err != nil {
		return output.Output[string]{}, err
	}
	return output.Apply(addr, func(a string) string { return "http://" + a }), nil
}

func (m *MainServer) deploy() error {
	extURL, err := m.externalURL()
	if err != nil {
		return fmt.Errorf("render %s: %w", MainServerName, err)
	}

	w := m.app.NewWorkload(mainServerDir)
	w.Container.Image = imageRef(m.args.Image, m.args.Tag)
	w.Container.Ports = []model.ContainerPort{{Name: "http", Port: MainServerPort}}
	w.Container.Env = []model.EnvVar{
		{Name: "BP_MODULE_NLU_LANGUAGESOURCES", Value: output.Sprintf(`[{ "endpoint": "%s" }]`, m.args.LangServerEndpoint)},
		{Name: "EXTERNAL_URL", Value: extURL},
		{Name: "BPFS_STORAGE", Value: output.Of(string(m.args.StorageMode))},
	}

	var deps []model.Resource
	if m.args.StorageMode == StorageModeDatabase {
		if m.db == nil {
			return fmt.Errorf("render %s: database storage without a database cluster: %w", MainServerName, model.ErrContract)
		}
		poolJSON, err := json.Marshal(m.args.Pool)
		if err != nil {
			return fmt.Errorf("encode pool sizing: %w", err)
		}
		caPath := caMountDir + "/" + caFileName
		w.Container.Env = append(w.Container.Env,
			model.EnvVar{Name: "DATABASE_URL", Value: output.Apply(m.db.pool.PrivateURI(), RequireSSL)},
			model.EnvVar{Name: "DATABASE_POOL", Value: output.Of(string(poolJSON))},
			model.EnvVar{Name: "PGSSLMODE", Value: output.Of("require")},
			model.EnvVar{Name: "NODE_EXTRA_CA_CERTS", Value: output.Of(caPath)},
		)
		w.Volumes = append(w.Volumes, model.Volume{Name: caVolume, ConfigMapName: m.db.ca.Name})
		w.Container.VolumeMounts = append(w.Container.VolumeMounts, model.VolumeMount{
			Name:      caVolume,
			MountPath: caPath,
			SubPath:   caFileName,
			ReadOnly:  true,
		})
		deps = append(deps, m.db.ca, m.db.grant)
	}
	return m.app.Deploy(w, deps...)
}

// CreateIngressRules declares the assets, socket.io and root rules. Before
// the workload and service exist it logs and declares nothing. A failed call
// declares nothing either. Later calls return the rules declared by the first.
func (m *MainServer) CreateIngressRules(ctx context.Context) ([]*model.IngressRule, error) {
	if m.rules != nil {
		return m.rules, nil
	}
	logger := logging.FromContext(ctx)
	w, werr := m.app.Deployment()
	svc, serr := m.app.Service()
	if werr != nil || serr != nil {
		logger.Warn(ctx, "ingress rules skipped: workload or service not created", "workload", m.app.name)
		return nil, nil
	}
	ctrl, err := m.app.shared.IngressController()
	if err != nil {
		return nil, err
	}

	routes := mainServerRoutes(ctrl.CacheZone)
	rules := make([]*model.IngressRule, 0, len(routes))
	for _, rt := range routes {
		r := model.NewIngressRule(w.Namespace, w.Name+"-"+rt.suffix)
		r.ClassName = ctrl.ClassName
		r.Path = rt.path
		r.PathType = rt.pathType
		r.ServiceName = svc.Name
		r.ServicePort = svc.Port
		for k, v := range rt.annotations {
			r.Annotations[k] = v
		}
		rules = append(rules, r)
	}
	// Rules share their dependencies: with no URN taken every Add succeeds.
	for _, r := range rules {
		if m.app.shared.Graph.Has(r.URN()) {
			return nil, fmt.Errorf("declare ingress rule %s: %w", r.URN(), model.ErrDuplicateResource)
		}
	}
	for _, r := range rules {
		if _, err := m.app.shared.Graph.Add(r, svc, ctrl); err != nil {
			return nil, fmt.Errorf("declare ingress rule: %w", err)
		}
	}
	m.rules = rules
	logger.Debug(ctx, "ingress rules declared", "workload", w.Name, "count", len(rules))
	return rules, nil
}

type route struct {
	suffix      string
	path        string
	pathType    model.PathType
	annotations map[string]string
}

const nginxAnnotation = "nginx.ingress.kubernetes.io/"

// mainServerRoutes returns the routes ordered by path specificity. Assets are
// cached in cacheZone, which the ingress controller declares.
func mainServerRoutes(cacheZone string) []route {
	assets := map[string]string{nginxAnnotation + "use-regex": "true"}
	if cacheZone != "" {
		assets[nginxAnnotation+"configuration-snippet"] = strings.Join([]string{
			"proxy_cache " + cacheZone + ";",
			"proxy_cache_valid any 30m;",
			"proxy_ignore_headers Cache-Control;",
			"add_header X-Cache-Status $upstream_cache_status;",
		}, "\n") + "\n"
	}
	return []route{
		{
			suffix:      "assets",
			path:        "/.+/assets/.*",
			pathType:    model.PathTypeImplementationSpecific,
			annotations: assets,
		},
		{
			suffix:   "socketio",
			path:     "/socket.io/",
			pathType: model.PathTypePrefix,
			annotations: map[string]string{
				nginxAnnotation + "configuration-snippet": strings.Join([]string{
					"proxy_set_header Upgrade $http_upgrade;",
					`proxy_set_header Connection "upgrade";`,
				}, "\n") + "\n",
				nginxAnnotation + "proxy-read-timeout": "3600",
				nginxAnnotation + "proxy-send-timeout": "3600",
			},
		},
		{
			suffix:   "root",
			path:     "/",
			pathType: model.PathTypeExact,
		},
	}
}

// RequireSSL forces sslmode=require on a PostgreSQL connection string.
func RequireSSL(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		if strings.Contains(uri, "=") && !strings.Contains(uri, "?") {
			return uri + " sslmode=require"
		}
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		return uri + sep + "sslmode=require"
	}
	q := u.Query()
	q.Set("sslmode", "require")
	u.RawQuery = q.Encode()
	return u.String()
}
